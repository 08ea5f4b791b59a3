package calendar

import (
	"errors"
	"fmt"

	"github.com/Nyx-1992/hostease-backend/internal/storage/models"
)

// ErrInvalidSpan marks events whose checkout is not after their checkin.
// Such events are dropped with a logged reason, never propagated as fatal.
var ErrInvalidSpan = errors.New("checkout is not after checkin")

// FetchError is a network, timeout or non-2xx failure pulling one feed.
// It skips the feed; it never aborts the run and never triggers removal
// reconciliation.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError is a structurally unparsable feed body. Individual malformed
// events never cause it; only a body with no calendar structure at all does.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parsing calendar: " + e.Reason
}

// UpsertError is a storage write failure for one booking draft. The rest of
// the batch continues; the row converges on the next run.
type UpsertError struct {
	Key models.IdentityKey
	Err error
}

func (e *UpsertError) Error() string {
	return fmt.Sprintf("upserting booking %s/%s %s->%s: %v",
		e.Key.PropertyID, e.Key.Platform,
		e.Key.CheckIn.Format("2006-01-02"), e.Key.CheckOut.Format("2006-01-02"), e.Err)
}

func (e *UpsertError) Unwrap() error { return e.Err }

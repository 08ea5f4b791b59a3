package calendar

import (
	"github.com/Nyx-1992/hostease-backend/internal/storage/models"
)

// Dedupe collapses drafts that share a reconciliation identity key.
//
// Tie-break: a draft with a real extracted guest name beats one with the
// placeholder; when both are equally rich the later draft wins, matching
// the idempotent last-write-wins upsert semantics. Output preserves first-
// sighting order of each key.
func Dedupe(drafts []Draft) []Draft {
	index := make(map[models.IdentityKey]int, len(drafts))
	var out []Draft

	for _, d := range drafts {
		key := d.Booking.Key()
		at, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, d)
			continue
		}
		if out[at].Info.IsPlaceholder() || !d.Info.IsPlaceholder() {
			out[at] = d
		}
	}

	return out
}

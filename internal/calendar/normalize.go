package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/Nyx-1992/hostease-backend/internal/storage/models"
)

// Draft is a normalized booking candidate plus the extraction that produced
// it. The extraction travels along so deduplication can prefer the richer of
// two colliding drafts.
type Draft struct {
	Booking models.Booking
	Info    GuestInfo
}

// defaultGuestCount is used when the feed carries no party size; platform
// ICS feeds never do.
const defaultGuestCount = 2

// Normalize maps a parsed event onto a booking draft for the given property
// and platform. Returns ErrInvalidSpan when checkout is not after checkin.
func Normalize(event Event, info GuestInfo, property *models.Property, platform models.Platform) (Draft, error) {
	checkIn := startOfDay(event.Start)
	checkOut := startOfDay(event.End)
	nights := int(checkOut.Sub(checkIn).Hours() / 24)
	if nights <= 0 {
		return Draft{}, fmt.Errorf("event %s (%s to %s): %w",
			event.UID, event.Start.Format("2006-01-02"), event.End.Format("2006-01-02"), ErrInvalidSpan)
	}

	baseAmount := property.BasePrice * float64(nights)
	currency := property.Currency
	if currency == "" {
		currency = "ZAR"
	}

	booking := models.Booking{
		PropertyID: property.ID,
		Platform:   platform,
		Guest: models.Guest{
			FirstName: info.FirstName,
			LastName:  info.LastName,
			// Deterministic placeholder so the persisted entity always has
			// an email; not a real contact channel.
			Email:           fmt.Sprintf("%s@%s.guest", strings.ToLower(info.FirstName), platform),
			NumberOfGuests:  defaultGuestCount,
			SpecialRequests: event.Description,
		},
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Nights:      nights,
		BaseAmount:  baseAmount,
		TotalAmount: baseAmount,
		Currency:    currency,
		Status:      models.BookingStatusConfirmed,
	}

	if info.Phone != "" {
		phone := info.Phone
		booking.Guest.Phone = &phone
	}
	if info.ReferenceCode != "" {
		ref := info.ReferenceCode
		booking.ReferenceCode = &ref
	}
	if info.CheckinTimeHint != "" {
		hint := info.CheckinTimeHint
		booking.CheckinTimeHint = &hint
	}
	if event.UID != "" {
		uid := event.UID
		booking.SourceEventUID = &uid
	}

	return Draft{Booking: booking, Info: info}, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

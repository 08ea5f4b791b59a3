package models

import (
	"time"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusCheckedIn  BookingStatus = "checked-in"
	BookingStatusCheckedOut BookingStatus = "checked-out"
	BookingStatusCancelled  BookingStatus = "cancelled"
	BookingStatusNoShow     BookingStatus = "no-show"
)

// Guest holds the guest contact details attached to a booking.
type Guest struct {
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	Email           string  `json:"email"`
	Phone           *string `json:"phone,omitempty"`
	NumberOfGuests  int     `json:"number_of_guests"`
	SpecialRequests string  `json:"special_requests,omitempty"`
}

// Booking represents a reservation for a property.
//
// Bookings synced from iCal feeds are created and updated by the
// reconciliation engine; check-in/check-out workflows mutate them afterwards.
// The natural key for reconciliation is (property, platform, check-in,
// check-out), not the row id.
type Booking struct {
	ID         string   `json:"id"`
	PropertyID string   `json:"property_id"`
	Platform   Platform `json:"platform"`

	Guest Guest `json:"guest"`

	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
	Nights   int       `json:"nights"`

	BaseAmount  float64 `json:"base_amount"`
	TotalAmount float64 `json:"total_amount"`
	Currency    string  `json:"currency"`

	Status          BookingStatus `json:"status"`
	ReferenceCode   *string       `json:"reference_code,omitempty"`
	CheckinTimeHint *string       `json:"checkin_time_hint,omitempty"`

	// Feed provenance. RemovedFromSource marks bookings that disappeared
	// from their feed; rows are never hard-deleted once financial or
	// check-in records may reference them.
	SourceEventUID    *string    `json:"source_event_uid,omitempty"`
	LastSyncedAt      *time.Time `json:"last_synced_at,omitempty"`
	RemovedFromSource bool       `json:"removed_from_source"`

	ActualCheckIn  *time.Time `json:"actual_check_in,omitempty"`
	ActualCheckOut *time.Time `json:"actual_check_out,omitempty"`
	CheckInNotes   *string    `json:"check_in_notes,omitempty"`
	CheckOutNotes  *string    `json:"check_out_notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IdentityKey is the tuple that defines booking uniqueness for
// reconciliation.
type IdentityKey struct {
	PropertyID string
	Platform   Platform
	CheckIn    time.Time
	CheckOut   time.Time
}

// Key returns the booking's identity key.
func (b *Booking) Key() IdentityKey {
	return IdentityKey{
		PropertyID: b.PropertyID,
		Platform:   b.Platform,
		CheckIn:    b.CheckIn.UTC(),
		CheckOut:   b.CheckOut.UTC(),
	}
}

package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/Nyx-1992/hostease-backend/internal/storage/models"
)

func testProperty() *models.Property {
	return &models.Property{
		ID:        "prop-1",
		Name:      "Seaview Cottage",
		BasePrice: 950,
		Currency:  "ZAR",
	}
}

func TestNormalizeFourNightStay(t *testing.T) {
	event := Event{
		UID:     "uid-1",
		Summary: "Jane Doe",
		Start:   time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC),
		End:     time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
	}
	info := GuestInfo{FirstName: "Jane", LastName: "Doe", ReferenceCode: "LS-5FZ37J"}

	draft, err := Normalize(event, info, testProperty(), models.PlatformLekkeSlaap)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}

	b := draft.Booking
	if b.Nights != 4 {
		t.Errorf("Nights = %d, want 4", b.Nights)
	}
	if !b.CheckIn.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("CheckIn = %v, not truncated to start of day", b.CheckIn)
	}
	if !b.CheckOut.Equal(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("CheckOut = %v", b.CheckOut)
	}
	if b.BaseAmount != 3800 || b.TotalAmount != 3800 {
		t.Errorf("amounts = %v/%v, want 3800", b.BaseAmount, b.TotalAmount)
	}
	if b.Guest.Email != "jane@lekkeslaap.guest" {
		t.Errorf("Email = %q", b.Guest.Email)
	}
	if b.Status != models.BookingStatusConfirmed {
		t.Errorf("Status = %s", b.Status)
	}
	if b.ReferenceCode == nil || *b.ReferenceCode != "LS-5FZ37J" {
		t.Errorf("ReferenceCode = %v", b.ReferenceCode)
	}
	if b.SourceEventUID == nil || *b.SourceEventUID != "uid-1" {
		t.Errorf("SourceEventUID = %v", b.SourceEventUID)
	}
}

func TestNormalizeInvalidSpan(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	for _, end := range []time.Time{day, day.Add(-24 * time.Hour)} {
		event := Event{UID: "bad", Start: day, End: end}
		_, err := Normalize(event, GuestInfo{}, testProperty(), models.PlatformDirect)
		if !errors.Is(err, ErrInvalidSpan) {
			t.Errorf("end %v: err = %v, want ErrInvalidSpan", end, err)
		}
	}
}

func TestNormalizePlaceholderGuest(t *testing.T) {
	event := Event{
		Start: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
	}
	info := GuestInfo{FirstName: PlaceholderFirstName, LastName: PlaceholderLastName}

	draft, err := Normalize(event, info, testProperty(), models.PlatformDirect)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}

	b := draft.Booking
	if b.Guest.Email != "unknown@direct.guest" {
		t.Errorf("Email = %q", b.Guest.Email)
	}
	if b.Guest.NumberOfGuests != defaultGuestCount {
		t.Errorf("NumberOfGuests = %d", b.Guest.NumberOfGuests)
	}
	if b.SourceEventUID != nil {
		t.Errorf("SourceEventUID should be nil for UID-less events")
	}
}

func TestNormalizeDefaultsCurrency(t *testing.T) {
	property := testProperty()
	property.Currency = ""

	event := Event{
		Start: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
	}
	draft, err := Normalize(event, GuestInfo{FirstName: "A", LastName: "B"}, property, models.PlatformAirbnb)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if draft.Booking.Currency != "ZAR" {
		t.Errorf("Currency = %q", draft.Booking.Currency)
	}
}

package calendar

import (
	"testing"
	"time"

	"github.com/Nyx-1992/hostease-backend/internal/storage/models"
)

func draftFor(t *testing.T, first, last string, checkIn time.Time) Draft {
	t.Helper()
	return Draft{
		Booking: models.Booking{
			PropertyID: "prop-1",
			Platform:   models.PlatformAirbnb,
			CheckIn:    checkIn,
			CheckOut:   checkIn.Add(48 * time.Hour),
			Guest:      models.Guest{FirstName: first, LastName: last},
		},
		Info: GuestInfo{FirstName: first, LastName: last},
	}
}

func TestDedupeKeepsDistinctKeys(t *testing.T) {
	day1 := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	out := Dedupe([]Draft{
		draftFor(t, "Jane", "Doe", day1),
		draftFor(t, "John", "Smith", day2),
	})
	if len(out) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(out))
	}
}

func TestDedupeRealNameBeatsPlaceholder(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	out := Dedupe([]Draft{
		draftFor(t, PlaceholderFirstName, PlaceholderLastName, day),
		draftFor(t, "Jane", "Doe", day),
	})
	if len(out) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(out))
	}
	if out[0].Info.FirstName != "Jane" {
		t.Errorf("kept %q, want the named draft", out[0].Info.FirstName)
	}
}

func TestDedupePlaceholderNeverReplacesRealName(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	out := Dedupe([]Draft{
		draftFor(t, "Jane", "Doe", day),
		draftFor(t, PlaceholderFirstName, PlaceholderLastName, day),
	})
	if len(out) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(out))
	}
	if out[0].Info.FirstName != "Jane" {
		t.Errorf("kept %q, want the named draft", out[0].Info.FirstName)
	}
}

func TestDedupeEquallyRichLastWins(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	out := Dedupe([]Draft{
		draftFor(t, "Jane", "Doe", day),
		draftFor(t, "Janet", "Doe", day),
	})
	if len(out) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(out))
	}
	if out[0].Info.FirstName != "Janet" {
		t.Errorf("kept %q, want the later draft", out[0].Info.FirstName)
	}
}

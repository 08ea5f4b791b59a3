package calendar

import (
	"testing"

	"github.com/Nyx-1992/hostease-backend/internal/storage/models"
)

func TestDetectPlatformFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want models.Platform
	}{
		{"https://admin.booking.com/hotel/hoteladmin/ical.html?t=abc", models.PlatformBookingCom},
		{"https://www.airbnb.com/calendar/ical/12345.ics?s=secret", models.PlatformAirbnb},
		{"https://www.lekkeslaap.co.za/ical/prop-99.ics", models.PlatformLekkeSlaap},
		{"https://www.fewo-direkt.de/icalendar/feed.ics", models.PlatformFeWo},
	}

	for _, tt := range tests {
		if got := DetectPlatform(tt.url, "", ""); got != tt.want {
			t.Errorf("DetectPlatform(%q) = %s, want %s", tt.url, got, tt.want)
		}
	}
}

func TestDetectPlatformFromText(t *testing.T) {
	tests := []struct {
		name    string
		summary string
		desc    string
		want    models.Platform
	}{
		{"keyword in summary", "Booking.com - John Smith", "", models.PlatformBookingCom},
		{"lekkeslaap reference code", "Jane Doe", "Booking ref LS-5FZ37J", models.PlatformLekkeSlaap},
		{"airbnb reservation code", "Reserved - HMABCD1234", "", models.PlatformAirbnb},
		{"no signal falls back to direct", "Jane Doe", "Walk-in guest", models.PlatformDirect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectPlatform("", tt.summary, tt.desc); got != tt.want {
				t.Errorf("DetectPlatform = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDetectPlatformURLBeatsText(t *testing.T) {
	// A booking.com URL wins even when the text mentions another platform.
	got := DetectPlatform("https://admin.booking.com/ical.ics", "Reserved via Airbnb", "")
	if got != models.PlatformBookingCom {
		t.Errorf("DetectPlatform = %s, want %s", got, models.PlatformBookingCom)
	}
}

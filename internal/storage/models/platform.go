package models

import (
	"fmt"
	"strings"
)

// Platform identifies the booking channel a reservation came from.
type Platform string

const (
	PlatformBookingCom Platform = "booking.com"
	PlatformLekkeSlaap Platform = "lekkeslaap"
	PlatformFeWo       Platform = "fewo"
	PlatformAirbnb     Platform = "airbnb"
	PlatformDomestic   Platform = "domestic"
	PlatformDirect     Platform = "direct"
)

// Platforms lists every known platform in feed-processing priority order.
var Platforms = []Platform{
	PlatformBookingCom,
	PlatformLekkeSlaap,
	PlatformFeWo,
	PlatformAirbnb,
	PlatformDomestic,
	PlatformDirect,
}

// ParsePlatform converts free-form input into a Platform.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "booking.com", "booking", "bookingcom":
		return PlatformBookingCom, nil
	case "lekkeslaap":
		return PlatformLekkeSlaap, nil
	case "fewo", "fewo-direkt":
		return PlatformFeWo, nil
	case "airbnb":
		return PlatformAirbnb, nil
	case "domestic":
		return PlatformDomestic, nil
	case "direct":
		return PlatformDirect, nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// Valid reports whether p is a member of the closed platform set.
func (p Platform) Valid() bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}

func (p Platform) String() string {
	return string(p)
}

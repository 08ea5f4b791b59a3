package calendar

import (
	"strings"

	"github.com/Nyx-1992/hostease-backend/internal/storage/models"
)

// Placeholder guest identity. Extraction never fails; when nothing usable
// can be pulled from the event text these values guarantee downstream
// normalization always has a name to work with.
const (
	PlaceholderFirstName = "Unknown"
	PlaceholderLastName  = "Guest"
)

// GuestInfo is the best-effort metadata extracted from an event's free text.
// Platform feeds are lossy; the platform APIs would be authoritative but are
// not available, so precision here is explicitly degraded fidelity.
type GuestInfo struct {
	FirstName       string
	LastName        string
	ReferenceCode   string
	Phone           string
	CheckinTimeHint string // "15:04"
}

// IsPlaceholder reports whether no real guest name was extracted.
func (g GuestInfo) IsPlaceholder() bool {
	return g.FirstName == PlaceholderFirstName && g.LastName == PlaceholderLastName
}

// ExtractGuestInfo pulls guest details out of an event's summary and
// description using the heuristics of the given platform only. It always
// returns a usable result; the worst case is all-placeholder fields.
func ExtractGuestInfo(summary, description string, platform models.Platform) GuestInfo {
	info := GuestInfo{
		FirstName: PlaceholderFirstName,
		LastName:  PlaceholderLastName,
	}

	if rule := ruleFor(platform); rule != nil {
		rule.extract(summary, description, &info)
	} else {
		extractGeneric(summary, description, &info)
	}

	return info
}

func extractBookingCom(summary, description string, info *GuestInfo) {
	if m := reBookingName.FindStringSubmatch(summary); m != nil {
		setName(info, m[1])
	} else {
		setName(info, summary)
	}
	if m := reBookingRef.FindStringSubmatch(description); m != nil {
		info.ReferenceCode = m[1]
	} else if m := reBookingRefAlt.FindStringSubmatch(description); m != nil {
		info.ReferenceCode = m[1]
	}
	if m := reBookingPhone.FindStringSubmatch(description); m != nil {
		info.Phone = strings.TrimSpace(m[1])
	}
}

func extractAirbnb(summary, description string, info *GuestInfo) {
	if m := reAirbnbName.FindStringSubmatch(summary); m != nil {
		setName(info, m[1])
	} else {
		setName(info, summary)
	}
	if m := reAirbnbRef.FindStringSubmatch(summary + " " + description); m != nil {
		info.ReferenceCode = m[1]
	}
	if m := reAirbnbHint.FindStringSubmatch(description); m != nil {
		info.CheckinTimeHint = m[1]
	}
}

func extractLekkeSlaap(summary, description string, info *GuestInfo) {
	if m := reLekkeRef.FindString(summary + " " + description); m != "" {
		info.ReferenceCode = m
	}
	if m := reLekkeName.FindStringSubmatch(summary); m != nil {
		setName(info, m[1])
	} else {
		setName(info, summary)
	}
}

func extractFeWo(summary, description string, info *GuestInfo) {
	if m := reFewoName.FindStringSubmatch(summary); m != nil {
		setName(info, m[1])
	} else {
		setName(info, summary)
	}
}

func extractGeneric(summary, description string, info *GuestInfo) {
	setName(info, summary)
	for _, candidate := range reGenericRef.FindAllString(description+" "+summary, -1) {
		// Contiguous uppercase words like GUESTS are not codes; require a digit.
		if strings.ContainsAny(candidate, "0123456789") {
			info.ReferenceCode = candidate
			break
		}
	}
}

// blockerWords are summary values that mark availability blocks rather than
// guests; they must never become a guest name.
var blockerWords = []string{
	"reserved", "closed", "not available", "unavailable", "blocked", "busy",
}

// setName splits a cleaned summary fragment into first/last name, leaving
// the placeholder untouched when the text is a blocker marker or looks like
// a reservation code instead of a person.
func setName(info *GuestInfo, raw string) {
	cleaned := rePlatformPrefix.ReplaceAllString(raw, "")
	cleaned = reTrailingParens.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(strings.Trim(cleaned, "-: "))
	if cleaned == "" {
		return
	}

	lower := strings.ToLower(cleaned)
	for _, w := range blockerWords {
		if strings.Contains(lower, w) {
			return
		}
	}

	parts := strings.Fields(cleaned)
	if len(parts) == 1 && strings.ContainsAny(parts[0], "0123456789") {
		// A lone token with digits is a code, not a name.
		return
	}

	info.FirstName = parts[0]
	if len(parts) > 1 {
		info.LastName = strings.Join(parts[1:], " ")
	} else {
		info.LastName = PlaceholderLastName
	}
}

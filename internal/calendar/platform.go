package calendar

import (
	"regexp"
	"strings"

	"github.com/Nyx-1992/hostease-backend/internal/storage/models"
)

// platformRule couples one platform's detection predicate with its
// extraction heuristics. Rules are evaluated in fixed priority order and
// exactly one rule ever runs per event: the feed's configured platform is
// authoritative, text sniffing is only a fallback for generic feeds.
type platformRule struct {
	platform models.Platform
	// keyword is the cheap case-insensitive substring test applied to the
	// feed URL first, then to summary+description.
	keyword string
	// refPattern optionally strengthens text sniffing (e.g. LS- codes).
	refPattern *regexp.Regexp
	extract    func(summary, description string, info *GuestInfo)
}

var (
	reBookingName    = regexp.MustCompile(`(?i)^booking\.com\s*[-:]\s*(.+)$`)
	reBookingRef     = regexp.MustCompile(`(?i)reservation number:\s*(\d+)`)
	reBookingRefAlt  = regexp.MustCompile(`(?i)booking[\s#:]?(\d+)`)
	reBookingPhone   = regexp.MustCompile(`(?i)phone:\s*([+\d][+\d\s()-]*)`)
	reAirbnbName     = regexp.MustCompile(`^(.+)\s+\(Airbnb\)$`)
	reAirbnbRef      = regexp.MustCompile(`(?i:reserved)\b[^0-9A-Za-z]*([A-Z0-9]{10,})`)
	reAirbnbHint     = regexp.MustCompile(`(?i)check-in:\s*(\d{2}:\d{2})`)
	reLekkeName      = regexp.MustCompile(`(?i)^lekkeslaap\s*[-:]\s*(.+)$`)
	reLekkeRef       = regexp.MustCompile(`\bLS-[A-Z0-9]+\b`)
	reFewoName       = regexp.MustCompile(`(?i)^fewo(?:-direkt)?\s*[-:]\s*(.+)$`)
	reGenericRef     = regexp.MustCompile(`\b[A-Z0-9]{6,}\b`)
	rePlatformPrefix = regexp.MustCompile(`(?i)^(booking\.com|airbnb|lekkeslaap|fewo(?:-direkt)?|reservation)[\s\-:]*`)
	reTrailingParens = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
)

// platformRules is the closed rule table, in detection priority order.
var platformRules = []platformRule{
	{
		platform: models.PlatformBookingCom,
		keyword:  "booking.com",
		extract:  extractBookingCom,
	},
	{
		platform:   models.PlatformLekkeSlaap,
		keyword:    "lekkeslaap",
		refPattern: reLekkeRef,
		extract:    extractLekkeSlaap,
	},
	{
		platform: models.PlatformFeWo,
		keyword:  "fewo",
		extract:  extractFeWo,
	},
	{
		platform:   models.PlatformAirbnb,
		keyword:    "airbnb",
		refPattern: reAirbnbRef,
		extract:    extractAirbnb,
	},
}

func ruleFor(platform models.Platform) *platformRule {
	for i := range platformRules {
		if platformRules[i].platform == platform {
			return &platformRules[i]
		}
	}
	return nil
}

// DetectPlatform sniffs a platform for events from generic or aggregated
// feeds whose platform is not known from configuration. The feed URL is
// checked before the event text. Unmatched events fall back to direct.
func DetectPlatform(feedURL, summary, description string) models.Platform {
	url := strings.ToLower(feedURL)
	for _, rule := range platformRules {
		if url != "" && strings.Contains(url, rule.keyword) {
			return rule.platform
		}
	}

	text := strings.ToLower(summary + " " + description)
	for _, rule := range platformRules {
		if strings.Contains(text, rule.keyword) {
			return rule.platform
		}
		if rule.refPattern != nil && rule.refPattern.MatchString(summary+" "+description) {
			return rule.platform
		}
	}

	return models.PlatformDirect
}

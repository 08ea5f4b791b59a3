// Package calendar implements multi-platform iCal feed reconciliation:
// parsing, guest extraction, normalization, deduplication and the sync
// engine that converges stored bookings with their source feeds.
package calendar

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
)

// Event is one VEVENT parsed from an iCal feed.
type Event struct {
	UID         string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// Parser parses iCal/ICS feed bodies.
//
// It is deliberately lenient: platform feeds routinely contain malformed,
// truncated or all-day blocker entries, so unknown lines are ignored and
// events missing either date are dropped rather than failing the feed.
type Parser struct{}

// NewParser creates a new iCal parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse reads iCal data from a reader and returns its events.
// Only a body with no calendar structure at all yields a *ParseError.
func (p *Parser) Parse(r io.Reader) ([]Event, error) {
	var events []Event
	var current *Event
	var currentField string
	var multilineValue strings.Builder
	sawCalendar := false

	flush := func() {
		if currentField != "" && current != nil {
			setEventField(current, currentField, multilineValue.String())
		}
		currentField = ""
		multilineValue.Reset()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		// Folded continuation lines are prefixed by a space or tab.
		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			if currentField != "" {
				multilineValue.WriteString(line[1:])
			}
			continue
		}

		flush()

		colonIdx := strings.Index(line, ":")
		if colonIdx == -1 {
			continue
		}

		field := line[:colonIdx]
		value := line[colonIdx+1:]

		// Strip property parameters (e.g. DTSTART;VALUE=DATE:20231215).
		if semicolonIdx := strings.Index(field, ";"); semicolonIdx != -1 {
			field = field[:semicolonIdx]
		}

		switch field {
		case "BEGIN":
			switch value {
			case "VCALENDAR":
				sawCalendar = true
			case "VEVENT":
				sawCalendar = true
				current = &Event{}
			}
		case "END":
			if value == "VEVENT" && current != nil {
				// Entries without both dates are blocker noise, not errors.
				if !current.Start.IsZero() && !current.End.IsZero() {
					events = append(events, *current)
				}
				current = nil
			}
		case "UID", "SUMMARY", "DESCRIPTION", "DTSTART", "DTEND":
			if current != nil {
				currentField = field
				multilineValue.WriteString(value)
			}
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("reading body: %v", err)}
	}
	if !sawCalendar {
		return nil, &ParseError{Reason: "no VCALENDAR structure found"}
	}

	return events, nil
}

// ParseBytes parses an in-memory feed body.
func (p *Parser) ParseBytes(body []byte) ([]Event, error) {
	return p.Parse(strings.NewReader(string(body)))
}

func setEventField(event *Event, field, value string) {
	// Unescape common iCal escape sequences.
	value = strings.ReplaceAll(value, "\\n", "\n")
	value = strings.ReplaceAll(value, "\\,", ",")
	value = strings.ReplaceAll(value, "\\;", ";")
	value = strings.ReplaceAll(value, "\\\\", "\\")

	switch field {
	case "UID":
		event.UID = value
	case "SUMMARY":
		event.Summary = value
	case "DESCRIPTION":
		event.Description = value
	case "DTSTART":
		event.Start = parseDateTime(value)
	case "DTEND":
		event.End = parseDateTime(value)
	}
}

// parseDateTime parses an iCal date or datetime value. Everything is treated
// as UTC for determinism; feeds rarely carry reliable zone information.
func parseDateTime(value string) time.Time {
	formats := []string{
		"20060102T150405Z",     // UTC datetime
		"20060102T150405",      // floating datetime
		"20060102",             // date only (all-day)
		"2006-01-02T15:04:05Z", // ISO 8601 with dashes
		"2006-01-02",           // ISO 8601 date
	}

	for _, format := range formats {
		if t, err := time.ParseInLocation(format, value, time.UTC); err == nil {
			return t.UTC()
		}
	}

	return time.Time{}
}

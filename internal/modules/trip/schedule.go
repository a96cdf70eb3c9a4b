// README: Time-window resolution for requested search dates and scheduled trip times.
package trip

import (
	"strings"
	"time"
)

const defaultClock = "00:00"

// Zone returns the fixed zone for a signed offset in minutes from UTC.
func Zone(offsetMinutes int) *time.Location {
	return time.FixedZone("", offsetMinutes*60)
}

// ResolveInstant interprets a calendar date (YYYY-MM-DD) and wall-clock time
// (HH:MM, empty means midnight) in the given offset. It returns false when the
// date is empty or the pair does not parse.
func ResolveInstant(date, clock string, offsetMinutes int) (time.Time, bool) {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Time{}, false
	}
	clock = strings.TrimSpace(clock)
	if clock == "" {
		clock = defaultClock
	}
	t, err := time.ParseInLocation("2006-01-02T15:04", date+"T"+clock, Zone(offsetMinutes))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// zone-less layouts accepted for a trip's "time" field.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ScheduledInstant parses a trip's stored time. Values carrying their own
// offset are honoured; zone-less values are read in offsetMinutes.
func ScheduledInstant(raw string, offsetMinutes int) (time.Time, bool) {
	t, _, ok := parseScheduled(raw, offsetMinutes)
	return t, ok
}

// ScheduledDate is the calendar date a trip's stored time falls on. Values
// carrying their own offset are read as UTC dates; zone-less values keep the
// date they were written with.
func ScheduledDate(raw string, offsetMinutes int) (string, bool) {
	t, zoned, ok := parseScheduled(raw, offsetMinutes)
	if !ok {
		return "", false
	}
	if zoned {
		t = t.UTC()
	}
	return t.Format("2006-01-02"), true
}

func parseScheduled(raw string, offsetMinutes int) (t time.Time, zoned, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, false
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, true, true
	}
	zone := Zone(offsetMinutes)
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, raw, zone); err == nil {
			return t, false, true
		}
	}
	return time.Time{}, false, false
}

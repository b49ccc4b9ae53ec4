package summary

import (
	"fmt"
	"strings"
	"time"

	"github.com/cleared-dev/tally/internal/model"
)

// Layouts accepted for dates without an explicit offset. They are read in
// the local time zone.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTime parses an RFC 3339 timestamp, a local date-time
// ("2025-01-15T09:30") or a bare date ("2025-01-15"). A bare date means the
// first instant of that day, or the last instant when endOfDay is set, so a
// date-only range covers both of its days.
func ParseTime(field, s string, endOfDay bool) (time.Time, error) {
	return parseTimeIn(field, s, endOfDay, time.Local)
}

// parseTimeIn is ParseTime with an explicit location for values without an
// offset.
func parseTimeIn(field, s string, endOfDay bool, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		if endOfDay {
			return t.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
		}
		return t, nil
	}
	return time.Time{}, &model.ValidationError{Field: field, Reason: fmt.Sprintf("cannot parse %q as a date", s)}
}

// ParseRange parses both bounds of a summary window. Either bound failing to
// parse is a ValidationError; start after end is not.
func ParseRange(startStr, endStr string) (start, end time.Time, err error) {
	start, err = ParseTime("startDate", startStr, false)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = ParseTime("endDate", endStr, true)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

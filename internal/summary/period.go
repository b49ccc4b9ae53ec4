package summary

import (
	"fmt"
	"strings"
	"time"

	"github.com/cleared-dev/tally/internal/model"
)

// Period names accepted by PeriodRange.
const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// WeekRange returns the first and last instant of the Sunday-to-Saturday
// week containing now, in now's location.
func WeekRange(now time.Time) (start, end time.Time) {
	day := startOfDay(now)
	start = day.AddDate(0, 0, -int(day.Weekday()))
	return start, start.AddDate(0, 0, 7).Add(-time.Nanosecond)
}

// MonthRange returns the first and last instant of the calendar month
// containing now.
func MonthRange(now time.Time) (start, end time.Time) {
	start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// YearRange returns the first and last instant of the calendar year
// containing now.
func YearRange(now time.Time) (start, end time.Time) {
	start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(1, 0, 0).Add(-time.Nanosecond)
}

// PeriodRange resolves "week", "month" or "year" relative to now.
func PeriodRange(period string, now time.Time) (start, end time.Time, err error) {
	switch strings.ToLower(strings.TrimSpace(period)) {
	case PeriodWeek:
		start, end = WeekRange(now)
	case PeriodMonth:
		start, end = MonthRange(now)
	case PeriodYear:
		start, end = YearRange(now)
	default:
		return time.Time{}, time.Time{}, &model.ValidationError{Field: "period", Reason: fmt.Sprintf("%q is not one of week, month, year", period)}
	}
	return start, end, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

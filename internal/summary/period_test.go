package summary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/model"
)

func TestWeekRange(t *testing.T) {
	// Wednesday 2025-03-12.
	now := time.Date(2025, 3, 12, 15, 4, 5, 0, time.UTC)
	start, end := WeekRange(now)
	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), start, "weeks start on Sunday")
	assert.Equal(t, time.Date(2025, 3, 15, 23, 59, 59, 999999999, time.UTC), end)

	// A Sunday is the first day of its own week.
	start, _ = WeekRange(time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), start)
}

func TestMonthRange(t *testing.T) {
	start, end := MonthRange(time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, 999999999, time.UTC), end, "leap year")

	start, end = MonthRange(time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 12, 31, 23, 59, 59, 999999999, time.UTC), end)
}

func TestYearRange(t *testing.T) {
	start, end := YearRange(time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 12, 31, 23, 59, 59, 999999999, time.UTC), end)
}

func TestRangesKeepLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	start, end := MonthRange(time.Date(2025, 3, 31, 23, 0, 0, 0, loc))
	assert.Equal(t, loc, start.Location())
	assert.Equal(t, time.Month(3), end.Month())
}

func TestPeriodRange(t *testing.T) {
	now := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	for _, p := range []string{"week", "Month", " year "} {
		start, end, err := PeriodRange(p, now)
		require.NoError(t, err, p)
		assert.True(t, !now.Before(start) && !now.After(end), p)
	}

	_, _, err := PeriodRange("decade", now)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in       string
		endOfDay bool
		want     time.Time
	}{
		{"2025-03-01T10:00:00Z", false, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"2025-03-01T10:00:00.5+00:00", true, time.Date(2025, 3, 1, 10, 0, 0, 500000000, time.UTC)},
		{"2025-03-01T10:00", false, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"2025-03-01 10:00:30", false, time.Date(2025, 3, 1, 10, 0, 30, 0, time.UTC)},
		{"2025-03-01", false, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"2025-03-01", true, time.Date(2025, 3, 1, 23, 59, 59, 999999999, time.UTC)},
	}
	for _, tt := range tests {
		got, err := parseTimeIn("startDate", tt.in, tt.endOfDay, time.UTC)
		require.NoError(t, err, tt.in)
		assert.True(t, got.Equal(tt.want), "%q parsed as %s, want %s", tt.in, got, tt.want)
	}
}

func TestParseRange(t *testing.T) {
	start, end, err := ParseRange("2025-03-01T00:00:00Z", "2025-03-31T23:59:59Z")
	require.NoError(t, err)
	assert.True(t, start.Before(end))

	_, _, err = ParseRange("yesterday", "2025-03-31")
	assert.ErrorIs(t, err, model.ErrValidation)
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "startDate", ve.Field)

	_, _, err = ParseRange("2025-03-01", "31/03/2025")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "endDate", ve.Field)

	// Inverted ranges parse fine and summarize to nothing.
	start, end, err = ParseRange("2025-04-01", "2025-03-01")
	require.NoError(t, err)
	assert.Zero(t, Summarize([]model.Transaction{income("5", "Gift", day(15))}, start, end).Count)
}

package id

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatTransactionID returns a transaction ID like "2025-01-001" for the
// month of date and the given sequence number.
func FormatTransactionID(date time.Time, seq int) string {
	return fmt.Sprintf("%04d-%02d-%03d", date.Year(), int(date.Month()), seq)
}

// ParseTransactionID parses "2025-01-001" into year, month, seq.
func ParseTransactionID(id string) (year, month, seq int, err error) {
	parts := strings.SplitN(id, "-", 3)
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid transaction ID format: %q", id)
	}

	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid year in transaction ID %q: %w", id, err)
	}

	month, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid month in transaction ID %q: %w", id, err)
	}
	if month < 1 || month > 12 {
		return 0, 0, 0, fmt.Errorf("invalid month in transaction ID %q", id)
	}

	seq, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid sequence in transaction ID %q: %w", id, err)
	}

	return year, month, seq, nil
}

// MonthPrefix returns the "YYYY-MM-" prefix shared by IDs minted for date.
func MonthPrefix(date time.Time) string {
	return fmt.Sprintf("%04d-%02d-", date.Year(), int(date.Month()))
}

// NextSeq returns the next free sequence number for the month of date, given
// every existing ID. IDs that do not parse are ignored. The month comes from
// the ID, not the current transaction date, since dates are editable and IDs
// are not.
func NextSeq(existing []string, date time.Time) int {
	maxSeq := 0
	for _, s := range existing {
		year, month, seq, err := ParseTransactionID(s)
		if err != nil {
			continue
		}
		if year != date.Year() || month != int(date.Month()) {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq + 1
}

// MonthKey returns the "YYYY-MM" month an ID minted for date belongs to.
func MonthKey(date time.Time) string {
	return fmt.Sprintf("%04d-%02d", date.Year(), int(date.Month()))
}

// Sequences holds the highest sequence ever minted per month key. Deleting
// the newest transaction of a month does not lower it, so its ID is never
// handed out again.
type Sequences map[string]int

// Mint returns the next ID for the month of date and records its sequence.
// existing covers IDs minted before the month had a recorded high-water mark.
func (s Sequences) Mint(date time.Time, existing []string) string {
	key := MonthKey(date)
	seq := max(NextSeq(existing, date), s[key]+1)
	s[key] = seq
	return FormatTransactionID(date, seq)
}

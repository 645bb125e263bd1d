package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/ghuser/bookcirc/services/circulation/domain"
)

// dueDateLayouts are tried in order. ISO forms first, then day-month-year.
var dueDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02/01/2006",
	"02.01.2006",
	"02-01-2006",
	"2/1/2006",
	"2.1.2006",
}

// Day truncates t to midnight UTC of its calendar date. Due dates are
// day-granular; loan and return timestamps are compared through Day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts whole calendar days from a to b (negative when b is earlier).
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// ParseDueDate accepts an ISO date, an RFC 3339 timestamp or a
// day-month-year date separated by '/', '.' or '-'.
func ParseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty due date", domain.ErrInvalidDate)
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			// keep the calendar date as written, whatever its offset
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", domain.ErrInvalidDate, s)
}

// FormatDate renders a due date the way API responses carry it.
func FormatDate(t time.Time) string {
	return Day(t).Format("2006-01-02")
}

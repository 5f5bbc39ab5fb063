// Package datetime provides date and time utility functions.
package datetime

import (
	"time"

	"github.com/iwvelando/finance-planner/pkg/constants"
)

const (
	// DateLayout is the format expected in data files and is also the output
	// date format.
	DateLayout = constants.DateLayout

	// MonthLayout is used for month-granular labels such as projections.
	MonthLayout = "2006-01"
)

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// Parse parses a date in DateLayout.
func Parse(date string) (time.Time, error) {
	return time.Parse(DateLayout, date)
}

// Format renders t in DateLayout, or an empty string for the zero time.
func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// AddMonths offsets t by the given number of months, clamping the day to the
// last day of the target month so that Jan 31 + 1 month is Feb 28/29 rather
// than early March.
func AddMonths(t time.Time, months int) time.Time {
	if t.IsZero() {
		return t
	}
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	day := t.Day()
	if last := daysIn(first); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, t.Location())
}

// OffsetDate returns the string-formatted date offset by the given number of
// months relative to the given date.
func OffsetDate(date, layout string, months int) (string, error) {
	t, err := time.Parse(layout, date)
	if err != nil {
		return date, err
	}
	return AddMonths(t, months).Format(layout), nil
}

// MonthsBetween returns the number of whole calendar months from a to b,
// negative when b is before a.
func MonthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*constants.MonthsPerYear + int(b.Month()) - int(a.Month())
}

// DateBeforeDate returns true if firstDate is strictly before secondDate.
func DateBeforeDate(firstDate string, secondDate string) (bool, error) {
	firstDateT, err := Parse(firstDate)
	if err != nil {
		return false, err
	}
	secondDateT, err := Parse(secondDate)
	if err != nil {
		return false, err
	}
	return firstDateT.Before(secondDateT), nil
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// Package cells converts raw spreadsheet cell values into typed values.
//
// Every cell read from a grid passes through Coerce before any business logic
// consumes it, so the rest of the pipeline only ever sees one of four kinds:
// empty, text, number or date. Spreadsheet exports mix native date cells,
// date-formatted strings and Excel serial numbers for the same logical field;
// the coercion layer absorbs all of that here.
package cells

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind tags the coerced type of a cell.
type Kind int

const (
	KindEmpty Kind = iota
	KindText
	KindNumber
	KindDate
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

// Cell is a tagged cell value. Text always holds the trimmed raw value so
// consumers that want the original string never lose it.
type Cell struct {
	Kind   Kind
	Text   string
	Number decimal.Decimal
	Date   time.Time
}

// dateFormats lists the date renderings seen across export iterations. Order
// matters: ISO first, then the day-first forms the source system emits.
var dateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"01-02-06",
	"2006/01/02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"Jan 2, 2006",
}

// excelEpoch is the zero day of the 1900 date system (accounting for the
// historical leap-year bug, day 1 is 1899-12-31).
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// Coerce converts a raw cell string into a tagged Cell. Dates are recognized
// before numbers so "02/01/2026" does not degrade to text, while bare
// numerics stay numbers (AsDate interprets plausible serials on demand).
func Coerce(raw string) Cell {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Cell{Kind: KindEmpty}
	}
	if d, err := ParseDate(trimmed); err == nil {
		return Cell{Kind: KindDate, Text: trimmed, Date: d}
	}
	if n, err := ParseAmount(trimmed); err == nil {
		return Cell{Kind: KindNumber, Text: trimmed, Number: n}
	}
	return Cell{Kind: KindText, Text: trimmed}
}

// IsEmpty reports whether the cell held no value.
func (c Cell) IsEmpty() bool {
	return c.Kind == KindEmpty
}

// String returns the trimmed raw text of the cell.
func (c Cell) String() string {
	return c.Text
}

// AsAmount returns the cell as a decimal amount.
func (c Cell) AsAmount() (decimal.Decimal, error) {
	switch c.Kind {
	case KindNumber:
		return c.Number, nil
	case KindText:
		return ParseAmount(c.Text)
	case KindDate:
		return decimal.Zero, fmt.Errorf("cell holds a date, not an amount")
	default:
		return decimal.Zero, fmt.Errorf("cell is empty")
	}
}

// AsDate returns the cell as a calendar date. Number cells are interpreted as
// Excel serial dates when they fall in a plausible range.
func (c Cell) AsDate() (time.Time, error) {
	switch c.Kind {
	case KindDate:
		return c.Date, nil
	case KindText:
		return ParseDate(c.Text)
	case KindNumber:
		serial := c.Number.IntPart()
		if serial < 20000 || serial > 80000 {
			return time.Time{}, fmt.Errorf("number %s is not a plausible date serial", c.Number)
		}
		return excelEpoch.AddDate(0, 0, int(serial)), nil
	default:
		return time.Time{}, fmt.Errorf("cell is empty")
	}
}

// ParseAmount parses a decimal amount, stripping currency symbols and
// thousand separators the exports are known to carry.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	s = strings.ReplaceAll(s, "€", "")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// ParseDate parses a calendar date from one of the known renderings.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	var lastErr error
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date %q: %w", s, lastErr)
}

// Midnight truncates t to midnight in its own location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Today returns the current day at local midnight; overdue comparisons are
// made against this boundary.
func Today() time.Time {
	return Midnight(time.Now())
}

// DaysBetween returns the signed number of calendar days from a to b. The
// comparison is by the calendar date each value names, never by instant:
// parsed due dates carry UTC while Today carries the local zone, and diffing
// the instants directly would shift every boundary by the zone offset.
func DaysBetween(a, b time.Time) int {
	return dayNumber(b) - dayNumber(a)
}

// dayNumber maps a value's calendar date to a location-independent day count.
func dayNumber(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// IsPast reports whether due falls strictly before the reference day. A due
// date equal to the reference day is not past, whatever locations the two
// values carry.
func IsPast(due, today time.Time) bool {
	return DaysBetween(due, today) > 0
}

// DaysPast returns the whole days between due and the reference day, or 0
// when due is not past.
func DaysPast(due, today time.Time) int {
	if diff := DaysBetween(due, today); diff > 0 {
		return diff
	}
	return 0
}

// Package caldate provides a time-free calendar date and the month
// arithmetic used by the calendar grid and page navigation.
package caldate

import (
	"errors"
	"fmt"
	"time"
)

// Layout is the canonical textual form of a Date.
const Layout = "2006-01-02"

var ErrInvalid = errors.New("caldate: invalid date")

// Date is a (year, month, day) triple with no time component.
// The zero value means "no date".
type Date struct {
	Year  int
	Month int
	Day   int
}

// New returns the Date for y-m-d, or ErrInvalid if the triple does not name
// a real day (e.g. 2025-02-30).
func New(y, m, d int) (Date, error) {
	if m < 1 || m > 12 || d < 1 || d > DaysIn(y, m) {
		return Date{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalid, y, m, d)
	}
	return Date{Year: y, Month: m, Day: d}, nil
}

// Parse parses a strict, zero-padded YYYY-MM-DD string.
func Parse(s string) (Date, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return FromTime(t), nil
}

// FromTime takes the calendar date of t in t's own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: int(m), Day: d}
}

// Today returns the current date in loc (time.Local when nil).
func Today(loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	return FromTime(time.Now().In(loc))
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// AddDays returns d shifted by n days, crossing month and year boundaries.
func (d Date) AddDays(n int) Date {
	return FromTime(d.Time().AddDate(0, 0, n))
}

// Compare returns -1, 0 or +1.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return sign(d.Year - o.Year)
	case d.Month != o.Month:
		return sign(d.Month - o.Month)
	default:
		return sign(d.Day - o.Day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// DaysIn returns the number of days in month m of year y.
func DaysIn(y, m int) int {
	// Day 0 of the following month is the last day of m.
	return time.Date(y, time.Month(m)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekday is the zero-based (Sunday=0) weekday of day 1 of y-m.
func FirstWeekday(y, m int) time.Weekday {
	return time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC).Weekday()
}

// MonthBounds returns the first and last day of y-m.
func MonthBounds(y, m int) (Date, Date) {
	return Date{Year: y, Month: m, Day: 1}, Date{Year: y, Month: m, Day: DaysIn(y, m)}
}

// PrevMonth steps one month back; January wraps to December of y-1.
func PrevMonth(y, m int) (int, int) {
	if m <= 1 {
		return y - 1, 12
	}
	return y, m - 1
}

// NextMonth steps one month forward; December wraps to January of y+1.
func NextMonth(y, m int) (int, int) {
	if m >= 12 {
		return y + 1, 1
	}
	return y, m + 1
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

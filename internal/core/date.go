package core

import (
	"time"
)

// Date is a naive calendar date: a time.Time pinned to midnight UTC.
// The ledger has no timezone handling; every date that enters the system
// is normalized through NewDate or ParseDate.
type Date struct {
	time.Time
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Today returns the current calendar date.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

// Equal reports whether d and other are the same calendar date.
func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}

// IsEmpty returns true for the zero Date, used for optional dates.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// String returns the date in YYYY-MM-DD form.
func (d Date) String() string {
	return d.Time.Format("2006-01-02")
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// SundayOnOrBefore returns the closest Sunday that is not after d.
func SundayOnOrBefore(d Date) Date {
	return d.AddDays(-int(d.Time.Weekday()))
}

// SaturdayOnOrAfter returns the closest Saturday that is not before d.
func SaturdayOnOrAfter(d Date) Date {
	return d.AddDays(int(time.Saturday) - int(d.Time.Weekday()))
}

package pricing

import (
	"fmt"
	"strings"
	"time"
)

// ISODateLayout is the wire format for stay dates.
const ISODateLayout = "2006-01-02"

// Date is a civil calendar date with no time of day and no zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a YYYY-MM-DD string. A trailing time component
// ("2025-03-01T00:00:00Z") is ignored so values echoed back by the backend
// still parse.
func ParseDate(raw string) (Date, error) {
	raw = strings.TrimSpace(raw)
	if idx := strings.IndexByte(raw, 'T'); idx != -1 {
		raw = raw[:idx]
	}
	t, err := time.Parse(ISODateLayout, raw)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// midnight anchors the date at UTC midnight. UTC has no DST transitions, so
// differences between two anchored dates are always whole days.
func (d Date) midnight() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date n calendar days after d (before, when n < 0).
func (d Date) AddDays(n int) Date {
	return DateOf(d.midnight().AddDate(0, 0, n))
}

func (d Date) Before(other Date) bool { return d.midnight().Before(other.midnight()) }

func (d Date) After(other Date) bool { return d.midnight().After(other.midnight()) }

func (d Date) Equal(other Date) bool { return d == other }

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.midnight().Format(ISODateLayout)
}

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Nights counts the nights between check-in and check-out as the ceiling of
// the day difference. It is 0 when checkOut is not after checkIn.
func Nights(checkIn, checkOut Date) int {
	diff := checkOut.midnight().Sub(checkIn.midnight())
	if diff <= 0 {
		return 0
	}
	nights := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) != 0 {
		nights++
	}
	return nights
}

// NextDayISO returns the calendar day after dateISO. Input that does not
// parse is returned unchanged so a half-typed form field is left alone.
func NextDayISO(dateISO string) string {
	d, err := ParseDate(dateISO)
	if err != nil {
		return dateISO
	}
	return d.AddDays(1).String()
}

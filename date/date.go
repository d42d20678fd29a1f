// Package date provides a day-granular Date type with explicit UTC semantics,
// calendar ranges and periods, chronological value series, and the B3-style
// business-day arithmetic used to annualize fixed-income rates.
package date

import (
	"encoding/json"
	"fmt"
	"time"
)

// Format is the canonical ISO-8601 representation of a Date.
const Format = "2006-01-02"

// readFormat is permissive on read to accept single-digit month/day.
const readFormat = "2006-1-2"

// Date represents a calendar day. The zero value is the zero date.
type Date struct {
	y int
	m time.Month
	d int
}

// New returns a normalized Date for the given year, month and day.
// Out-of-range values are carried over, so New(2025, 13, 0) is 2025-12-31.
func New(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.time().Date()
	return d
}

// FromTime returns the Date of t, interpreted in UTC.
func FromTime(t time.Time) Date { return New(t.UTC().Date()) }

// Today returns the current date in UTC.
func Today() Date { return FromTime(time.Now()) }

// time is the canonical time.Time for the day: midnight UTC.
func (d Date) time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

func (d Date) Year() int         { return d.y }
func (d Date) Month() time.Month { return d.time().Month() }
func (d Date) Day() int          { return d.d }

func (d Date) Weekday() time.Weekday { return d.time().Weekday() }

// IsZero reports whether d is the zero date.
func (d Date) IsZero() bool { return d.y == 0 && d.m == 0 && d.d == 0 }

func (d Date) Before(x Date) bool { return d.time().Before(x.time()) }
func (d Date) After(x Date) bool  { return d.time().After(x.time()) }

// Compare returns -1, 0 or +1 depending on whether d is before, equal to, or
// after x. It is suitable for slices.BinarySearchFunc.
func (d Date) Compare(x Date) int {
	switch {
	case d.Before(x):
		return -1
	case d.After(x):
		return +1
	default:
		return 0
	}
}

// Add returns the date i days after d (before, for negative i).
func (d Date) Add(i int) Date { return New(d.y, d.m, d.d+i) }

// AddMonths returns the date i months after d, normalized.
func (d Date) AddMonths(i int) Date { return New(d.y, d.m+time.Month(i), d.d) }

// Sub returns the number of calendar days from x to d.
func (d Date) Sub(x Date) int { return int(d.time().Sub(x.time()) / (24 * time.Hour)) }

// StartOfMonth returns the first day of d's month.
func (d Date) StartOfMonth() Date { return New(d.y, d.Month(), 1) }

// EndOfMonth returns the last day of d's month.
func (d Date) EndOfMonth() Date { return New(d.y, d.Month()+1, 0) }

// YearMonth returns the year-month competence of d.
func (d Date) YearMonth() YearMonth { return YearMonth{Year: d.y, Month: d.Month()} }

// String formats the date as ISO-8601.
func (d Date) String() string { return d.time().Format(Format) }

// Format returns the date formatted according to a time layout.
func (d Date) Format(layout string) string { return d.time().Format(layout) }

// Parse reads a date in ISO-8601, accepting single-digit month and day.
func Parse(str string) (Date, error) {
	t, err := time.Parse(readFormat, str)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, want format %q: %w", str, Format, err)
	}
	return New(t.Date()), nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(str string) Date {
	d, err := Parse(str)
	if err != nil {
		panic(err.Error())
	}
	return d
}

func (d Date) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *Date) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	parsed, err := Parse(str)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// YearMonth identifies a month of a year, the competence key for monthly
// series (IPCA rates, monthly returns).
type YearMonth struct {
	Year  int
	Month time.Month
}

// First returns the first day of the month.
func (ym YearMonth) First() Date { return New(ym.Year, ym.Month, 1) }

// Last returns the last day of the month.
func (ym YearMonth) Last() Date { return New(ym.Year, ym.Month+1, 0) }

// Next returns the following month.
func (ym YearMonth) Next() YearMonth { return ym.First().AddMonths(1).YearMonth() }

// Before reports whether ym is strictly before x.
func (ym YearMonth) Before(x YearMonth) bool {
	return ym.Year < x.Year || (ym.Year == x.Year && ym.Month < x.Month)
}

// String formats the competence as "2006-01".
func (ym YearMonth) String() string { return ym.First().Format("2006-01") }

package date

import "time"

// IsBusinessDay reports whether d is a weekday. Exchange holidays are not
// tracked here: market series simply have no point on a holiday and lookups
// use on-or-before semantics, so the weekday approximation only matters for
// day counting, where the DU/252 convention absorbs it.
func (d Date) IsBusinessDay() bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// NextBusinessDay returns d if it is a business day, else the next one.
func (d Date) NextBusinessDay() Date {
	for !d.IsBusinessDay() {
		d = d.Add(1)
	}
	return d
}

// BusinessDaysBetween counts the business days in (from, to]. It returns 0
// for an empty or inverted interval. This is the day count used with a 252
// basis to annualize pre-fixed rates.
func BusinessDaysBetween(from, to Date) int {
	if !to.After(from) {
		return 0
	}
	n := 0
	for d := from.Add(1); !d.After(to); d = d.Add(1) {
		if d.IsBusinessDay() {
			n++
		}
	}
	return n
}

// LastBusinessDay returns the last business day of the given month.
func LastBusinessDay(year int, month time.Month) Date {
	d := New(year, month+1, 0)
	for !d.IsBusinessDay() {
		d = d.Add(-1)
	}
	return d
}

// SemiannualTaxDates returns the come-cotas withholding dates in (from, to]:
// the last business day of May and of November of each covered year.
func SemiannualTaxDates(from, to Date) []Date {
	var dates []Date
	for year := from.Year(); year <= to.Year(); year++ {
		for _, month := range []time.Month{time.May, time.November} {
			d := LastBusinessDay(year, month)
			if d.After(from) && !d.After(to) {
				dates = append(dates, d)
			}
		}
	}
	return dates
}

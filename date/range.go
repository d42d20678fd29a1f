package date

import "iter"

// Range is an inclusive range of dates.
type Range struct{ From, To Date }

// NewRange returns the range [from, to], swapping the bounds if inverted.
func NewRange(from, to Date) Range {
	if from.After(to) {
		from, to = to, from
	}
	return Range{From: from, To: to}
}

// Contains reports whether day falls within the range, boundaries included.
func (r Range) Contains(day Date) bool { return !day.Before(r.From) && !day.After(r.To) }

// IsEmpty reports whether the range covers no day (zero or inverted bounds).
func (r Range) IsEmpty() bool { return r.From.IsZero() || r.To.IsZero() || r.From.After(r.To) }

// Days iterates over every calendar day of the range, inclusive.
func (r Range) Days() iter.Seq[Date] {
	return func(yield func(Date) bool) {
		for d := r.From; !d.After(r.To); d = d.Add(1) {
			if !yield(d) {
				return
			}
		}
	}
}

// Months iterates over the year-month competences touched by the range.
func (r Range) Months() iter.Seq[YearMonth] {
	return func(yield func(YearMonth) bool) {
		last := r.To.YearMonth()
		for ym := r.From.YearMonth(); !last.Before(ym); ym = ym.Next() {
			if !yield(ym) {
				return
			}
		}
	}
}

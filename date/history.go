package date

import (
	"iter"
	"slices"
)

// History stores a chronological series of values keyed by date. Dates are
// unique and the series is kept sorted on insert, so lookups can binary
// search. Appending an existing date overwrites its value, which makes a
// refresh an idempotent upsert.
type History[T any] struct {
	days   []Date
	values []T
}

// Len returns the number of points in the history.
func (h *History[T]) Len() int { return len(h.days) }

// Append upserts a point. A new date is inserted in chronological position;
// an existing date has its value replaced.
func (h *History[T]) Append(on Date, v T) *History[T] {
	i, found := slices.BinarySearchFunc(h.days, on, Date.Compare)
	if found {
		h.values[i] = v
		return h
	}
	h.days = slices.Insert(h.days, i, on)
	h.values = slices.Insert(h.values, i, v)
	return h
}

// Get returns the value exactly at day.
func (h *History[T]) Get(day Date) (T, bool) {
	i, found := slices.BinarySearchFunc(h.days, day, Date.Compare)
	if !found {
		var zero T
		return zero, false
	}
	return h.values[i], true
}

// ValueAsOf returns the value at day, or the most recent value before it.
func (h *History[T]) ValueAsOf(day Date) (T, bool) {
	i, found := slices.BinarySearchFunc(h.days, day, Date.Compare)
	if found {
		return h.values[i], true
	}
	if i == 0 {
		var zero T
		return zero, false
	}
	return h.values[i-1], true
}

// ValueAtOrAfter returns the value at day, or the earliest value after it.
func (h *History[T]) ValueAtOrAfter(day Date) (T, bool) {
	i, found := slices.BinarySearchFunc(h.days, day, Date.Compare)
	if found {
		return h.values[i], true
	}
	if i >= len(h.days) {
		var zero T
		return zero, false
	}
	return h.values[i], true
}

// First returns the earliest point of the history, or zero values if empty.
func (h *History[T]) First() (Date, T) {
	if len(h.days) == 0 {
		var zero T
		return Date{}, zero
	}
	return h.days[0], h.values[0]
}

// Latest returns the most recent point of the history, or zero values if empty.
func (h *History[T]) Latest() (Date, T) {
	if len(h.days) == 0 {
		var zero T
		return Date{}, zero
	}
	last := len(h.days) - 1
	return h.days[last], h.values[last]
}

// Values iterates over all points in chronological order.
func (h *History[T]) Values() iter.Seq2[Date, T] {
	return func(yield func(Date, T) bool) {
		for i, on := range h.days {
			if !yield(on, h.values[i]) {
				return
			}
		}
	}
}

// Between iterates over the points with from < day <= to, in order.
func (h *History[T]) Between(from, to Date) iter.Seq2[Date, T] {
	return func(yield func(Date, T) bool) {
		for i, on := range h.days {
			if !on.After(from) {
				continue
			}
			if on.After(to) {
				return
			}
			if !yield(on, h.values[i]) {
				return
			}
		}
	}
}

// Days iterates over the dates of the history in chronological order.
func (h *History[T]) Days() iter.Seq[Date] {
	return func(yield func(Date) bool) {
		for _, on := range h.days {
			if !yield(on) {
				return
			}
		}
	}
}

package date

import (
	"iter"
	"slices"
)

// History stores a chronological series of values, each associated with a specific date.
// It ensures that dates are unique and the series is always sorted.
type History[T float32 | float64 | string] struct {
	days   []Date
	values []T
}

// Latest returns the latest date and value in the history.
// If the history is empty, it returns zero value.
func (h *History[T]) Latest() (day Date, value T) {
	last := len(h.days) - 1
	if last < 0 {
		return Date{}, *new(T) // return zero value of T
	}
	return h.days[last], h.values[last]
}

// First returns the earliest date and value in the history.
func (h *History[T]) First() (day Date, value T) {
	if len(h.days) == 0 {
		return Date{}, *new(T)
	}
	return h.days[0], h.values[0]
}

// Len returns the number of items in the history.
func (h *History[T]) Len() int { return len(h.days) }

// search returns the position of day in the history, and whether it is present.
func (h *History[T]) search(day Date) (int, bool) {
	return slices.BinarySearchFunc(h.days, day, Date.Compare)
}

// Append adds a point to the history.
//
// Existing value at that date are overwritten.
func (h *History[T]) Append(on Date, q T) *History[T] {
	i, found := h.search(on)
	if found {
		// We choose to replace, because it will give higher priority to the last data
		h.values[i] = q
		return h
	}
	h.days = slices.Insert(h.days, i, on)
	h.values = slices.Insert(h.values, i, q)
	return h
}

// Delete removes the point at 'on' and reports whether there was one.
func (h *History[T]) Delete(on Date) bool {
	i, found := h.search(on)
	if !found {
		return false
	}
	h.days = slices.Delete(h.days, i, i+1)
	h.values = slices.Delete(h.values, i, i+1)
	return true
}

// Values returns an iterator over all date/value pairs in the history, in chronological order.
func (h *History[T]) Values() iter.Seq2[Date, T] {
	return func(yield func(Date, T) bool) {
		for i, on := range h.days {
			if !yield(on, h.values[i]) {
				return
			}
		}
	}
}

// Between returns an iterator over the date/value pairs within r, in chronological order.
func (h *History[T]) Between(r Range) iter.Seq2[Date, T] {
	return func(yield func(Date, T) bool) {
		i, _ := h.search(r.From)
		for ; i < len(h.days) && !h.days[i].After(r.To); i++ {
			if !yield(h.days[i], h.values[i]) {
				return
			}
		}
	}
}

// Get returns the value at 'day' and true or zero value and false.
func (h *History[T]) Get(day Date) (T, bool) {
	if i, found := h.search(day); found {
		return h.values[i], true
	}
	var zero T
	return zero, false
}

// ValueAsOf returns the value on a given day, or the most recent value before it.
// It returns the value and true if found, otherwise it returns the zero value and false.
func (h *History[T]) ValueAsOf(day Date) (T, bool) {
	_, v, ok := h.PointAsOf(day)
	return v, ok
}

// PointAsOf is like ValueAsOf but also returns the date of the value found.
func (h *History[T]) PointAsOf(day Date) (Date, T, bool) {
	i, found := h.search(day)
	if found {
		return h.days[i], h.values[i], true
	}
	// Not found. `i` is the index where `day` would be inserted.
	// The value we want is at `i-1`, which is the last entry before the target date.
	if i == 0 {
		var zero T
		return Date{}, zero, false // No date on or before the given day.
	}
	return h.days[i-1], h.values[i-1], true
}

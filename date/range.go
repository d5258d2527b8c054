package date

import "iter"

// Range represents a range of dates.
type Range struct{ From, To Date }

// NewRange creates a new date range. If 'from' is after 'to', they are swapped.
func NewRange(from, to Date) Range {
	if from.After(to) {
		from, to = to, from
	}
	return Range{From: from, To: to}
}

// Contains return true date is included in the range (boundaries included)
func (r Range) Contains(date Date) bool { return (!date.Before(r.From) && !date.After(r.To)) }

// Len returns the number of days in the range, boundaries included.
func (r Range) Len() int {
	if r.To.Before(r.From) {
		return 0
	}
	return r.To.Sub(r.From) + 1
}

func (r Range) String() string { return r.From.String() + ".." + r.To.String() }

// Days returns an iterator that yields each date within the range, inclusive.
func (r Range) Days() iter.Seq[Date] {
	return func(yield func(Date) bool) {
		for d := r.From; !d.After(r.To); d = d.Add(1) {
			if !yield(d) {
				return
			}
		}
	}
}

// Chunks splits the range into consecutive sub-ranges of at most n days.
func (r Range) Chunks(n int) iter.Seq[Range] {
	if n < 1 {
		n = 1
	}
	return func(yield func(Range) bool) {
		for from := r.From; !from.After(r.To); {
			to := from.Add(n - 1)
			if to.After(r.To) {
				to = r.To
			}
			if !yield(Range{From: from, To: to}) {
				return
			}
			from = to.Add(1)
		}
	}
}

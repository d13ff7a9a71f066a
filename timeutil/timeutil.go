// Package timeutil provides the date and time helpers shared across the
// toolchain. All timestamps handled by toolchain code are UTC; the
// helpers here make that cheap to maintain.
package timeutil

import "time"

// UTC normalizes a timestamp to UTC.
func UTC(t time.Time) time.Time { return t.UTC() }

// NowUTC returns the current time in UTC.
func NowUTC() time.Time { return time.Now().UTC() }

// DateRange iterates timestamps from start towards stop in increments of
// step, the date analog of a numeric range. The direction follows the
// ordering of start and stop; start is always yielded first and stop is
// exclusive. A non-positive step yields only start.
type DateRange struct {
	next    time.Time
	stop    time.Time
	step    time.Duration
	forward bool
	first   bool
	done    bool
}

// NewDateRange creates an iterator over [start, stop) with the given
// step. When start is after stop the iteration runs backwards.
func NewDateRange(start, stop time.Time, step time.Duration) *DateRange {
	return &DateRange{
		next:    start,
		stop:    stop,
		step:    step,
		forward: start.Before(stop),
		first:   true,
	}
}

// Next returns the following timestamp of the range, and false once the
// range is exhausted.
func (r *DateRange) Next() (time.Time, bool) {
	if r.done {
		return time.Time{}, false
	}
	current := r.next
	if r.first {
		r.first = false
	} else if r.forward && !current.Before(r.stop) {
		r.done = true
		return time.Time{}, false
	} else if !r.forward && !current.After(r.stop) {
		r.done = true
		return time.Time{}, false
	}

	if r.step <= 0 {
		r.done = true
		return current, true
	}
	if r.forward {
		r.next = current.Add(r.step)
	} else {
		r.next = current.Add(-r.step)
	}
	return current, true
}

// Collect drains the range into a slice. Intended for short ranges and
// tests; long ranges should be consumed through Next.
func (r *DateRange) Collect() []time.Time {
	var out []time.Time
	for t, ok := r.Next(); ok; t, ok = r.Next() {
		out = append(out, t)
	}
	return out
}

// Pair couples an element with its predecessor. Prev is the zero value
// and HasPrev false for the first element of a sequence.
type Pair[T any] struct {
	Prev    T
	Value   T
	HasPrev bool
}

// Pairs returns each element of values together with its predecessor.
func Pairs[T any](values []T) []Pair[T] {
	out := make([]Pair[T], len(values))
	for i, v := range values {
		out[i] = Pair[T]{Value: v}
		if i > 0 {
			out[i].Prev = values[i-1]
			out[i].HasPrev = true
		}
	}
	return out
}

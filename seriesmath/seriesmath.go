// Package seriesmath implements the sample transforms shared by the
// analysis projects: discrete differentiation and exponential smoothing
// over ordered, timestamped samples.
//
// Samples carry named float fields; a missing map entry means the sensor
// produced no value for that field. Transforms write their result into a
// derived field (by default the input field with a "_diff" or "_smooth"
// suffix) so the raw reading stays available.
package seriesmath

import "time"

// Sample is one timestamped row of sensor readings.
type Sample struct {
	Stamp  time.Time
	Fields map[string]float64
}

// Get returns a field value and whether it is present.
func (s *Sample) Get(field string) (float64, bool) {
	if s == nil || s.Fields == nil {
		return 0, false
	}
	v, ok := s.Fields[field]
	return v, ok
}

// Set stores a field value, allocating the field map when needed.
func (s *Sample) Set(field string, v float64) {
	if s.Fields == nil {
		s.Fields = make(map[string]float64)
	}
	s.Fields[field] = v
}

func (s *Sample) unset(field string) {
	if s.Fields != nil {
		delete(s.Fields, field)
	}
}

// DiffOptions tunes Differentiate.
type DiffOptions struct {
	// OutField receives the derivative; defaults to field + "_diff".
	OutField string
	// Unit is the time base of the derivative (per second, per hour, ...).
	// Defaults to one second.
	Unit time.Duration
}

// Differentiate writes the discrete derivative of field into every
// sample: the value delta divided by the timestamp delta expressed in
// Unit. The first sample, and any sample whose own or preceding value is
// missing, gets 0.
func Differentiate(samples []Sample, field string, opts DiffOptions) {
	out := opts.OutField
	if out == "" {
		out = field + "_diff"
	}
	unit := opts.Unit
	if unit <= 0 {
		unit = time.Second
	}

	var prev *Sample
	for i := range samples {
		cur := &samples[i]
		curVal, curOK := cur.Get(field)
		prevVal, prevOK := prev.Get(field)

		elapsed := time.Duration(0)
		if prev != nil {
			elapsed = cur.Stamp.Sub(prev.Stamp)
		}
		if !curOK || !prevOK || elapsed == 0 {
			cur.Set(out, 0)
		} else {
			cur.Set(out, (curVal-prevVal)/(float64(elapsed)/float64(unit)))
		}
		prev = cur
	}
}

// Fallback supplies a substitute smoothed value when a sample cannot be
// smoothed. Returning ok=false leaves the output field unset.
type Fallback func(cur, prev *Sample, field, outField string) (float64, bool)

// Always returns a Fallback yielding a fixed value.
func Always(v float64) Fallback {
	return func(_, _ *Sample, _, _ string) (float64, bool) { return v, true }
}

// CarryForward reuses the previous smoothed value, falling back to the
// previous raw value, and leaves the field unset when neither exists.
func CarryForward(cur, prev *Sample, field, outField string) (float64, bool) {
	if v, ok := prev.Get(outField); ok {
		return v, true
	}
	if v, ok := prev.Get(field); ok {
		return v, true
	}
	return 0, false
}

// SmoothOptions tunes Smooth and SmoothOne.
type SmoothOptions struct {
	// Alpha is the smoothing factor; defaults to 0.95.
	Alpha float64
	// OutField receives the smoothed value; defaults to field + "_smooth".
	OutField string
	// IsValid, when set, vetoes smoothing for a sample even if its raw
	// value is present (e.g. to reset after long gaps).
	IsValid func(cur, prev *Sample, field string) bool
	// Fallback supplies the output when the sample cannot be smoothed.
	// Nil leaves the output field unset in that case.
	Fallback Fallback
}

func (o SmoothOptions) alpha() float64 {
	if o.Alpha == 0 {
		return 0.95
	}
	return o.Alpha
}

func (o SmoothOptions) outField(field string) string {
	if o.OutField == "" {
		return field + "_smooth"
	}
	return o.OutField
}

// Smooth applies exponential smoothing over the samples:
//
//	out[n] = alpha*out[n-1] + (1-alpha)*field[n]
//
// The first smoothable value seeds the series. Samples with a missing or
// invalid value fall back to Fallback.
func Smooth(samples []Sample, field string, opts SmoothOptions) {
	var prev *Sample
	for i := range samples {
		SmoothOne(&samples[i], prev, field, opts)
		prev = &samples[i]
	}
}

// SmoothOne smooths a single sample against its predecessor, for callers
// that maintain their own window over a stream.
func SmoothOne(cur, prev *Sample, field string, opts SmoothOptions) {
	out := opts.outField(field)

	curVal, curOK := cur.Get(field)
	if !curOK || (opts.IsValid != nil && !opts.IsValid(cur, prev, field)) {
		if opts.Fallback != nil {
			if v, ok := opts.Fallback(cur, prev, field, out); ok {
				cur.Set(out, v)
				return
			}
		}
		cur.unset(out)
		return
	}

	prevSmooth, prevOK := prev.Get(out)
	if !prevOK {
		// First sensible value of the series seeds the smoothing.
		cur.Set(out, curVal)
		return
	}
	alpha := opts.alpha()
	cur.Set(out, alpha*prevSmooth+(1-alpha)*curVal)
}

// ResetStale returns an IsValid predicate that rejects smoothing when
// the gap between consecutive samples exceeds maxDelay, so a series
// restarts cleanly after an outage. A sample without a predecessor is
// rejected as well; the following sample seeds the fresh series.
func ResetStale(maxDelay time.Duration) func(cur, prev *Sample, field string) bool {
	return func(cur, prev *Sample, _ string) bool {
		if prev == nil {
			return false
		}
		gap := cur.Stamp.Sub(prev.Stamp)
		if gap < 0 {
			gap = -gap
		}
		return gap < maxDelay
	}
}

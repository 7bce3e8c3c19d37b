package agent

import "math"

// Policy holds the static bounds applied to every chat request. It is
// created once at startup from configuration and never mutated.
type Policy struct {
	MaxTopK           int
	MaxWindowDays     int
	DefaultTopK       int
	DefaultWindowDays int
}

// NewPolicy constructs a Policy, clamping defaults so they never exceed
// the maxima. Non-positive inputs fall back to 1.
func NewPolicy(maxTopK, defaultTopK, maxWindowDays, defaultWindowDays int) Policy {
	if maxTopK < 1 {
		maxTopK = 1
	}
	if maxWindowDays < 1 {
		maxWindowDays = 1
	}
	if defaultTopK < 1 {
		defaultTopK = 1
	}
	if defaultTopK > maxTopK {
		defaultTopK = maxTopK
	}
	if defaultWindowDays < 1 {
		defaultWindowDays = 1
	}
	if defaultWindowDays > maxWindowDays {
		defaultWindowDays = maxWindowDays
	}
	return Policy{
		MaxTopK:           maxTopK,
		MaxWindowDays:     maxWindowDays,
		DefaultTopK:       defaultTopK,
		DefaultWindowDays: defaultWindowDays,
	}
}

// ClampTopK resolves a raw top-K hint to an integer in [1, MaxTopK],
// falling back to the default when the hint is absent, non-finite or
// non-positive. Clamping an already-clamped value is a no-op.
func (p Policy) ClampTopK(hint *float64) int {
	return clampHint(hint, p.DefaultTopK, p.MaxTopK)
}

// ClampWindowDays resolves a raw window-length hint to an integer in
// [1, MaxWindowDays] with the same fallback rules as ClampTopK.
func (p Policy) ClampWindowDays(hint *float64) int {
	return clampHint(hint, p.DefaultWindowDays, p.MaxWindowDays)
}

func clampHint(hint *float64, def, max int) int {
	if hint == nil || math.IsNaN(*hint) || math.IsInf(*hint, 0) || *hint <= 0 {
		return def
	}
	// Compare before converting: huge finite floats overflow int.
	if *hint >= float64(max) {
		return max
	}
	v := int(*hint)
	if v < 1 {
		v = 1
	}
	return v
}

package agent

import (
	"math"
	"testing"
)

func f(v float64) *float64 { return &v }

func TestNewPolicyClampsDefaults(t *testing.T) {
	p := NewPolicy(10, 50, 30, 90)
	if p.DefaultTopK != 10 {
		t.Errorf("default top-k should be capped at max, got %d", p.DefaultTopK)
	}
	if p.DefaultWindowDays != 30 {
		t.Errorf("default window should be capped at max, got %d", p.DefaultWindowDays)
	}

	p = NewPolicy(0, 0, -3, 0)
	if p.MaxTopK != 1 || p.DefaultTopK != 1 || p.MaxWindowDays != 1 || p.DefaultWindowDays != 1 {
		t.Errorf("non-positive inputs should fall back to 1, got %+v", p)
	}
}

func TestClampTopK(t *testing.T) {
	p := NewPolicy(20, 5, 90, 7)

	if got := p.ClampTopK(nil); got != 5 {
		t.Errorf("nil hint: got %d, want default 5", got)
	}
	if got := p.ClampTopK(f(3)); got != 3 {
		t.Errorf("in-range hint: got %d, want 3", got)
	}
	if got := p.ClampTopK(f(500)); got != 20 {
		t.Errorf("oversized hint: got %d, want max 20", got)
	}
	if got := p.ClampTopK(f(-2)); got != 5 {
		t.Errorf("negative hint: got %d, want default 5", got)
	}
	if got := p.ClampTopK(f(0)); got != 5 {
		t.Errorf("zero hint: got %d, want default 5", got)
	}
	if got := p.ClampTopK(f(math.NaN())); got != 5 {
		t.Errorf("NaN hint: got %d, want default 5", got)
	}
	if got := p.ClampTopK(f(math.Inf(1))); got != 5 {
		t.Errorf("Inf hint: got %d, want default 5", got)
	}
	if got := p.ClampTopK(f(1e300)); got != 20 {
		t.Errorf("int-overflowing hint: got %d, want max 20", got)
	}
	if got := p.ClampTopK(f(7.9)); got != 7 {
		t.Errorf("fractional hint: got %d, want 7", got)
	}
}

func TestClampWindowDays(t *testing.T) {
	p := NewPolicy(20, 5, 90, 7)

	if got := p.ClampWindowDays(nil); got != 7 {
		t.Errorf("nil hint: got %d, want default 7", got)
	}
	if got := p.ClampWindowDays(f(30)); got != 30 {
		t.Errorf("in-range hint: got %d, want 30", got)
	}
	if got := p.ClampWindowDays(f(365)); got != 90 {
		t.Errorf("oversized hint: got %d, want max 90", got)
	}
}

func TestClampIsIdempotent(t *testing.T) {
	p := NewPolicy(20, 5, 90, 7)

	first := p.ClampTopK(f(500))
	again := float64(first)
	if got := p.ClampTopK(&again); got != first {
		t.Errorf("re-clamping changed the value: %d -> %d", first, got)
	}
}

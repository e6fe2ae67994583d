package dsp

import (
	"testing"
	"time"
)

func TestAutoRangePrimes(t *testing.T) {
	r := NewAutoRange()

	energies := make([]float32, 21)
	for i := range energies {
		energies[i] = float32(i) / 20
	}

	r.Update(energies, 16*time.Millisecond)

	if !(r.Min < r.Max) || r.Min < 0 || r.Max > 1 {
		t.Fatalf("window [%v, %v]", r.Min, r.Max)
	}

	if energies[0] != 0 || energies[20] != 1 {
		t.Fatalf("ends rescaled to %v and %v", energies[0], energies[20])
	}

	for i, v := range energies {
		if v < 0 || v > 1 {
			t.Fatalf("energy %d out of range: %v", i, v)
		}

		if i > 0 && v < energies[i-1] {
			t.Fatalf("rescale is not monotonic at %d", i)
		}
	}
}

func TestAutoRangeFollowsSlowly(t *testing.T) {
	r := NewAutoRange()

	flat := func(v float32) []float32 {
		buf := make([]float32, 16)
		for i := range buf {
			buf[i] = v
		}
		return buf
	}

	r.Update(flat(0.5), 16*time.Millisecond)

	primedMin := r.Min
	if primedMin < 0.47 || primedMin > 0.49 {
		t.Fatalf("primed min %v, want about 0.48", primedMin)
	}

	r.Update(flat(0.1), 16*time.Millisecond)

	if !(r.Min < primedMin && r.Min > 0.08) {
		t.Fatalf("min jumped to %v", r.Min)
	}

	if !(r.Min < r.Max) {
		t.Fatalf("window collapsed [%v, %v]", r.Min, r.Max)
	}

	r.Reset()
	if r.Min != 0 || r.Max != 1 {
		t.Fatalf("reset to [%v, %v]", r.Min, r.Max)
	}
}

func TestAutoRangeEmpty(t *testing.T) {
	r := NewAutoRange()
	r.Update(nil, time.Millisecond)

	if r.Min != 0 || r.Max != 1 {
		t.Fatalf("empty update moved the window to [%v, %v]", r.Min, r.Max)
	}
}

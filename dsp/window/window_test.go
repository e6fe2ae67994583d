package window

import (
	"math"
	"testing"
)

func TestHann(t *testing.T) {
	table := Hann(9)

	if table[0] != 0 || math.Abs(float64(table[8])) > 1e-7 {
		t.Fatalf("hann edges not zero: %v", table)
	}

	if math.Abs(float64(table[4])-1) > 1e-7 {
		t.Fatalf("hann center %v, want 1", table[4])
	}

	for i := 0; i < 4; i++ {
		if math.Abs(float64(table[i]-table[8-i])) > 1e-6 {
			t.Fatalf("hann not symmetric at %d: %v", i, table)
		}
	}
}

func TestWindowsSingle(t *testing.T) {
	for name, fn := range map[string]Function{
		"rectangle": Rectangle,
		"hann":      Hann,
		"hamming":   Hamming,
		"bartlett":  Bartlett,
	} {
		if table := fn(1); len(table) != 1 || table[0] != 1 {
			t.Errorf("%s(1) = %v", name, table)
		}
	}
}

func TestApply(t *testing.T) {
	src := []float32{1, 2, 3, 4}
	dst := make([]float32, 4)

	Apply(dst, src, []float32{0, 0.5, 1})

	want := []float32{0, 1, 3, 0}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("apply: got %v want %v", dst, want)
		}
	}
}

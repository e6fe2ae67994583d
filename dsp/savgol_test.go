package dsp

import (
	"math"
	"testing"
)

func TestSavitzkyGolayWeights(t *testing.T) {
	w, err := SavitzkyGolay(9, 3)
	if err != nil {
		t.Fatal(err)
	}

	if len(w) != 9 {
		t.Fatalf("got %d weights", len(w))
	}

	// tabulated coefficients for a 9 point cubic: (-21, 14, 39, 54, 59, ...)/231
	want := []float64{-21, 14, 39, 54, 59, 54, 39, 14, -21}

	sum := 0.0
	for i, v := range w {
		sum += float64(v)

		if math.Abs(float64(v)-want[i]/231) > 1e-5 {
			t.Fatalf("weight %d = %v, want %v", i, v, want[i]/231)
		}
	}

	if math.Abs(sum-1) > 1e-5 {
		t.Fatalf("weights sum to %v", sum)
	}
}

func TestSavitzkyGolayEvenWindow(t *testing.T) {
	w, err := SavitzkyGolay(4, 2)
	if err != nil {
		t.Fatal(err)
	}

	if len(w) != 5 {
		t.Fatalf("even window gave %d weights", len(w))
	}

	if _, err := SavitzkyGolay(1, 1); err == nil {
		t.Fatal("expected an error for a single point window")
	}
}

func TestConvolvePreservesCubic(t *testing.T) {
	w, err := SavitzkyGolay(9, 3)
	if err != nil {
		t.Fatal(err)
	}

	src := make([]float32, 32)
	for i := range src {
		x := float32(i) / 31
		src[i] = x*x*x - x*x + 0.25
	}

	dst := make([]float32, len(src))
	Convolve(dst, src, w)

	// away from the clamped edges a cubic passes through unchanged.
	for i := 4; i < len(src)-4; i++ {
		if math.Abs(float64(dst[i]-src[i])) > 1e-4 {
			t.Fatalf("sample %d: got %v, want %v", i, dst[i], src[i])
		}
	}
}

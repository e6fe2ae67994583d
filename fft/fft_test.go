package fft

import (
	"math"
	"math/cmplx"
	"testing"

	"gonum.org/v1/gonum/dsp/fourier"
)

func TestNewPlanRejectsSize(t *testing.T) {
	for _, size := range []int{0, 1, 3, 100, 1000} {
		if _, err := NewPlan(size); err == nil {
			t.Errorf("size %d: expected error", size)
		}
	}
}

func TestPlanMatchesGonum(t *testing.T) {
	for _, size := range []int{2, 8, 64, 1024} {
		plan, err := NewPlan(size)
		if err != nil {
			t.Fatal(err)
		}

		reals := generateReals(size)
		re := make([]float32, size)
		im := make([]float32, size)
		src := make([]complex128, size)

		for i, v := range reals {
			re[i] = float32(v)
			src[i] = complex(float64(float32(v)), 0)
		}

		plan.Execute(re, im)

		want := fourier.NewCmplxFFT(size).Coefficients(nil, src)

		for i := range want {
			got := complex(float64(re[i]), float64(im[i]))
			tol := 1e-3 * math.Max(1, cmplx.Abs(want[i]))
			if cmplx.Abs(got-want[i]) > tol {
				t.Fatalf("size %d bin %d: got %v want %v", size, i, got, want[i])
			}
		}
	}
}

func TestPlanSinePeak(t *testing.T) {
	const size = 256

	plan, err := NewPlan(size)
	if err != nil {
		t.Fatal(err)
	}

	re := make([]float32, size)
	im := make([]float32, size)

	for i := range re {
		re[i] = float32(math.Sin(2 * math.Pi * 10 * float64(i) / size))
	}

	plan.Execute(re, im)

	peak, peakIdx := 0.0, 0
	for k := 0; k < size/2; k++ {
		if p := float64(re[k]*re[k] + im[k]*im[k]); p > peak {
			peak, peakIdx = p, k
		}
	}

	if peakIdx != 10 {
		t.Fatalf("peak at bin %d, want 10", peakIdx)
	}
}

func Benchmark(b *testing.B) {
	plan, err := NewPlan(1024)
	if err != nil {
		b.Fatal(err)
	}

	reals := generateReals(1024)
	re := make([]float32, 1024)
	im := make([]float32, 1024)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		for idx, v := range reals {
			re[idx] = float32(v)
			im[idx] = 0
		}
		plan.Execute(re, im)
	}
}

// Adapted from https://github.com/project-gemmi/benchmarking-fft/blob/master/1d-r.cpp
func generateReals(n int) []float64 {
	input := make([]float64, n)

	c := 3.1
	for i := range input {
		c += 0.3
		input[i] = math.Sin(2*c - c*c)
	}

	return input
}

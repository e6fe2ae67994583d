// Package window provides Window Functions for signal analysis.
//
// Windows are built once as coefficient tables and applied per frame, so the
// analysis loop never calls into math on the hot path.
//
// See https://wikipedia.org/wiki/Window_function
package window

import "math"

// Function builds a window table of the given size.
type Function func(size int) []float32

// Rectangle is all ones.
func Rectangle(size int) []float32 {
	table := make([]float32, size)
	for n := range table {
		table[n] = 1
	}
	return table
}

// CosSum returns a symmetric cosine sum window following a0.
func CosSum(size int, a0 float64) []float32 {
	table := make([]float32, size)
	if size == 1 {
		table[0] = 1
		return table
	}

	a1 := 1.0 - a0
	coef := 2.0 * math.Pi / float64(size-1)

	for n := range table {
		table[n] = float32(a0 - a1*math.Cos(coef*float64(n)))
	}

	return table
}

// Hamming returns a Hamming window.
func Hamming(size int) []float32 {
	return CosSum(size, 25.0/46.0)
}

// Hann returns a Hann window.
func Hann(size int) []float32 {
	return CosSum(size, 0.5)
}

// Bartlett returns a Bartlett window.
func Bartlett(size int) []float32 {
	table := make([]float32, size)
	if size == 1 {
		table[0] = 1
		return table
	}

	half := float64(size-1) / 2.0
	for n := range table {
		table[n] = float32(1.0 - math.Abs((float64(n)-half)/half))
	}

	return table
}

// Apply writes src scaled by table into dst. All three must be the same
// length; the shortest one wins.
func Apply(dst, src, table []float32) {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	if len(table) < n {
		n = len(table)
	}

	for i := 0; i < n; i++ {
		dst[i] = src[i] * table[i]
	}
}

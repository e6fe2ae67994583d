// Package fft provides an in-place, iterative radix-2 fourier transform with
// tables built once per plan.
package fft

import (
	"math"
	"math/bits"

	"github.com/pkg/errors"
)

// Plan holds the bit reversal table and twiddle factors for one size.
// A plan is read-only after construction and may be shared, but the
// buffers given to Execute must not be.
type Plan struct {
	size   int
	bitRev []int
	cos    []float32
	sin    []float32
}

// NewPlan builds a plan for size points. size must be a power of two.
func NewPlan(size int) (*Plan, error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, errors.Errorf("fft size %d is not a power of two", size)
	}

	levels := bits.TrailingZeros(uint(size))

	p := &Plan{
		size:   size,
		bitRev: make([]int, size),
		cos:    make([]float32, size/2),
		sin:    make([]float32, size/2),
	}

	for i := range p.bitRev {
		p.bitRev[i] = int(bits.Reverse(uint(i)) >> (bits.UintSize - levels))
	}

	for i := range p.cos {
		angle := -2.0 * math.Pi * float64(i) / float64(size)
		p.cos[i] = float32(math.Cos(angle))
		p.sin[i] = float32(math.Sin(angle))
	}

	return p, nil
}

// Size returns the number of points.
func (p *Plan) Size() int {
	return p.size
}

// Execute transforms real and imag in place. Both must hold Size() values.
func (p *Plan) Execute(real, imag []float32) {
	n := p.size
	real = real[:n]
	imag = imag[:n]

	for i, j := range p.bitRev {
		if j > i {
			real[i], real[j] = real[j], real[i]
			imag[i], imag[j] = imag[j], imag[i]
		}
	}

	for size := 2; size <= n; size <<= 1 {
		half := size >> 1
		step := n / size

		for i := 0; i < n; i += size {
			for j, k := 0, 0; j < half; j, k = j+1, k+step {
				l := i + j + half
				c, s := p.cos[k], p.sin[k]

				tRe := real[l]*c - imag[l]*s
				tIm := real[l]*s + imag[l]*c

				uRe, uIm := real[i+j], imag[i+j]

				real[i+j] = uRe + tRe
				imag[i+j] = uIm + tIm
				real[l] = uRe - tRe
				imag[l] = uIm - tIm
			}
		}
	}
}

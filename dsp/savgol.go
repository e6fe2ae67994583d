package dsp

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// SavitzkyGolay returns the convolution weights of a least squares polynomial
// smoothing filter. Even windows are widened by one. The weights are the
// first row of (AᵀA)⁻¹Aᵀ where A is the Vandermonde matrix of the offsets
// -m..m.
func SavitzkyGolay(window, order int) ([]float32, error) {
	if window%2 == 0 {
		window++
	}

	if window < 3 {
		return nil, errors.Errorf("window %d too small (3 min)", window)
	}

	order = clampInt(order, 1, window-1)

	half := window / 2
	cols := order + 1

	vander := mat.NewDense(window, cols, nil)
	for i := 0; i < window; i++ {
		x := float64(i - half)
		p := 1.0
		for j := 0; j < cols; j++ {
			vander.Set(i, j, p)
			p *= x
		}
	}

	var normal mat.Dense
	normal.Mul(vander.T(), vander)

	var inv mat.Dense
	if err := inv.Inverse(&normal); err != nil {
		return nil, errors.Wrap(err, "failed to invert normal matrix")
	}

	var proj mat.Dense
	proj.Mul(&inv, vander.T())

	weights := make([]float32, window)
	for i := range weights {
		weights[i] = float32(proj.At(0, i))
	}

	return weights, nil
}

// Convolve runs a centered filter over src into dst, clamping indices at the
// edges. dst and src must not overlap.
func Convolve(dst, src, weights []float32) {
	n := len(src)
	half := len(weights) / 2

	for i := range src {
		acc := float32(0)
		for j := -half; j <= half; j++ {
			acc += src[clampInt(i+j, 0, n-1)] * weights[j+half]
		}
		dst[i] = acc
	}
}

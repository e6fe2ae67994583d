package dsp

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Auto range tuning.
const (
	RangeLowQuantile  = 0.10
	RangeHighQuantile = 0.95
	RangeTau          = 160 * time.Millisecond
	RangeMinSpan      = 0.08
)

// AutoRange tracks a normalization window that follows the low and high
// percentiles of recent frames.
type AutoRange struct {
	Min float32
	Max float32

	primed  bool
	scratch []float64
}

// NewAutoRange returns a range with the identity window.
func NewAutoRange() *AutoRange {
	return &AutoRange{Max: 1}
}

// Reset restores the identity window.
func (r *AutoRange) Reset() {
	r.Min = 0
	r.Max = 1
}

// Update moves the window toward the percentiles of energies, then rescales
// energies into it in place. dt is the time since the previous update and
// is clamped to [1ms, 200ms].
func (r *AutoRange) Update(energies []float32, dt time.Duration) {
	n := len(energies)
	if n == 0 {
		return
	}

	if cap(r.scratch) < n {
		r.scratch = make([]float64, n)
	}

	scratch := r.scratch[:n]
	for i, v := range energies {
		scratch[i] = float64(v)
	}

	sort.Float64s(scratch)

	p10 := float32(stat.Quantile(RangeLowQuantile, stat.Empirical, scratch, nil))
	p95 := float32(stat.Quantile(RangeHighQuantile, stat.Empirical, scratch, nil))

	targetMin := clamp32(p10-0.02, 0, 0.6)
	targetMax := clamp32(max32(p95+0.03, targetMin+0.10), 0.12, 1)

	if !r.primed || r.Max <= r.Min {
		r.Min = targetMin
		r.Max = targetMax
		r.primed = true
	} else {
		secs := clampFloat(dt.Seconds(), 0.001, 0.2)
		a := float32(1 - math.Exp(-secs/RangeTau.Seconds()))

		r.Min += (targetMin - r.Min) * a
		r.Max += (targetMax - r.Max) * a
	}

	denom := max32(RangeMinSpan, r.Max-r.Min)
	for i, v := range energies {
		energies[i] = clamp32((v-r.Min)/denom, 0, 1)
	}
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

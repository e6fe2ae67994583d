package dsp

import (
	"math"
	"time"
)

// Bar count limits of an envelope.
const (
	MinBarCount = 8
	MaxBarCount = 128
)

// Envelope tuning.
const (
	// ProcessInterval is the minimum time between two heavy processing ticks
	// (resample, smoothing, weighting, gate and auto range).
	ProcessInterval = 16 * time.Millisecond

	MinFrameDelta = time.Millisecond
	MaxFrameDelta = 50 * time.Millisecond

	BaselineTau = 350 * time.Millisecond
	AttackTau   = 12 * time.Millisecond
	ReleaseTau  = 8 * time.Millisecond
	StableTau   = 65 * time.Millisecond

	BaselineWeight  = 0.35
	TransientWeight = 1.40

	LowEnergyCut  = 0.05
	ResampleFloor = 0.02
	NearTopStart  = 0.85
	NearTopWidth  = 0.15
	StableBand    = 0.06
	StallDelta    = 0.012
	StallFloor    = 0.04
	StallDropRate = 0.75 // per second
	QuantStep     = 0.008
	QuantDeadband = 0.01

	sgWindow = 9
	sgOrder  = 3
)

type EnvelopeConfig struct {
	BarCount int  // number of display bars, clamped to [MinBarCount, MaxBarCount]
	Mirror   bool // fold the bars around the center, lows in the middle
}

// Envelope turns raw bin energies into animated display values for one
// channel. It is driven once per display frame by a single goroutine.
type Envelope struct {
	mirror bool

	sgWeights []float32

	target []float32 // resampled and smoothed source bins
	tmp0   []float32
	tmp1   []float32
	weight []float32 // per bar frequency weight
	energy []float32 // weighted, gated and ranged energies
	base   []float32 // slow baseline per energy bin
	raw    []float32 // smoothed values before quantization
	bars   []float32 // quantized output

	gate *SilenceGate
	rng  *AutoRange
	last time.Time
}

// NewEnvelope returns an envelope for cfg.BarCount bars.
func NewEnvelope(cfg EnvelopeConfig) (*Envelope, error) {
	weights, err := SavitzkyGolay(sgWindow, sgOrder)
	if err != nil {
		return nil, err
	}

	env := &Envelope{
		mirror:    cfg.Mirror,
		sgWeights: weights,
		gate:      NewSilenceGate(),
		rng:       NewAutoRange(),
	}

	env.resize(clampInt(cfg.BarCount, MinBarCount, MaxBarCount))

	return env, nil
}

// BarCount returns the number of bars produced per frame.
func (env *Envelope) BarCount() int {
	return len(env.bars)
}

// SetBarCount clamps count to [MinBarCount, MaxBarCount] and reallocates the
// state when it changed. It returns the count in effect.
func (env *Envelope) SetBarCount(count int) int {
	count = clampInt(count, MinBarCount, MaxBarCount)
	if count != len(env.bars) {
		env.resize(count)
	}

	return count
}

// SetMirror toggles mirrored bar layout.
func (env *Envelope) SetMirror(mirror bool) {
	env.mirror = mirror
}

// Silent reports whether the silence gate is closed.
func (env *Envelope) Silent() bool {
	return env.gate.Silent()
}

// Range returns the current auto range window.
func (env *Envelope) Range() (float32, float32) {
	return env.rng.Min, env.rng.Max
}

func (env *Envelope) resize(count int) {
	env.target = make([]float32, count)
	env.tmp0 = make([]float32, count)
	env.tmp1 = make([]float32, count)
	env.weight = make([]float32, count)
	env.energy = make([]float32, count)
	env.base = make([]float32, count)
	env.raw = make([]float32, count)
	env.bars = make([]float32, count)

	FrequencyWeights(env.weight)
}

// Update runs one display frame. source holds the latest bins from the
// spectrum store, now is the frame time, dt the time since the previous
// frame and active whether playback is running. The returned slice is owned
// by the envelope and valid until the next call.
func (env *Envelope) Update(source []float32, now time.Time, dt time.Duration, active bool) []float32 {
	if env.last.IsZero() || now.Sub(env.last) >= ProcessInterval {
		processDt := ProcessInterval
		if !env.last.IsZero() {
			processDt = now.Sub(env.last)
		}

		env.last = now
		env.process(source, processDt, active)
	}

	env.step(clampDuration(dt, MinFrameDelta, MaxFrameDelta))

	return env.bars
}

func (env *Envelope) process(source []float32, dt time.Duration, active bool) {
	if !active {
		if !env.gate.Silent() {
			env.clear()
		}

		env.gate.Force()
		env.rng.Reset()
		zero(env.energy)
		return
	}

	Resample(env.target, source, ResampleFloor)

	n := len(env.target)

	if n > 4 {
		smooth5(env.tmp0, env.target)
		copy(env.target, env.tmp0)
	}

	if n >= len(env.sgWeights) {
		Convolve(env.tmp1, env.target, env.sgWeights)
		copy(env.target, env.tmp1)
	} else if n > 2 {
		SpatialSmooth(env.tmp1, env.target)
		copy(env.target, env.tmp1)
	}

	peak := float32(0)
	for i, v := range env.target {
		v = clamp32(v*env.weight[i], 0, 1)
		env.energy[i] = v

		if v > peak {
			peak = v
		}
	}

	wasSilent := env.gate.Silent()

	if env.gate.Update(peak) {
		if !wasSilent {
			env.clear()
		}

		env.rng.Reset()
		zero(env.energy)
		return
	}

	env.rng.Update(env.energy, dt)
}

func (env *Envelope) clear() {
	zero(env.base)
	zero(env.raw)
	zero(env.bars)
}

func (env *Envelope) step(dt time.Duration) {
	secs := dt.Seconds()

	alphaAttack := alpha(secs, AttackTau)
	alphaRelease := alpha(secs, ReleaseTau)
	alphaStable := alpha(secs, StableTau)
	alphaBase := alpha(secs, BaselineTau)

	silent := env.gate.Silent()

	// baselines follow the energy bins, once per bin per frame.
	for i, v := range env.energy {
		if silent || v < LowEnergyCut {
			v = 0
		}

		env.base[i] += (v - env.base[i]) * alphaBase
	}

	n := len(env.bars)
	center := float64(n-1) * 0.5
	spread := math.Max(1, center)

	for i := range env.bars {
		src := i
		if env.mirror {
			d := math.Min(1, math.Abs(float64(i)-center)/spread)
			src = clampInt(int(math.Round(d*float64(n-1))), 0, n-1)
		}

		raw := env.energy[src]
		if silent || raw < LowEnergyCut {
			raw = 0
		}

		base := env.base[src]
		transient := max32(0, raw-base)
		target := clamp32(BaselineWeight*base+TransientWeight*transient, 0, 1)

		cur := env.raw[i]

		a := alphaRelease
		if target >= cur {
			a = alphaAttack
		}

		if abs32(target-cur) < StableBand {
			w := clamp32((target-NearTopStart)/NearTopWidth, 0, 1)
			a = a*(1-w) + min32(a, alphaStable)*w
		}

		next := cur + (target-cur)*a

		if target > StallFloor && target < cur && cur-target < StallDelta {
			next = min32(next, cur-StallDropRate*float32(secs))
		}

		next = clamp32(next, 0, 1)

		env.raw[i] = next
		env.bars[i] = Quantize(next, env.bars[i], QuantStep, QuantDeadband)
	}
}

// Resample averages src down into dst, or repeats bins when dst is larger. Averages
// below floor are zeroed.
func Resample(dst, src []float32, floor float32) {
	if len(dst) == len(src) {
		copy(dst, src)
		return
	}

	srcCount := len(src)
	scale := float64(srcCount) / float64(len(dst))

	for i := range dst {
		start := int(float64(i) * scale)
		end := int(float64(i+1)*scale) - 1
		if end > srcCount-1 {
			end = srcCount - 1
		}

		sum := float32(0)
		count := 0

		for k := start; k <= end; k++ {
			sum += src[k]
			count++
		}

		var avg float32
		switch {
		case count > 0:
			avg = sum / float32(count)
		case start < srcCount:
			avg = src[start]
		}

		if avg < floor {
			avg = 0
		}

		dst[i] = avg
	}
}

// FrequencyWeights fills w with the per bar emphasis curve: a kick bump near
// the bottom, a vocal bump a third of the way up and a cubic high roll off.
func FrequencyWeights(w []float32) {
	n := len(w)
	if n <= 1 {
		if n == 1 {
			w[0] = 1
		}
		return
	}

	last := float64(n - 1)

	for i := range w {
		t := float64(i) / last
		kick := 0.55 * gauss(t, 0.08, 0.06)
		vocal := 0.35 * gauss(t, 0.33, 0.12)
		rolloff := clampFloat(1-0.70*t*t*t, 0.25, 1)

		w[i] = float32(clampFloat((0.95+kick+vocal)*rolloff, 0.35, 1.75))
	}
}

// Quantize moves current at most one step level toward raw. The level only
// changes when raw clears the half step boundary by a dead band, which
// narrows near the top of the range.
func Quantize(raw, current, step, deadband float32) float32 {
	if step <= 0 {
		return clamp32(raw, 0, 1)
	}

	cur := clamp32(current, 0, 1)
	level := float32(math.Round(float64(cur / step)))

	w := clamp32((raw-NearTopStart)/NearTopWidth, 0, 1)
	db := clamp32(deadband*(1-0.6*w), deadband*0.35, deadband)

	up := clamp32((level+0.5)*step+db, 0, 1)
	down := clamp32((level-0.5)*step-db, 0, 1)

	switch {
	case raw > up:
		level++
	case raw < down:
		level--
	}

	return clamp32(level*step, 0, 1)
}

func smooth5(dst, src []float32) {
	last := len(src) - 1

	dst[0], dst[1] = src[0], src[1]
	dst[last-1], dst[last] = src[last-1], src[last]

	for i := 2; i < last-1; i++ {
		dst[i] = (src[i-2] + 2*src[i-1] + 3*src[i] + 2*src[i+1] + src[i+2]) / 9
	}
}

func gauss(t, mu, sigma float64) float64 {
	z := (t - mu) / sigma
	return math.Exp(-0.5 * z * z)
}

func alpha(dtSecs float64, tau time.Duration) float32 {
	return clamp32(float32(1-math.Exp(-dtSecs/tau.Seconds())), 0, 1)
}

func clampDuration(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func zero(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}

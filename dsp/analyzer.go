// Package dsp provides audio analysis
//
// Some notes:
//
// https://dlbeer.co.nz/articles/fftvis.html
// https://www.cg.tuwien.ac.at/courses/WissArbeiten/WS2010/processing.pdf
// https://github.com/hvianna/audioMotion-analyzer/blob/master/src/audioMotion-analyzer.js#L1053
// https://stackoverflow.com/questions/3694918/how-to-extract-frequency-associated-with-fft-values-in-python
//   - https://stackoverflow.com/a/27191172
package dsp

import (
	"math"

	"github.com/noriah/whisker/dsp/window"
	"github.com/noriah/whisker/fft"
	"github.com/pkg/errors"
)

// Analyzer tuning. These are heuristics picked by ear and eye.
const (
	// LowCutFrequency is the bottom of the log spaced bin range, in Hz.
	LowCutFrequency = 30.0

	// CompressK is the knee of the loudness compression log(1+k*m)/log(1+k).
	CompressK = 10.0

	// PeakDecay is the per frame decay of the tracked peak.
	PeakDecay = 0.94
	// PeakFloor keeps near silence from being normalized up to full scale.
	PeakFloor = 0.06
	// InitialPeak is the tracked peak of a fresh analyzer.
	InitialPeak = 0.25
	// RatioCeiling caps a bin relative to the peak before the gamma curve.
	RatioCeiling = 1.25

	// ContrastGamma is applied to the normalized bins.
	ContrastGamma = 2.0
	// Headroom scales the final values so a full scale bin is not pinned.
	Headroom = 0.82
	// TiltAmount is how much the highest bin is rolled off.
	TiltAmount = 0.62
	// NoiseFloor zeroes bins below it.
	NoiseFloor = 0.02
)

type AnalyzerConfig struct {
	SampleRate float64 // audio sample rate
	SampleSize int     // fft size, a power of two
	BinCount   int     // number of output bins
}

// Analyzer turns a stereo frame into log spaced, compressed and peak
// normalized bin energies. It owns all of its scratch buffers, so a call to
// Process never allocates. It is not safe for concurrent use; the analysis
// loop is its only caller.
type Analyzer struct {
	cfg  AnalyzerConfig
	plan *fft.Plan

	window []float32
	tilt   []float32

	bins []bin

	real []float32
	imag []float32

	tmpBins []float32

	peaks [2]float32
}

// bin is a range of fft indices feeding one output bin.
type bin struct {
	floorFFT int // first fft index
	ceilFFT  int // last fft index, inclusive
}

// NewAnalyzer builds an analyzer. The fft plan, window and tilt tables are
// computed once here.
func NewAnalyzer(cfg AnalyzerConfig) (*Analyzer, error) {
	if cfg.BinCount < 1 {
		return nil, errors.Errorf("bin count %d too small (1 min)", cfg.BinCount)
	}

	plan, err := fft.NewPlan(cfg.SampleSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to plan fft")
	}

	az := &Analyzer{
		cfg:     cfg,
		plan:    plan,
		window:  window.Hann(cfg.SampleSize),
		tilt:    make([]float32, cfg.BinCount),
		bins:    make([]bin, cfg.BinCount),
		real:    make([]float32, cfg.SampleSize),
		imag:    make([]float32, cfg.SampleSize),
		tmpBins: make([]float32, cfg.BinCount),
		peaks:   [2]float32{InitialPeak, InitialPeak},
	}

	if cfg.BinCount > 1 {
		last := float32(cfg.BinCount - 1)
		for idx := range az.tilt {
			t := float32(idx) / last
			az.tilt[idx] = 1 - TiltAmount*t*t
		}
	} else {
		az.tilt[0] = 1
	}

	if az.cfg.SampleRate <= 0 {
		az.cfg.SampleRate = 44100
	}

	az.distribute()

	return az, nil
}

// BinCount returns the number of output bins.
func (az *Analyzer) BinCount() int {
	return az.cfg.BinCount
}

// SampleSize returns the fft size.
func (az *Analyzer) SampleSize() int {
	return az.cfg.SampleSize
}

// SampleRate returns the rate the bins were distributed for.
func (az *Analyzer) SampleRate() float64 {
	return az.cfg.SampleRate
}

// SetSampleRate redistributes the bins for a new rate. Non positive rates
// are ignored.
func (az *Analyzer) SetSampleRate(rate float64) {
	if rate <= 0 || rate == az.cfg.SampleRate {
		return
	}

	az.cfg.SampleRate = rate
	az.distribute()
}

// BinRange returns the frequency range, in Hz, covered by output bin idx
// before it is snapped to fft indices.
func (az *Analyzer) BinRange(idx int) (float64, float64) {
	lo, ratio := az.logRange()
	count := float64(az.cfg.BinCount)

	return lo * math.Pow(ratio, float64(idx)/count),
		lo * math.Pow(ratio, float64(idx+1)/count)
}

func (az *Analyzer) logRange() (float64, float64) {
	lo := LowCutFrequency
	hi := math.Max(az.cfg.SampleRate/2, lo+1)
	return lo, hi / lo
}

// distribute places the output bins on a logarithmic frequency scale between
// LowCutFrequency and nyquist.
func (az *Analyzer) distribute() {
	maxIdx := az.cfg.SampleSize/2 - 1

	for idx := range az.bins {
		hzLo, hzHi := az.BinRange(idx)

		start := clampInt(az.freqToIdx(hzLo), 1, maxIdx)
		end := clampInt(az.freqToIdx(hzHi), start, maxIdx)

		az.bins[idx] = bin{floorFFT: start, ceilFFT: end}
	}
}

func (az *Analyzer) freqToIdx(freq float64) int {
	return int(freq / az.cfg.SampleRate * float64(az.cfg.SampleSize))
}

// Process analyzes one stereo frame into outLeft and outRight, which must
// hold BinCount values. The inputs must hold SampleSize samples.
func (az *Analyzer) Process(left, right, outLeft, outRight []float32) {
	az.processChannel(0, left, outLeft)
	az.processChannel(1, right, outRight)
}

func (az *Analyzer) processChannel(ch int, input, out []float32) {
	window.Apply(az.real, input, az.window)
	for i := range az.imag {
		az.imag[i] = 0
	}

	az.plan.Execute(az.real, az.imag)

	kMax := az.cfg.SampleSize / 2

	frameMax := float32(0)

	for idx, b := range az.bins {
		sum := float32(0)
		count := 0

		for k := b.floorFFT; k <= b.ceilFFT && k < kMax; k++ {
			re, im := az.real[k], az.imag[k]
			sum += re*re + im*im
			count++
		}

		power := float32(0)
		if count > 0 {
			power = sum / float32(count)
		}

		v := Compress(float32(math.Sqrt(float64(max32(0, power)))))
		az.tmpBins[idx] = v

		if v > frameMax {
			frameMax = v
		}
	}

	peak := max32(az.peaks[ch]*PeakDecay, frameMax)
	az.peaks[ch] = peak

	normPeak := max32(PeakFloor, peak)

	for idx, v := range az.tmpBins {
		ratio := clamp32(v/normPeak, 0, RatioCeiling)
		curved := float32(math.Pow(float64(ratio), ContrastGamma))

		v = curved * az.tilt[idx] * Headroom
		if v < NoiseFloor {
			v = 0
		}

		az.tmpBins[idx] = clamp32(v, 0, 1)
	}

	SpatialSmooth(out, az.tmpBins)
}

// Compress applies the perceptual loudness curve log(1+k*m)/log(1+k).
func Compress(magnitude float32) float32 {
	m := math.Max(0, float64(magnitude))
	return float32(math.Log1p(m*CompressK) / math.Log1p(CompressK))
}

// SpatialSmooth writes a 0.25/0.5/0.25 average of src into dst. The edge
// bins are copied as is.
func SpatialSmooth(dst, src []float32) {
	n := len(src)
	if n <= 2 {
		copy(dst, src)
		return
	}

	last := n - 1
	dst[0] = src[0]
	dst[last] = src[last]

	for i := 1; i < last; i++ {
		dst[i] = (src[i-1] + 2*src[i] + src[i+1]) * 0.25
	}
}

// Decay scales every bin of buf by factor and zeroes values below floor.
func Decay(buf []float32, factor, floor float32) {
	for i, v := range buf {
		if v *= factor; v < floor {
			v = 0
		}
		buf[i] = v
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

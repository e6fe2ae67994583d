// Package processor runs the analysis loop between the sample ring and the
// spectrum store.
package processor

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/noriah/whisker/buffer"
	"github.com/noriah/whisker/dsp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "processor")

const (
	// MaxVisualDelay is the largest visual delay, in milliseconds.
	MaxVisualDelay = 400
	// DefaultVisualDelay is used until the output latency is known.
	DefaultVisualDelay = 120

	// IdleTicks is how many polls without a new frame pass before the last
	// spectrum is decayed and published again.
	IdleTicks = 4
	// IdleSleep is the pause between polls that found no new frame.
	IdleSleep = 16 * time.Millisecond

	DecayFactor = 0.82
	DecayFloor  = 0.0005

	defaultBufferMs = 20
	maxLatencyDelay = 200
)

type Config struct {
	Ring     *buffer.Ring          // sample source, this loop is its only reader
	Store    *buffer.SpectrumStore // spectrum sink, this loop is its only writer
	Analyzer *dsp.Analyzer         // owned by the loop after New
	DelayMs  int                   // initial visual delay
}

// Processor is the analysis loop. All setters are safe to call from any
// goroutine while Run is going.
type Processor struct {
	ring  *buffer.Ring
	store *buffer.SpectrumStore
	anlz  *dsp.Analyzer

	sampleRate atomic.Uint64 // float64 bits
	delayMs    atomic.Int32

	// loop state
	inLeft   []float32
	inRight  []float32
	outLeft  []float32
	outRight []float32
	lastSeq  uint64
	idle     int
}

// New builds a processor. The analyzer frame size must match the ring.
func New(cfg Config) (*Processor, error) {
	if cfg.Ring == nil || cfg.Store == nil || cfg.Analyzer == nil {
		return nil, errors.New("ring, store and analyzer are required")
	}

	if cfg.Ring.FrameSize() != cfg.Analyzer.SampleSize() {
		return nil, errors.Errorf("ring frame size %d does not match analyzer size %d",
			cfg.Ring.FrameSize(), cfg.Analyzer.SampleSize())
	}

	if cfg.Store.BinCount() != cfg.Analyzer.BinCount() {
		return nil, errors.Errorf("store holds %d bins, analyzer makes %d",
			cfg.Store.BinCount(), cfg.Analyzer.BinCount())
	}

	frame := cfg.Ring.FrameSize()
	bins := cfg.Store.BinCount()

	proc := &Processor{
		ring:     cfg.Ring,
		store:    cfg.Store,
		anlz:     cfg.Analyzer,
		inLeft:   make([]float32, frame),
		inRight:  make([]float32, frame),
		outLeft:  make([]float32, bins),
		outRight: make([]float32, bins),
	}

	proc.sampleRate.Store(math.Float64bits(cfg.Analyzer.SampleRate()))
	proc.SetVisualDelay(cfg.DelayMs)

	return proc, nil
}

// SetVisualDelay sets how far, in milliseconds, the analyzed audio lags the
// newest captured audio. It is clamped to [0, MaxVisualDelay].
func (proc *Processor) SetVisualDelay(ms int) {
	switch {
	case ms < 0:
		ms = 0
	case ms > MaxVisualDelay:
		ms = MaxVisualDelay
	}

	proc.delayMs.Store(int32(ms))
}

// VisualDelay returns the visual delay in milliseconds.
func (proc *Processor) VisualDelay() int {
	return int(proc.delayMs.Load())
}

// SetSampleRate reports a new stream rate. Non positive rates are ignored.
func (proc *Processor) SetSampleRate(rate float64) {
	if rate > 0 {
		proc.sampleRate.Store(math.Float64bits(rate))
	}
}

// SampleRate returns the last reported stream rate.
func (proc *Processor) SampleRate() float64 {
	return math.Float64frombits(proc.sampleRate.Load())
}

// DelaySlots converts the visual delay to whole ring frames, rounded to the
// nearest frame and clamped to what the ring can serve.
func (proc *Processor) DelaySlots() int {
	frame := proc.ring.FrameSize()
	frames := int(int64(proc.VisualDelay()) * int64(proc.SampleRate()) / 1000)

	slots := (frames + frame/2) / frame

	if limit := proc.ring.MaxDelay(); slots > limit {
		slots = limit
	}

	return slots
}

// Tick runs one iteration of the loop. It reports whether a new frame was
// analyzed.
func (proc *Processor) Tick() bool {
	proc.anlz.SetSampleRate(proc.SampleRate())

	seq := proc.ring.CopyDelayedTo(proc.inLeft, proc.inRight, proc.DelaySlots())
	if seq == 0 || seq == proc.lastSeq {
		if proc.idle++; proc.idle >= IdleTicks {
			proc.decay()
			proc.idle = 0
		}

		return false
	}

	proc.idle = 0
	proc.lastSeq = seq

	proc.anlz.Process(proc.inLeft, proc.inRight, proc.outLeft, proc.outRight)
	proc.publish()

	return true
}

// Run polls the ring until ctx is done. After a poll that found no new frame
// it waits for the next IdleSleep tick.
func (proc *Processor) Run(ctx context.Context) error {
	log.WithFields(logrus.Fields{
		"frame": proc.ring.FrameSize(),
		"slots": proc.ring.SlotCount(),
		"bins":  proc.store.BinCount(),
		"delay": proc.VisualDelay(),
	}).Debug("analysis loop started")

	ticker := time.NewTicker(IdleSleep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("analysis loop stopped")
			return ctx.Err()
		default:
		}

		if proc.Tick() {
			continue
		}

		select {
		case <-ctx.Done():
			log.Debug("analysis loop stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (proc *Processor) decay() {
	dsp.Decay(proc.outLeft, DecayFactor, DecayFloor)
	dsp.Decay(proc.outRight, DecayFactor, DecayFloor)
	proc.publish()
}

func (proc *Processor) publish() {
	idx := proc.store.BeginWrite()
	left, right := proc.store.WriteBuffers(idx)

	copy(left, proc.outLeft)
	copy(right, proc.outRight)

	proc.store.Publish(idx)
}

// DelayFromLatency derives a visual delay from the output buffer length in
// milliseconds: three buffers, at most 200ms. A non positive length is
// treated as 20ms.
func DelayFromLatency(bufferMs int) int {
	if bufferMs <= 0 {
		bufferMs = defaultBufferMs
	}

	delay := bufferMs * 3
	if delay > maxLatencyDelay {
		delay = maxLatencyDelay
	}

	return delay
}

// Package session ties the tap, the ring, the analysis loop and the
// spectrum store of one playback session together.
package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/noriah/whisker/buffer"
	"github.com/noriah/whisker/dsp"
	"github.com/noriah/whisker/input"
	"github.com/noriah/whisker/processor"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "session")

const (
	DefaultSampleRate = 44100
	DefaultFrameSize  = 1024
	DefaultSlotCount  = 8
	DefaultBinCount   = 128
)

type Config struct {
	SampleRate    float64 // assumed until the first tapped stream reports its own
	FrameSize     int     // samples per channel per analyzed frame, a power of two
	SlotCount     int     // frames kept by the ring
	BinCount      int     // spectrum bins per channel
	VisualDelayMs int     // initial visual delay
}

func DefaultConfig() Config {
	return Config{
		SampleRate:    DefaultSampleRate,
		FrameSize:     DefaultFrameSize,
		SlotCount:     DefaultSlotCount,
		BinCount:      DefaultBinCount,
		VisualDelayMs: processor.DefaultVisualDelay,
	}
}

// Session owns the shared state of one playback session. The tap writes from
// the render goroutine, the analysis loop runs on its own goroutine and any
// number of display consumers read the store.
type Session struct {
	ring  *buffer.Ring
	store *buffer.SpectrumStore
	proc  *processor.Processor
	tap   *input.Tap

	active atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a stopped session.
func New(cfg Config) (*Session, error) {
	anlz, err := dsp.NewAnalyzer(dsp.AnalyzerConfig{
		SampleRate: cfg.SampleRate,
		SampleSize: cfg.FrameSize,
		BinCount:   cfg.BinCount,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create analyzer")
	}

	s := &Session{
		ring:  buffer.NewRing(cfg.FrameSize, cfg.SlotCount),
		store: buffer.NewSpectrumStore(cfg.BinCount),
	}

	s.proc, err = processor.New(processor.Config{
		Ring:     s.ring,
		Store:    s.store,
		Analyzer: anlz,
		DelayMs:  cfg.VisualDelayMs,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create processor")
	}

	s.tap = input.NewTap(s.ring, func(rate int) {
		s.proc.SetSampleRate(float64(rate))
	})

	return s, nil
}

// Tap returns the render path stage feeding this session.
func (s *Session) Tap() *input.Tap {
	return s.tap
}

// Store returns the spectrum store consumers read from.
func (s *Session) Store() *buffer.SpectrumStore {
	return s.store
}

// Processor returns the analysis loop.
func (s *Session) Processor() *processor.Processor {
	return s.proc
}

// SetPlaybackActive records whether audio is playing. Consumers show
// silence while it is not.
func (s *Session) SetPlaybackActive(active bool) {
	s.active.Store(active)
}

func (s *Session) PlaybackActive() bool {
	return s.active.Load()
}

// SetVisualDelay sets the visual delay in milliseconds.
func (s *Session) SetVisualDelay(ms int) {
	s.proc.SetVisualDelay(ms)
}

// SetOutputLatency derives the visual delay from the output buffer length.
func (s *Session) SetOutputLatency(bufferMs int) {
	delay := processor.DelayFromLatency(bufferMs)
	s.proc.SetVisualDelay(delay)

	log.WithFields(logrus.Fields{
		"buffer": bufferMs,
		"delay":  delay,
	}).Debug("visual delay from output latency")
}

// Start launches the analysis loop. It does nothing if the loop is running.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.cancel = cancel
	s.done = done

	go func() {
		defer close(done)
		s.proc.Run(ctx)
	}()

	log.Debug("session started")
}

// Running reports whether the analysis loop is running.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Stop ends the analysis loop, waits for it and clears the ring. The tap must
// not be writing when Stop is called.
func (s *Session) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done

	s.active.Store(false)
	s.tap.Reset()

	log.Debug("session stopped")
}

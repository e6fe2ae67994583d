// Package display turns the published spectrum into animated bar heights
// once per display frame and hands them to an output.
package display

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/noriah/whisker/buffer"
	"github.com/noriah/whisker/dsp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "display")

// Output is where bar heights end up. Heights are in [0, 1].
type Output interface {
	// Bins returns the number of bars per channel the output can show.
	Bins(channels int) int
	// Write draws one frame of bars, one slice per channel.
	Write(bins [][]float64, channels int) error
}

type Config struct {
	Store    *buffer.SpectrumStore
	Output   Output
	Channels int // 1 averages both channels, 2 keeps them apart
	Mirror   bool

	// Active reports whether playback is running. Nil means always.
	Active func() bool
}

// Consumer runs one envelope per displayed channel over the spectrum store.
// It is driven by a single goroutine.
type Consumer struct {
	store    *buffer.SpectrumStore
	out      Output
	channels int
	active   func() bool
	mirror   atomic.Bool

	envs []*dsp.Envelope
	bars [][]float64

	left  []float32
	right []float32
	mono  []float32

	last time.Time
}

func New(cfg Config) (*Consumer, error) {
	switch {
	case cfg.Store == nil:
		return nil, errors.New("no spectrum store")
	case cfg.Output == nil:
		return nil, errors.New("no output")
	case cfg.Channels != 1 && cfg.Channels != 2:
		return nil, errors.Errorf("channel count must be 1 or 2, got %d", cfg.Channels)
	}

	bins := cfg.Store.BinCount()

	c := &Consumer{
		store:    cfg.Store,
		out:      cfg.Output,
		channels: cfg.Channels,
		active:   cfg.Active,
		envs:     make([]*dsp.Envelope, cfg.Channels),
		bars:     make([][]float64, cfg.Channels),
		left:     make([]float32, bins),
		right:    make([]float32, bins),
		mono:     make([]float32, bins),
	}

	c.mirror.Store(cfg.Mirror)

	count := cfg.Output.Bins(cfg.Channels)

	for idx := range c.envs {
		env, err := dsp.NewEnvelope(dsp.EnvelopeConfig{BarCount: count, Mirror: cfg.Mirror})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create envelope")
		}

		c.envs[idx] = env
		c.bars[idx] = make([]float64, env.BarCount())
	}

	log.WithFields(logrus.Fields{
		"channels": cfg.Channels,
		"bars":     c.envs[0].BarCount(),
		"mirror":   cfg.Mirror,
	}).Debug("display consumer ready")

	return c, nil
}

// SetMirror changes the bar layout from the next frame on. It is safe to
// call from any goroutine.
func (c *Consumer) SetMirror(mirror bool) {
	c.mirror.Store(mirror)
}

func (c *Consumer) Mirror() bool {
	return c.mirror.Load()
}

// BarCount returns the number of bars per channel of the last frame.
func (c *Consumer) BarCount() int {
	return c.envs[0].BarCount()
}

// Silent reports whether every channel is gated as silent.
func (c *Consumer) Silent() bool {
	for _, env := range c.envs {
		if !env.Silent() {
			return false
		}
	}
	return true
}

// Frame computes and writes one display frame for time now.
func (c *Consumer) Frame(now time.Time) error {
	dt := dsp.ProcessInterval
	if !c.last.IsZero() {
		dt = now.Sub(c.last)
	}
	c.last = now

	active := c.active == nil || c.active()

	c.store.CopyLatestLeft(c.left)
	c.store.CopyLatestRight(c.right)

	sources := [][]float32{c.left, c.right}
	if c.channels == 1 {
		for i := range c.mono {
			c.mono[i] = (c.left[i] + c.right[i]) / 2
		}
		sources = [][]float32{c.mono}
	}

	want := c.out.Bins(c.channels)
	mirror := c.mirror.Load()

	for idx, env := range c.envs {
		env.SetMirror(mirror)

		if count := env.SetBarCount(want); count != len(c.bars[idx]) {
			c.bars[idx] = make([]float64, count)
		}

		levels := env.Update(sources[idx], now, dt, active)
		for i, v := range levels {
			c.bars[idx][i] = float64(v)
		}
	}

	return c.out.Write(c.bars, c.channels)
}

// Run draws a frame on every tick of clock until ctx is done or the output
// fails. The clock is stopped on return.
func (c *Consumer) Run(ctx context.Context, clock FrameClock) error {
	defer clock.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case now := <-clock.Frames():
			if err := c.Frame(now); err != nil {
				return errors.Wrap(err, "failed to draw frame")
			}
		}
	}
}

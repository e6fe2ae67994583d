// Package fader ramps a player's volume over time and wraps a transport so
// that play, pause and track changes are faded.
package fader

import (
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "fader")

const (
	// FadeTick is the interval between volume writes of a running fade.
	FadeTick = 16 * time.Millisecond

	// fades smaller than this are applied at once.
	minDelta = 0.0005
)

// Target is anything with a volume in [0, 1]. An oto player is one.
type Target interface {
	Volume() float64
	SetVolume(float64)
}

// Fader runs at most one fade at a time. Starting a fade or calling Cancel
// stops the previous one; a stopped fade never writes the volume again and
// never calls its callback.
type Fader struct {
	// Now and NewTicker can be replaced for tests before the first fade.
	Now       func() time.Time
	NewTicker func(time.Duration) (<-chan time.Time, func())

	mu  sync.Mutex
	job *job
}

type job struct {
	cancelled bool
	stop      chan struct{}
}

func New() *Fader {
	return &Fader{
		Now: time.Now,
		NewTicker: func(d time.Duration) (<-chan time.Time, func()) {
			ticker := time.NewTicker(d)
			return ticker.C, ticker.Stop
		},
	}
}

// Cancel stops the running fade, if any.
func (f *Fader) Cancel() {
	f.mu.Lock()
	f.cancelLocked()
	f.mu.Unlock()
}

func (f *Fader) cancelLocked() {
	if f.job == nil {
		return
	}

	f.job.cancelled = true
	close(f.job.stop)
	f.job = nil
}

// Active reports whether a fade is running.
func (f *Fader) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.job != nil
}

// FadeTo moves the volume of t to target, clamped to [0, 1], over d along a
// smoothstep curve. onEnd, if set, is called once the target is reached.
// With d <= 0, or a target within 0.0005 of the current volume, the volume
// is set and onEnd called before FadeTo returns.
func (f *Fader) FadeTo(t Target, target float64, d time.Duration, onEnd func()) {
	target = clamp01(target)

	f.mu.Lock()
	f.cancelLocked()

	from := clamp01(t.Volume())

	if d <= 0 || math.Abs(from-target) < minDelta {
		t.SetVolume(target)
		f.mu.Unlock()

		if onEnd != nil {
			onEnd()
		}
		return
	}

	j := &job{stop: make(chan struct{})}
	f.job = j

	start := f.Now()
	f.mu.Unlock()

	log.WithFields(logrus.Fields{
		"from":     from,
		"to":       target,
		"duration": d,
	}).Debug("fade started")

	go f.run(j, t, from, target, start, d, onEnd)
}

func (f *Fader) run(j *job, t Target, from, target float64, start time.Time, d time.Duration, onEnd func()) {
	ticks, stop := f.NewTicker(FadeTick)
	defer stop()

	for {
		progress := clamp01(float64(f.Now().Sub(start)) / float64(d))

		if !f.write(j, t, from+(target-from)*Smoothstep(progress)) {
			return
		}

		if progress >= 1 {
			break
		}

		select {
		case <-ticks:
		case <-j.stop:
			return
		}
	}

	// snap to the exact target and retire the job.
	f.mu.Lock()
	if j.cancelled {
		f.mu.Unlock()
		return
	}

	t.SetVolume(target)
	f.job = nil
	f.mu.Unlock()

	if onEnd != nil {
		onEnd()
	}
}

// write sets the volume if j is still the live fade.
func (f *Fader) write(j *job, t Target, v float64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if j.cancelled {
		return false
	}

	t.SetVolume(clamp01(v))
	return true
}

// Smoothstep eases x in [0, 1] as 3x² - 2x³.
func Smoothstep(x float64) float64 {
	return x * x * (3 - 2*x)
}

func clamp01(v float64) float64 {
	switch {
	case v != v:
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

package fader

import "time"

// Transport is the playback control surface the Player wraps.
type Transport interface {
	Target

	Play()
	Pause()
	IsPlaying() bool
	// PlayWhenReady reports whether playback is wanted, even while the
	// transport is still buffering.
	PlayWhenReady() bool

	Next()
	Previous()
	CurrentIndex() int
}

// Durations are the fade lengths used by Player.
type Durations struct {
	Play    time.Duration
	Pause   time.Duration
	SkipOut time.Duration
	SkipIn  time.Duration
}

// DefaultDurations returns the stock fade lengths.
func DefaultDurations() Durations {
	return Durations{
		Play:    1000 * time.Millisecond,
		Pause:   500 * time.Millisecond,
		SkipOut: 250 * time.Millisecond,
		SkipIn:  250 * time.Millisecond,
	}
}

// Player fades a transport in on play, out on pause, and out and back in
// around track changes.
type Player struct {
	transport Transport
	fader     *Fader
	durations Durations
}

func NewPlayer(t Transport, f *Fader, d Durations) *Player {
	return &Player{transport: t, fader: f, durations: d}
}

// Transport returns the wrapped transport.
func (p *Player) Transport() Transport {
	return p.transport
}

// Play starts playback from silence and fades up.
func (p *Player) Play() {
	p.fader.Cancel()
	p.transport.SetVolume(0)
	p.transport.Play()
	p.fader.FadeTo(p.transport, 1, p.durations.Play, nil)
}

// Pause fades down and then pauses. A transport that is not playing is
// paused at once.
func (p *Player) Pause() {
	if !p.transport.IsPlaying() {
		p.transport.Pause()
		return
	}

	p.fader.FadeTo(p.transport, 0, p.durations.Pause, p.transport.Pause)
}

// Toggle pauses a playing transport and plays a paused one.
func (p *Player) Toggle() {
	if p.transport.IsPlaying() {
		p.Pause()
	} else {
		p.Play()
	}
}

func (p *Player) Next() {
	p.skip(p.transport.Next)
}

func (p *Player) Previous() {
	p.skip(p.transport.Previous)
}

// skip fades out, runs seek and fades back in when the track changed. When
// seek stays on the same track the volume is restored without a ramp.
func (p *Player) skip(seek func()) {
	if !p.transport.PlayWhenReady() {
		seek()
		return
	}

	before := p.transport.CurrentIndex()

	p.fader.FadeTo(p.transport, 0, p.durations.SkipOut, func() {
		seek()

		if p.transport.CurrentIndex() == before {
			log.WithField("index", before).Debug("skip stayed on the same track")
			p.transport.SetVolume(1)
			return
		}

		p.fader.FadeTo(p.transport, 1, p.durations.SkipIn, nil)
	})
}

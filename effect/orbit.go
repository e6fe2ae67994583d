package effect

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// OrbitTick is the update interval of a running orbit.
	OrbitTick = 33 * time.Millisecond
	// OrbitIdleTick is the update interval while the orbit is disabled.
	OrbitIdleTick = 50 * time.Millisecond

	MaxOrbitSpeed    = 50
	MaxOrbitDistance = 10

	DefaultOrbitSpeed    = 25
	DefaultOrbitDistance = 5

	maxPanAmount        = 0.9
	distanceAttenuation = 0.12
	// a speed of DefaultOrbitSpeed makes a quarter turn per second.
	speedUnit = 25
)

// Orbit moves the sound around the listener by sweeping the balance along a
// sine and lowering the gain with distance. While disabled it keeps the
// manual gain and balance applied.
type Orbit struct {
	gain    *Gain
	balance *Balance

	mu            sync.Mutex
	enabled       bool
	speed         float32
	distance      float32
	manualGain    float32
	manualBalance float32
	phase         float64
}

// NewOrbit drives g and b.
func NewOrbit(g *Gain, b *Balance) *Orbit {
	return &Orbit{
		gain:       g,
		balance:    b,
		speed:      DefaultOrbitSpeed,
		distance:   DefaultOrbitDistance,
		manualGain: UnityGain,
	}
}

// SetManualGain sets the gain applied before distance attenuation.
func (o *Orbit) SetManualGain(v float32) float32 {
	applied := clamp(v, MinGain, MaxGain)

	o.mu.Lock()
	o.manualGain = applied
	o.mu.Unlock()

	log.WithFields(logrus.Fields{
		"effect":    "gain",
		"requested": v,
		"applied":   applied,
	}).Debug("gain changed")

	return applied
}

// SetManualBalance sets the center of the sweep.
func (o *Orbit) SetManualBalance(v float32) float32 {
	applied := clamp(v, MinBalance, MaxBalance)

	o.mu.Lock()
	o.manualBalance = applied
	o.mu.Unlock()

	log.WithFields(logrus.Fields{
		"effect":    "balance",
		"requested": v,
		"applied":   applied,
	}).Debug("balance changed")

	return applied
}

// ManualGain returns the gain set by SetManualGain.
func (o *Orbit) ManualGain() float32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.manualGain
}

// ManualBalance returns the balance set by SetManualBalance.
func (o *Orbit) ManualBalance() float32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.manualBalance
}

func (o *Orbit) SetEnabled(enabled bool) {
	o.mu.Lock()
	o.enabled = enabled
	o.mu.Unlock()
}

func (o *Orbit) Enabled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.enabled
}

// SetSpeed sets the sweep speed in [0, MaxOrbitSpeed].
func (o *Orbit) SetSpeed(v float32) {
	o.mu.Lock()
	o.speed = clamp(v, 0, MaxOrbitSpeed)
	o.mu.Unlock()
}

// SetDistance sets the distance in [0, MaxOrbitDistance].
func (o *Orbit) SetDistance(v float32) {
	o.mu.Lock()
	o.distance = clamp(v, 0, MaxOrbitDistance)
	o.mu.Unlock()
}

// PanAmount is how far the sweep reaches from the center at a distance.
func PanAmount(distance float32) float32 {
	return clamp(distance/MaxOrbitDistance, 0, maxPanAmount)
}

// Attenuation is the gain factor at a distance.
func Attenuation(distance float32) float32 {
	return 1 / (1 + distance*distanceAttenuation)
}

// AngularVelocity is the sweep rate in radians per second at a speed.
func AngularVelocity(speed float32) float64 {
	return float64(speed) / speedUnit * (2 * math.Pi / 4)
}

// Step advances the orbit by dt and applies the result.
func (o *Orbit) Step(dt time.Duration) {
	o.mu.Lock()

	if !o.enabled {
		g, b := o.manualGain, o.manualBalance
		o.mu.Unlock()

		o.gain.SetGain(g)
		o.balance.SetBalance(b)
		return
	}

	o.phase += AngularVelocity(o.speed) * dt.Seconds()
	if o.phase > 2*math.Pi {
		o.phase -= 2 * math.Pi
	}

	offset := float32(math.Sin(o.phase)) * PanAmount(o.distance)
	b := o.manualBalance + offset
	g := o.manualGain * Attenuation(o.distance)

	o.mu.Unlock()

	o.balance.SetBalance(b)
	o.gain.SetGain(g)
}

// Run steps the orbit until ctx is done.
func (o *Orbit) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		o.Step(OrbitTick)

		if o.Enabled() {
			timer.Reset(OrbitTick)
		} else {
			timer.Reset(OrbitIdleTick)
		}
	}
}

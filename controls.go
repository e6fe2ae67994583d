package whisker

import (
	"github.com/noriah/whisker/display"
	"github.com/noriah/whisker/effect"
	"github.com/noriah/whisker/fader"
)

// Controls is the control plane handed to the output while running. It is
// safe for use from any goroutine.
type Controls struct {
	player   *fader.Player
	orbit    *effect.Orbit
	consumer *display.Consumer
}

func (c *Controls) Toggle()   { c.player.Toggle() }
func (c *Controls) Next()     { c.player.Next() }
func (c *Controls) Previous() { c.player.Previous() }

// StepGain moves the manual gain by delta.
func (c *Controls) StepGain(delta float64) {
	c.orbit.SetManualGain(c.orbit.ManualGain() + float32(delta))
}

// StepBalance moves the manual balance by delta.
func (c *Controls) StepBalance(delta float64) {
	c.orbit.SetManualBalance(c.orbit.ManualBalance() + float32(delta))
}

func (c *Controls) ToggleOrbit() {
	enabled := !c.orbit.Enabled()
	c.orbit.SetEnabled(enabled)

	log.WithField("enabled", enabled).Info("orbit toggled")
}

func (c *Controls) ToggleMirror() {
	c.consumer.SetMirror(!c.consumer.Mirror())
}

package dsp

// Silence gate defaults.
const (
	SilenceEnterMax   = 0.06
	SilenceExitMax    = 0.09
	SilenceExitFrames = 5
)

// UpdateSilence is the hysteresis predicate of the gate. A silent gate stays
// silent while maxEnergy is at or below exitMax; an active gate goes silent
// once maxEnergy drops below enterMax.
func UpdateSilence(current bool, maxEnergy, enterMax, exitMax float32) bool {
	if current {
		return maxEnergy <= exitMax
	}

	return maxEnergy < enterMax
}

// SilenceGate debounces UpdateSilence. Leaving silence takes ExitFrames
// consecutive frames above ExitMax.
type SilenceGate struct {
	EnterMax   float32
	ExitMax    float32
	ExitFrames int

	silent bool
	streak int
}

// NewSilenceGate returns an active gate with the default thresholds.
func NewSilenceGate() *SilenceGate {
	return &SilenceGate{
		EnterMax:   SilenceEnterMax,
		ExitMax:    SilenceExitMax,
		ExitFrames: SilenceExitFrames,
	}
}

// Update feeds the peak energy of one frame and reports whether the gate is
// silent afterwards.
func (g *SilenceGate) Update(maxEnergy float32) bool {
	if !g.silent {
		g.streak = 0
		g.silent = UpdateSilence(false, maxEnergy, g.EnterMax, g.ExitMax)
		return g.silent
	}

	if UpdateSilence(true, maxEnergy, g.EnterMax, g.ExitMax) {
		g.streak = 0
	} else {
		g.streak++
	}

	g.silent = g.streak < g.ExitFrames
	return g.silent
}

// Force puts the gate into silence and clears the exit streak.
func (g *SilenceGate) Force() {
	g.silent = true
	g.streak = 0
}

// Silent reports the current state.
func (g *SilenceGate) Silent() bool {
	return g.silent
}

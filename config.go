package whisker

import (
	"context"
	"fmt"
	"time"

	"github.com/noriah/whisker/display"
	"github.com/noriah/whisker/dsp"
	"github.com/noriah/whisker/effect"
	"github.com/noriah/whisker/fader"
	"github.com/noriah/whisker/input"
	"github.com/noriah/whisker/processor"
	"github.com/noriah/whisker/session"
	"github.com/pkg/errors"
)

const (
	// MaxFrameSize is the largest analysis frame.
	MaxFrameSize = 1 << 15
	// MinSlotCount is the smallest ring that leaves room for a delay.
	MinSlotCount = 3
	// DeriveVisualDelay selects a visual delay from the output latency.
	DeriveVisualDelay = -1
)

// SetupFunc is called before anything reads the output.
type SetupFunc func() error

// StartFunc is called once playback is about to start. The returned context
// replaces ctx, so an output can end the run.
type StartFunc func(ctx context.Context, controls *Controls) (context.Context, error)

// CleanupFunc is called when the run ends.
type CleanupFunc func() error

type Config struct {
	// The name of the capture backend from the input package. Empty picks
	// the platform default.
	Backend string
	// The name of the device to capture from
	Device string
	// Files to play. When set, files are played instead of capturing.
	Paths []string

	// The rate the output plays at, and the assumed analysis rate until a
	// stream reports its own
	SampleRate float64
	// Samples per channel per analyzed frame, a power of two
	FrameSize int
	// Frames kept for delay compensation
	SlotCount int
	// Spectrum bins per channel
	BinCount int
	// The number of channels to display (1 or 2)
	ChannelCount int
	// The number of frames drawn per second
	FrameRate int
	// Visual delay in milliseconds, or DeriveVisualDelay
	VisualDelayMs int
	// Output buffer length of the audio device
	OutputBuffer time.Duration

	// Initial effect settings. Out of range values are clamped.
	Gain          float64
	Balance       float64
	Orbit         bool
	OrbitSpeed    float64
	OrbitDistance float64

	// Fade lengths of the player
	Fades fader.Durations

	// Fold the bars around the center
	Mirror bool
	// Play without sound
	Mute bool

	// Function to call when setting up the pipeline
	SetupFunc SetupFunc
	// Function to call when starting the pipeline
	StartFunc StartFunc
	// Function to call when cleaning up the pipeline
	CleanupFunc CleanupFunc
	// Where to send the bars
	Output display.Output
}

func NewZeroConfig() Config {
	return Config{
		SampleRate:    session.DefaultSampleRate,
		FrameSize:     session.DefaultFrameSize,
		SlotCount:     session.DefaultSlotCount,
		BinCount:      session.DefaultBinCount,
		ChannelCount:  2,
		FrameRate:     display.DefaultFrameRate,
		VisualDelayMs: DeriveVisualDelay,
		Gain:          effect.UnityGain,
		OrbitSpeed:    effect.DefaultOrbitSpeed,
		OrbitDistance: effect.DefaultOrbitDistance,
		Fades:         fader.DefaultDurations(),
	}
}

func (cfg *Config) Validate() error {
	if cfg.SampleRate < float64(cfg.FrameSize) {
		return errors.New("sample rate lower than frame size")
	}

	if cfg.FrameSize < 4 {
		return errors.New("frame size too small (4+ required)")
	}

	switch {
	case cfg.FrameSize > MaxFrameSize:
		return fmt.Errorf("frame size too large (%d max)", MaxFrameSize)

	case cfg.FrameSize&(cfg.FrameSize-1) != 0:
		return fmt.Errorf("frame size %d is not a power of two", cfg.FrameSize)

	case cfg.SlotCount < MinSlotCount:
		return fmt.Errorf("too few ring slots (%d min)", MinSlotCount)

	case cfg.BinCount < dsp.MinBarCount:
		return fmt.Errorf("too few bins (%d min)", dsp.MinBarCount)

	case cfg.ChannelCount > 2:
		return errors.New("too many channels (2 max)")

	case cfg.ChannelCount < 1:
		return errors.New("too few channels (1 min)")

	case cfg.FrameRate < 0:
		return errors.New("negative frame rate")

	case cfg.VisualDelayMs > processor.MaxVisualDelay:
		return fmt.Errorf("visual delay too large (%dms max)", processor.MaxVisualDelay)

	case cfg.VisualDelayMs < DeriveVisualDelay:
		return errors.New("negative visual delay")

	case cfg.OutputBuffer < 0:
		return errors.New("negative output buffer")
	}

	fades := cfg.Fades
	if fades.Play < 0 || fades.Pause < 0 || fades.SkipOut < 0 || fades.SkipIn < 0 {
		return errors.New("negative fade length")
	}

	if cfg.Output == nil {
		return errors.New("no output")
	}

	if len(cfg.Paths) > 0 {
		for _, path := range cfg.Paths {
			if _, b := input.FindFileBackend(path); b == nil {
				return fmt.Errorf("no backend plays %q", path)
			}
		}

		return nil
	}

	backend := cfg.Backend
	if backend == "" {
		backend = input.DefaultBackend()
	}

	if !input.HasBackend(backend) {
		return fmt.Errorf("backend not found: %q", backend)
	}

	return nil
}

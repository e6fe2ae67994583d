package main

import (
	"time"

	"github.com/noriah/whisker"
	"github.com/noriah/whisker/graphic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// config holds the flag values.
type config struct {
	// backend is the backend name from list-backends
	backend string
	// device is the device name from list-devices
	device string
	// sampleRate is the output rate
	sampleRate float64
	// frameSize is the number of samples per analyzed frame
	frameSize int
	// frameRate is the number of frames to draw every second
	frameRate int
	// channelCount is the number of channels we want to look at
	channelCount int
	// delay is the visual delay in milliseconds, -1 to derive it
	delay int
	// bufferMs is the audio device buffer length
	bufferMs int
	gain     float64
	balance  float64
	orbit    bool
	speed    float64
	distance float64
	mirror   bool
	mute     bool
	// baseSize number of cells wide/high the base is
	baseSize int
	// barSize is the size of bars, in columns/rows
	barSize int
	// spaceSize is the size of spaces, in columns/rows
	spaceSize int
	// drawType is the bar layout
	drawType int
	// styles is the configuration for bar color styles
	styles graphic.Styles
	// raw prints numbers instead of drawing
	raw bool
	// rawBars is the number of numbers per channel in raw mode
	rawBars int

	logLevel string
	logFile  string
}

func newZeroConfig() config {
	defaults := whisker.NewZeroConfig()

	return config{
		sampleRate:   defaults.SampleRate,
		frameSize:    defaults.FrameSize,
		frameRate:    defaults.FrameRate,
		channelCount: defaults.ChannelCount,
		delay:        defaults.VisualDelayMs,
		bufferMs:     40,
		gain:         defaults.Gain,
		speed:        defaults.OrbitSpeed,
		distance:     defaults.OrbitDistance,
		baseSize:     1,
		barSize:      2,
		spaceSize:    1,
		drawType:     int(graphic.DrawDefault),
		styles:       graphic.DefaultStyles(),
		rawBars:      50,
		logLevel:     "warning",
	}
}

// validate checks the values only the command line owns. The rest is
// checked by whisker.Config.
func (cfg *config) validate() error {
	if _, err := logrus.ParseLevel(cfg.logLevel); err != nil {
		return err
	}

	if cfg.bufferMs < 0 {
		return errors.New("negative buffer length")
	}

	if cfg.raw && cfg.rawBars < 1 {
		return errors.New("raw output needs at least one bar")
	}

	return nil
}

func (cfg *config) whiskerConfig(paths []string) whisker.Config {
	wcfg := whisker.NewZeroConfig()

	wcfg.Backend = cfg.backend
	wcfg.Device = cfg.device
	wcfg.Paths = paths
	wcfg.SampleRate = cfg.sampleRate
	wcfg.FrameSize = cfg.frameSize
	wcfg.FrameRate = cfg.frameRate
	wcfg.ChannelCount = cfg.channelCount
	wcfg.VisualDelayMs = cfg.delay
	wcfg.OutputBuffer = time.Duration(cfg.bufferMs) * time.Millisecond
	wcfg.Gain = cfg.gain
	wcfg.Balance = cfg.balance
	wcfg.Orbit = cfg.orbit
	wcfg.OrbitSpeed = cfg.speed
	wcfg.OrbitDistance = cfg.distance
	wcfg.Mirror = cfg.mirror
	wcfg.Mute = cfg.mute

	return wcfg
}

func (cfg *config) graphicConfig() graphic.Config {
	return graphic.Config{
		BarWidth:   cfg.barSize,
		SpaceWidth: cfg.spaceSize,
		BaseThick:  cfg.baseSize,
		DrawType:   graphic.DrawType(cfg.drawType),
		Styles:     cfg.styles,
	}.Sanitized()
}

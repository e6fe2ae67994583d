package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/integrii/flaggy"
	"github.com/noriah/whisker"
	"github.com/noriah/whisker/graphic"
	"github.com/noriah/whisker/input"
	"github.com/sirupsen/logrus"

	_ "github.com/noriah/whisker/input/all"
)

// AppName is the app name
const AppName = "whisker"

// AppDesc is the app description
const AppDesc = "Terminal audio player with a delay compensated spectrum"

// AppSite is the app website
const AppSite = "https://github.com/noriah/whisker"

var version = "unknown"

func main() {
	cfg := newZeroConfig()

	paths, done := doFlags(&cfg)
	if done {
		return
	}

	chk(cfg.validate(), "invalid config")

	closeLog := setupLogging(&cfg)
	defer closeLog()

	wcfg := cfg.whiskerConfig(paths)

	if cfg.raw {
		wcfg.Output = NewRawOutput(os.Stdout, cfg.rawBars)
	} else {
		display := &graphic.Display{}

		wcfg.SetupFunc = func() error {
			return display.Init(cfg.graphicConfig())
		}

		wcfg.StartFunc = func(ctx context.Context, controls *whisker.Controls) (context.Context, error) {
			display.SetControls(controls)
			return display.Start(ctx), nil
		}

		wcfg.CleanupFunc = func() error {
			display.Stop()
			return display.Close()
		}

		wcfg.Output = display
	}

	// Root Context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	chk(whisker.Run(&wcfg, ctx), "failed to run whisker")
}

// setupLogging sends logs to the log file, or to stderr when there is none.
// It returns a func that closes the file.
func setupLogging(cfg *config) func() {
	level, _ := logrus.ParseLevel(cfg.logLevel)
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stderr)

	if cfg.logFile == "" {
		return func() {}
	}

	f, err := os.OpenFile(cfg.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	chk(err, "failed to open log file")

	logrus.SetOutput(f)
	logrus.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})

	return func() { f.Close() }
}

func doFlags(cfg *config) ([]string, bool) {

	parser := flaggy.NewParser(AppName)
	parser.Description = AppDesc
	parser.AdditionalHelpPrepend = AppSite
	parser.Version = version

	listBackendsCmd := flaggy.Subcommand{
		Name:                 "list-backends",
		ShortName:            "lb",
		Description:          "list all supported backends",
		AdditionalHelpAppend: "\nuse the full name after the '-'",
	}

	parser.AttachSubcommand(&listBackendsCmd, 1)

	listDevicesCmd := flaggy.Subcommand{
		Name:                 "list-devices",
		ShortName:            "ld",
		Description:          "list all devices for a backend",
		AdditionalHelpAppend: "\nuse the full name after the '-'",
	}

	parser.AttachSubcommand(&listDevicesCmd, 1)

	parser.String(&cfg.backend, "b", "backend", "capture backend name")
	parser.String(&cfg.device, "d", "device", "capture device name")
	parser.Float64(&cfg.sampleRate, "r", "rate", "output sample rate")
	parser.Int(&cfg.frameSize, "n", "samples", "samples per analyzed frame (power of two)")
	parser.Int(&cfg.frameRate, "f", "fps", "frames drawn per second")
	parser.Int(&cfg.channelCount, "ch", "channels", "channel count (1 or 2)")
	parser.Int(&cfg.delay, "vd", "delay", "visual delay in ms [0, 400], -1 to follow the output buffer")
	parser.Int(&cfg.bufferMs, "ob", "buffer", "output buffer in ms")
	parser.Float64(&cfg.gain, "g", "gain", "gain [0, 4]")
	parser.Float64(&cfg.balance, "bl", "balance", "balance [-1, 1]")
	parser.Bool(&cfg.orbit, "o", "orbit", "move the sound around the listener")
	parser.Float64(&cfg.speed, "os", "orbit-speed", "orbit speed [0, 50]")
	parser.Float64(&cfg.distance, "od", "orbit-distance", "orbit distance [0, 10]")
	parser.Bool(&cfg.mirror, "m", "mirror", "fold the bars around the center")
	parser.Bool(&cfg.mute, "x", "mute", "play without sound")
	parser.Int(&cfg.baseSize, "bt", "base", "base thickness [0, +Inf)")
	parser.Int(&cfg.barSize, "bw", "bar", "bar width [1, +Inf)")
	parser.Int(&cfg.spaceSize, "sw", "space", "space width [0, +Inf)")
	parser.Int(&cfg.drawType, "dt", "draw", "draw type (1 up, 2 up and down, 3 down)")
	parser.Bool(&cfg.raw, "raw", "raw", "print numbers instead of drawing")
	parser.Int(&cfg.rawBars, "rb", "raw-bars", "numbers per channel in raw mode")
	parser.String(&cfg.logLevel, "l", "log-level", "log level (panic, fatal, error, warning, info, debug, trace)")
	parser.String(&cfg.logFile, "lf", "log-file", "write logs to this file")

	fg, bg, center := cfg.styles.AsUInt16s()
	parser.UInt16(&fg, "fg", "foreground",
		"foreground color within the 256-color range [0, 255] with attributes")
	parser.UInt16(&bg, "bg", "background",
		"background color within the 256-color range [0, 255] with attributes")
	parser.UInt16(&center, "ct", "center",
		"center line color within the 256-color range [0, 255] with attributes")

	var paths []string
	parser.StringSlice(&paths, "p", "play", "audio file to play, repeat or list more after -- for a playlist")

	chk(parser.Parse(), "failed to parse arguments")

	// Manually set the styles.
	cfg.styles = graphic.StylesFromUInt16(fg, bg, center)

	paths = append(paths, parser.TrailingArguments...)

	switch {
	case listBackendsCmd.Used:
		for _, backend := range input.Backends {
			fmt.Printf("- %s\n", backend.Name)
		}

		return nil, true

	case listDevicesCmd.Used:
		if cfg.backend == "" {
			cfg.backend = input.DefaultBackend()
		}

		backend, err := input.InitBackend(cfg.backend)
		chk(err, "failed to init backend")

		devices, err := backend.Devices()
		chk(err, "failed to get devices")

		// We don't really need the default device to be indicated.
		defaultDevice, _ := backend.DefaultDevice()

		fmt.Printf("all devices for %q backend. '*' marks default\n", cfg.backend)

		for idx := range devices {
			star := ' '
			if defaultDevice != nil && devices[idx].String() == defaultDevice.String() {
				star = '*'
			}

			fmt.Printf("- %v %c\n", devices[idx], star)
		}

		return nil, true
	}

	return paths, false
}

func chk(err error, wrap string) {
	if err != nil {
		logrus.Fatalln(wrap+": ", err)
	}
}

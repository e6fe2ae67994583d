// Package whisker plays or captures audio, runs it through the effects and
// the analysis loop, and draws the resulting bars on an output.
package whisker

import (
	"context"
	"time"

	"github.com/noriah/whisker/display"
	"github.com/noriah/whisker/engine"
	"github.com/noriah/whisker/effect"
	"github.com/noriah/whisker/fader"
	"github.com/noriah/whisker/input"
	"github.com/noriah/whisker/session"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "whisker")

// PlaybackFormat is what files are decoded to and what the audio device
// plays at the configured rate.
func PlaybackFormat(sampleRate float64) input.Format {
	return input.Format{
		SampleRate:   int(sampleRate),
		ChannelCount: 2,
		Encoding:     input.EncodingPCM16,
	}
}

// Run plays until ctx is done, the output quits or the playlist ends.
func Run(cfg *Config, ctx context.Context) error {
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid config")
	}

	sess, err := session.New(session.Config{
		SampleRate:    cfg.SampleRate,
		FrameSize:     cfg.FrameSize,
		SlotCount:     cfg.SlotCount,
		BinCount:      cfg.BinCount,
		VisualDelayMs: cfg.VisualDelayMs,
	})
	if err != nil {
		return err
	}

	gain := effect.NewGain()
	balance := effect.NewBalance()

	orbit := effect.NewOrbit(gain, balance)
	orbit.SetManualGain(float32(cfg.Gain))
	orbit.SetManualBalance(float32(cfg.Balance))
	orbit.SetSpeed(float32(cfg.OrbitSpeed))
	orbit.SetDistance(float32(cfg.OrbitDistance))
	orbit.SetEnabled(cfg.Orbit)
	orbit.Step(0)

	graph := engine.NewGraph(input.Chain{sess.Tap(), gain, balance})

	deckCfg := engine.DeckConfig{OnActive: sess.SetPlaybackActive}

	capture := len(cfg.Paths) == 0

	var sink engine.Sink

	if capture {
		backend, err := startCapture(cfg, &deckCfg)
		if err != nil {
			return err
		}
		defer backend.Close()

		sink = engine.NewNullSink(graph)
	} else {
		deckCfg.Items = cfg.Paths
		deckCfg.Open = input.OpenFile
		deckCfg.Format = PlaybackFormat(cfg.SampleRate)

		if cfg.Mute {
			sink = engine.NewNullSink(graph)
		} else if sink, err = engine.NewOtoSink(graph, deckCfg.Format, cfg.OutputBuffer); err != nil {
			return err
		}
	}

	if cfg.VisualDelayMs == DeriveVisualDelay {
		sess.SetOutputLatency(int(sink.Latency() / time.Millisecond))
	}

	if cfg.SetupFunc != nil {
		if err := cfg.SetupFunc(); err != nil {
			sink.Close()
			return errors.Wrap(err, "failed to set up output")
		}
	}

	if cfg.CleanupFunc != nil {
		defer cfg.CleanupFunc()
	}

	consumer, err := display.New(display.Config{
		Store:    sess.Store(),
		Output:   cfg.Output,
		Channels: cfg.ChannelCount,
		Mirror:   cfg.Mirror,
		Active:   sess.PlaybackActive,
	})
	if err != nil {
		sink.Close()
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sess.Start(ctx)
	defer sess.Stop()

	deck := engine.NewDeck(graph, sink, deckCfg)
	defer deck.Close()

	if err := deck.Load(0); err != nil {
		return err
	}

	player := fader.NewPlayer(deck, fader.New(), cfg.Fades)
	controls := &Controls{player: player, orbit: orbit, consumer: consumer}

	if cfg.StartFunc != nil {
		if ctx, err = cfg.StartFunc(ctx, controls); err != nil {
			return errors.Wrap(err, "failed to start output")
		}
	}

	go orbit.Run(ctx)

	go func() {
		select {
		case <-deck.Done():
			log.Info("nothing left to play")
			cancel()
		case <-ctx.Done():
		}
	}()

	log.WithFields(logrus.Fields{
		"items":   deck.Len(),
		"capture": capture,
		"mute":    cfg.Mute,
		"delay":   sess.Processor().VisualDelay(),
	}).Info("starting")

	player.Play()

	return consumer.Run(ctx, display.NewTickerClock(cfg.FrameRate))
}

// startCapture turns the deck config into a single item playlist reading the
// capture device.
func startCapture(cfg *Config, deckCfg *engine.DeckConfig) (input.Backend, error) {
	name := cfg.Backend
	if name == "" {
		name = input.DefaultBackend()
	}

	backend, err := input.InitBackend(name)
	if err != nil {
		return nil, err
	}

	device, err := input.GetDevice(backend, cfg.Device)
	if err != nil {
		backend.Close()
		return nil, err
	}

	sessCfg := input.SessionConfig{
		Device:       device,
		SampleRate:   int(cfg.SampleRate),
		ChannelCount: 2,
		Encoding:     input.EncodingPCM16,
	}

	deckCfg.Items = []string{device.String()}
	deckCfg.Open = func(string) (input.Source, error) {
		src, err := backend.Start(sessCfg)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to start %s capture", name)
		}
		return src, nil
	}

	return backend, nil
}

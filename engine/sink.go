package engine

import (
	"context"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/noriah/whisker/input"
	"github.com/noriah/whisker/input/common/timer"
	"github.com/pkg/errors"
)

// DefaultBufferSize is the output buffer length asked of the audio device.
const DefaultBufferSize = 40 * time.Millisecond

const idleWait = 10 * time.Millisecond

// Sink consumes the render graph. Its volume is the one the fader moves.
type Sink interface {
	Play()
	Pause()
	IsPlaying() bool
	Volume() float64
	SetVolume(float64)
	// Latency is the output buffer length.
	Latency() time.Duration
	Close() error
}

// OtoSink plays through the system audio device.
type OtoSink struct {
	ctx     *oto.Context
	player  *oto.Player
	latency time.Duration
}

// NewOtoSink opens the audio device in format f and reads r from oto's
// goroutine. Only one can exist per process.
func NewOtoSink(r io.Reader, f input.Format, bufferSize time.Duration) (*OtoSink, error) {
	var otoFormat oto.Format

	switch f.Encoding {
	case input.EncodingPCM16:
		otoFormat = oto.FormatSignedInt16LE
	case input.EncodingFloat32:
		otoFormat = oto.FormatFloat32LE
	default:
		return nil, errors.Errorf("no output for encoding %s", f.Encoding)
	}

	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   f.SampleRate,
		ChannelCount: f.ChannelCount,
		Format:       otoFormat,
		BufferSize:   bufferSize,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open audio device")
	}
	<-ready

	log.WithFields(f.Fields()).WithField("buffer", bufferSize).Info("audio output ready")

	return &OtoSink{
		ctx:     ctx,
		player:  ctx.NewPlayer(r),
		latency: bufferSize,
	}, nil
}

func (s *OtoSink) Play()                  { s.player.Play() }
func (s *OtoSink) Pause()                 { s.player.Pause() }
func (s *OtoSink) IsPlaying() bool        { return s.player.IsPlaying() }
func (s *OtoSink) Volume() float64        { return s.player.Volume() }
func (s *OtoSink) SetVolume(v float64)    { s.player.SetVolume(v) }
func (s *OtoSink) Latency() time.Duration { return s.latency }

func (s *OtoSink) Close() error {
	s.player.Pause()
	return s.player.Close()
}

// NullSink drains the graph in real time without producing sound. It is used
// for capture sources and muted playback.
type NullSink struct {
	graph  *Graph
	reader *timer.Reader
	volume atomic.Uint64

	mu      sync.Mutex
	playing bool
	cancel  context.CancelFunc
	done    chan struct{}
	buf     []byte
}

// NewNullSink drains g, pacing by its format.
func NewNullSink(g *Graph) *NullSink {
	s := &NullSink{
		graph:  g,
		reader: timer.NewReader(g, g.Format),
		buf:    make([]byte, 4096),
	}
	s.volume.Store(math.Float64bits(1))
	return s
}

func (s *NullSink) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playing {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.playing = true
	s.cancel = cancel
	s.done = done

	go func() {
		defer close(done)

		for ctx.Err() == nil {
			if _, err := s.reader.Read(s.buf); err != nil {
				log.WithError(err).Warn("null sink read failed")
				return
			}

			// nothing to pace by without a source
			if !s.graph.Format().Valid() {
				select {
				case <-ctx.Done():
				case <-time.After(idleWait):
				}
			}
		}
	}()
}

// Pause stops draining and waits for the drain goroutine to leave Read.
func (s *NullSink) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.playing {
		return
	}

	s.cancel()
	<-s.done
	s.playing = false
}

func (s *NullSink) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *NullSink) Volume() float64 {
	return math.Float64frombits(s.volume.Load())
}

func (s *NullSink) SetVolume(v float64) {
	s.volume.Store(math.Float64bits(v))
}

func (s *NullSink) Latency() time.Duration {
	return 0
}

func (s *NullSink) Close() error {
	s.Pause()
	return nil
}

package whisker

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	_ "github.com/noriah/whisker/input/wavfile"
)

type recorder struct {
	mu     sync.Mutex
	frames int
}

func (r *recorder) Bins(channels int) int { return 32 }

func (r *recorder) Write(bins [][]float64, channels int) error {
	r.mu.Lock()
	r.frames++
	r.mu.Unlock()
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func writeTone(t *testing.T, frames int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tone.wav")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	data := make([]int, frames*2)
	for i := range data {
		if (i/2/50)%2 == 0 {
			data[i] = 12000
		} else {
			data[i] = -12000
		}
	}

	enc := wav.NewEncoder(f, 44100, 16, 2, 1)

	err = enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: 44100},
		Data:           data,
		SourceBitDepth: 16,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestValidate(t *testing.T) {
	base := NewZeroConfig()
	base.Output = &recorder{}
	base.Paths = []string{"/music/song.wav"}

	if err := base.Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}

	tests := map[string]func(*Config){
		"rate below frame": func(c *Config) { c.SampleRate = 512 },
		"tiny frame":       func(c *Config) { c.FrameSize = 2 },
		"frame not pow2":   func(c *Config) { c.FrameSize = 1000 },
		"huge frame":       func(c *Config) { c.FrameSize = 1 << 16; c.SampleRate = 1 << 20 },
		"few slots":        func(c *Config) { c.SlotCount = 2 },
		"few bins":         func(c *Config) { c.BinCount = 4 },
		"three channels":   func(c *Config) { c.ChannelCount = 3 },
		"no channels":      func(c *Config) { c.ChannelCount = 0 },
		"negative fps":     func(c *Config) { c.FrameRate = -1 },
		"long delay":       func(c *Config) { c.VisualDelayMs = 500 },
		"negative delay":   func(c *Config) { c.VisualDelayMs = -2 },
		"negative buffer":  func(c *Config) { c.OutputBuffer = -time.Millisecond },
		"negative fade":    func(c *Config) { c.Fades.Pause = -time.Second },
		"no output":        func(c *Config) { c.Output = nil },
		"unknown file":     func(c *Config) { c.Paths = []string{"/music/song.xyz"} },
		"unknown backend":  func(c *Config) { c.Paths = nil; c.Backend = "nope" },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := base
			cfg.Paths = append([]string(nil), base.Paths...)
			mutate(&cfg)

			if err := cfg.Validate(); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestRunPlaysToTheEnd(t *testing.T) {
	out := &recorder{}

	cfg := NewZeroConfig()
	cfg.Paths = []string{writeTone(t, 8820)}
	cfg.Output = out
	cfg.Mute = true
	cfg.FrameRate = 100

	var started *Controls
	var setup, cleanup bool

	cfg.SetupFunc = func() error {
		setup = true
		return nil
	}

	cfg.StartFunc = func(ctx context.Context, c *Controls) (context.Context, error) {
		started = c
		return ctx, nil
	}

	cfg.CleanupFunc = func() error {
		cleanup = true
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := Run(&cfg, ctx); err != nil {
		t.Fatal(err)
	}

	if ctx.Err() != nil {
		t.Fatal("run did not end with the playlist")
	}

	if !setup || !cleanup || started == nil {
		t.Fatalf("hooks: setup %v cleanup %v start %v", setup, cleanup, started != nil)
	}

	if out.count() == 0 {
		t.Fatal("no frames drawn")
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := NewZeroConfig()

	if err := Run(&cfg, context.Background()); err == nil {
		t.Fatal("expected an error without an output")
	}
}

// Package timer paces reads from an audio stream to real time, for when no
// audio device is consuming it.
package timer

import (
	"io"
	"time"

	"github.com/noriah/whisker/input"
)

// Reader hands out bytes from r no faster than the stream plays. The rate
// is taken from format before every read; a format change restarts the
// accounting.
type Reader struct {
	r      io.Reader
	format func() input.Format

	// Now and Sleep can be replaced for tests.
	Now   func() time.Time
	Sleep func(time.Duration)

	current input.Format
	start   time.Time
	frames  int64
}

// NewReader paces r by the format it reports.
func NewReader(r io.Reader, format func() input.Format) *Reader {
	return &Reader{
		r:      r,
		format: format,
		Now:    time.Now,
		Sleep:  time.Sleep,
	}
}

func (r *Reader) Read(p []byte) (int, error) {
	f := r.format()
	if f != r.current || r.start.IsZero() {
		r.current = f
		r.start = r.Now()
		r.frames = 0
	}

	n, err := r.r.Read(p)

	fb := f.FrameBytes()
	if fb == 0 || f.SampleRate <= 0 {
		return n, err
	}

	r.frames += int64(n / fb)

	due := r.start.Add(time.Duration(r.frames * int64(time.Second) / int64(f.SampleRate)))
	if wait := due.Sub(r.Now()); wait > 0 {
		r.Sleep(wait)
	}

	return n, err
}

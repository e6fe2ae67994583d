// Package execread provides a source that reads PCM from the stdout of a
// command.
package execread

import (
	"context"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/noriah/whisker/input"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "execread")

// stallFactor multiplies the play time of a read to get its deadline while
// the command is keeping up.
const stallFactor = 6

// Source is a running command producing raw PCM in a fixed format.
type Source struct {
	// OnStart is called when the command starts. Nil by default.
	OnStart func(ctx context.Context, cmd *exec.Cmd) error

	// SilenceOnStall makes Read return zeroed frames when the command falls
	// behind instead of blocking. Capture commands set this.
	SilenceOnStall bool

	// prevents cmd.Stderr from pointing to os.Stderr. false by default.
	DisconnectedStderr bool

	argv   []string
	format input.Format

	cmd    *exec.Cmd
	out    *os.File
	cancel context.CancelFunc

	expired   bool
	closeOnce sync.Once
}

// New creates a source for argv. The command must write interleaved PCM in
// format to stdout. It is not started until Start is called.
func New(argv []string, format input.Format) *Source {
	if len(argv) < 1 {
		panic("argv has no arg0")
	}

	return &Source{argv: argv, format: format}
}

// Start runs the command.
func (s *Source) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(ctx, s.argv[0], s.argv[1:]...)
	if !s.DisconnectedStderr {
		cmd.Stderr = os.Stderr
	}

	o, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return errors.Wrap(err, "failed to get stdout pipe")
	}

	// We need o as an *os.File for SetReadDeadline.
	of, ok := o.(*os.File)
	if !ok {
		cancel()
		return errors.New("stdout pipe is not an *os.File (bug)")
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return errors.Wrap(err, "failed to start "+s.argv[0])
	}

	s.cmd = cmd
	s.out = of
	s.cancel = cancel

	if s.OnStart != nil {
		if err := s.OnStart(ctx, cmd); err != nil {
			s.Close()
			return err
		}
	}

	log.WithField("cmd", s.argv[0]).WithFields(s.format.Fields()).Debug("started")

	return nil
}

// Format returns the format the command was asked to produce.
func (s *Source) Format() input.Format {
	return s.format
}

// Read reads raw PCM from the command. With SilenceOnStall set, a read that
// takes much longer than the audio it asks for returns silence instead.
func (s *Source) Read(p []byte) (int, error) {
	if s.out == nil {
		return 0, errors.New("source not started")
	}

	if !s.SilenceOnStall {
		return s.out.Read(p)
	}

	fb := s.format.FrameBytes()
	frames := len(p) / fb

	timeout := time.Duration(float64(frames) / float64(s.format.SampleRate) * float64(time.Second))
	// Once a deadline has passed we stay on the short timeout until the
	// command catches up. This smooths out the jitter.
	if !s.expired {
		timeout *= stallFactor
	}

	if err := s.out.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, errors.Wrap(err, "failed to set read deadline")
	}

	n, err := s.out.Read(p)
	if errors.Is(err, os.ErrDeadlineExceeded) {
		s.expired = true

		if n > 0 {
			return n, nil
		}

		n = frames * fb
		clear(p[:n])

		return n, nil
	}

	if n > 0 {
		s.expired = false
	}

	return n, err
}

// Close stops the command and waits for it to exit.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		if s.cancel == nil {
			return
		}

		s.cancel()
		s.out.Close()

		// the command is killed by the cancel, its exit error says nothing.
		s.cmd.Wait()
	})

	return nil
}

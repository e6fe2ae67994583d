// Package stdinput reads raw interleaved PCM from standard input.
package stdinput

import (
	"io"
	"os"

	"github.com/noriah/whisker/input"
	"github.com/pkg/errors"
)

func init() {
	input.RegisterBackend("stdin", StdinBackend{})
}

type StdinBackend struct{}

func (b StdinBackend) Init() error {
	return nil
}

func (b StdinBackend) Close() error {
	return nil
}

func (b StdinBackend) Devices() ([]input.Device, error) {
	return []input.Device{StdInputDevice{}}, nil
}

func (b StdinBackend) DefaultDevice() (input.Device, error) {
	return StdInputDevice{}, nil
}

// Start reads stdin in the format given by cfg. Nothing on the stream says
// what it holds, so the format must be right.
func (b StdinBackend) Start(cfg input.SessionConfig) (input.Source, error) {
	return NewSource(os.Stdin, cfg.Format())
}

type StdInputDevice struct{}

func (d StdInputDevice) String() string {
	return "stdin"
}

// Source is a raw PCM stream of a known format.
type Source struct {
	r      io.Reader
	format input.Format
}

// NewSource wraps r. If r is an io.Closer it is closed with the source.
func NewSource(r io.Reader, format input.Format) (*Source, error) {
	if !format.Valid() {
		return nil, errors.Errorf("invalid stdin format %s", format)
	}

	return &Source{r: r, format: format}, nil
}

func (s *Source) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

func (s *Source) Format() input.Format {
	return s.format
}

func (s *Source) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

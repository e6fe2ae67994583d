// Package mp3file decodes MP3 files. go-mp3 always emits 16 bit stereo.
package mp3file

import (
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
	"github.com/noriah/whisker/input"
	"github.com/pkg/errors"
)

func init() {
	input.RegisterBackend("mp3", Backend{})
}

type Backend struct{}

func (b Backend) Init() error {
	return nil
}

func (b Backend) Close() error {
	return nil
}

func (b Backend) Devices() ([]input.Device, error) {
	return nil, nil
}

func (b Backend) DefaultDevice() (input.Device, error) {
	return nil, errors.New("mp3 needs a file path as device")
}

func (b Backend) Extensions() []string {
	return []string{".mp3"}
}

func (b Backend) ParseDevice(name string) (input.Device, error) {
	if _, err := os.Stat(name); err != nil {
		return nil, errors.Wrap(err, "failed to stat file")
	}

	return File(name), nil
}

func (b Backend) Start(cfg input.SessionConfig) (input.Source, error) {
	dv, ok := cfg.Device.(File)
	if !ok {
		return nil, fmt.Errorf("invalid device type %T", cfg.Device)
	}

	return Open(string(dv))
}

// File is a path to an MP3 file.
type File string

func (f File) String() string {
	return string(f)
}

// Source streams a decoded MP3.
type Source struct {
	r      io.Reader
	dec    *mp3.Decoder
	format input.Format
}

// Open opens the file at path.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open mp3")
	}

	src, err := NewSource(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, path)
	}

	return src, nil
}

// NewSource decodes r. If r is an io.Closer it is closed with the source.
func NewSource(r io.Reader) (*Source, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode mp3")
	}

	return &Source{
		r:   r,
		dec: dec,
		format: input.Format{
			SampleRate:   dec.SampleRate(),
			ChannelCount: 2,
			Encoding:     input.EncodingPCM16,
		},
	}, nil
}

func (s *Source) Format() input.Format {
	return s.format
}

// Length returns the decoded length in bytes, or -1 when the input cannot
// seek.
func (s *Source) Length() int64 {
	return s.dec.Length()
}

func (s *Source) Read(p []byte) (int, error) {
	return s.dec.Read(p)
}

func (s *Source) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

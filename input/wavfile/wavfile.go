// Package wavfile decodes integer PCM WAV files to 16 bit PCM.
package wavfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/noriah/whisker/input"
	"github.com/pkg/errors"
)

// chunkFrames is how many frames are decoded per refill.
const chunkFrames = 4096

const wavFormatPCM = 1

func init() {
	input.RegisterBackend("wav", Backend{})
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
	return nil, errors.New("wav needs a file path as device")
}

func (b Backend) Extensions() []string {
	return []string{".wav", ".wave"}
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

// File is a path to a WAV file.
type File string

func (f File) String() string {
	return string(f)
}

// Source streams the samples of a WAV file as little endian int16.
type Source struct {
	r      io.ReadSeeker
	dec    *wav.Decoder
	format input.Format
	depth  int

	buf     audio.IntBuffer
	encoded []byte
	pending []byte
}

// Open opens the file at path.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open wav")
	}

	src, err := NewSource(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, path)
	}

	return src, nil
}

// NewSource reads the header of r. If r is an io.Closer it is closed with
// the source.
func NewSource(r io.ReadSeeker) (*Source, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}

	if dec.WavAudioFormat != wavFormatPCM {
		return nil, errors.Errorf("unsupported WAV audio format %d", dec.WavAudioFormat)
	}

	depth := int(dec.BitDepth)
	switch depth {
	case 8, 16, 24, 32:
	default:
		return nil, errors.Errorf("unsupported bit depth %d", depth)
	}

	af := dec.Format()
	if af.NumChannels < 1 || af.SampleRate < 1 {
		return nil, errors.Errorf("bad WAV format %d channels at %dHz", af.NumChannels, af.SampleRate)
	}

	samples := chunkFrames * af.NumChannels

	return &Source{
		r:   r,
		dec: dec,
		format: input.Format{
			SampleRate:   af.SampleRate,
			ChannelCount: af.NumChannels,
			Encoding:     input.EncodingPCM16,
		},
		depth:   depth,
		buf:     audio.IntBuffer{Format: af, Data: make([]int, samples), SourceBitDepth: depth},
		encoded: make([]byte, samples*2),
	}, nil
}

func (s *Source) Format() input.Format {
	return s.format
}

// BitDepth returns the bit depth stored in the file.
func (s *Source) BitDepth() int {
	return s.depth
}

func (s *Source) Read(p []byte) (int, error) {
	for len(s.pending) == 0 {
		n, err := s.dec.PCMBuffer(&s.buf)
		if err != nil {
			return 0, errors.Wrap(err, "failed to decode wav")
		}

		if n == 0 {
			return 0, io.EOF
		}

		s.pending = ToPCM16(s.encoded, s.buf.Data[:n], s.depth)
	}

	n := copy(p, s.pending)
	s.pending = s.pending[n:]

	return n, nil
}

func (s *Source) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ToPCM16 writes samples of the given bit depth to dst as little endian
// int16 and returns the written part of dst. 8 bit samples are unsigned.
func ToPCM16(dst []byte, src []int, depth int) []byte {
	dst = dst[:len(src)*2]

	for i, v := range src {
		switch depth {
		case 8:
			v = (v - 128) << 8
		case 24:
			v >>= 8
		case 32:
			v >>= 16
		}

		binary.LittleEndian.PutUint16(dst[i*2:], uint16(int16(v)))
	}

	return dst
}

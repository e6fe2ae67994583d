// Package input describes PCM streams: their format, the sources that produce
// them and the processors that sit in the render path.
package input

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "input")

// Encoding is the sample encoding of a PCM stream. All encodings are little
// endian and interleaved.
type Encoding int

const (
	EncodingInvalid Encoding = iota
	EncodingPCM16
	EncodingFloat32
)

// BytesPerSample returns the size of one sample of one channel, or 0 for an
// unknown encoding.
func (e Encoding) BytesPerSample() int {
	switch e {
	case EncodingPCM16:
		return 2
	case EncodingFloat32:
		return 4
	default:
		return 0
	}
}

func (e Encoding) String() string {
	switch e {
	case EncodingPCM16:
		return "s16le"
	case EncodingFloat32:
		return "f32le"
	default:
		return "invalid"
	}
}

// ParseEncoding maps a name as printed by Encoding.String back to the
// encoding.
func ParseEncoding(name string) (Encoding, error) {
	switch name {
	case "s16le", "pcm16", "s16":
		return EncodingPCM16, nil
	case "f32le", "float32", "f32":
		return EncodingFloat32, nil
	default:
		return EncodingInvalid, fmt.Errorf("unknown encoding %q", name)
	}
}

// Format describes a PCM stream.
type Format struct {
	SampleRate   int
	ChannelCount int
	Encoding     Encoding
}

// FrameBytes returns the size of one sample across all channels.
func (f Format) FrameBytes() int {
	return f.ChannelCount * f.Encoding.BytesPerSample()
}

// Valid reports whether the format describes a playable stream.
func (f Format) Valid() bool {
	return f.SampleRate > 0 && f.ChannelCount > 0 && f.Encoding.BytesPerSample() > 0
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz %dch %s", f.SampleRate, f.ChannelCount, f.Encoding)
}

// Fields returns the format as log fields.
func (f Format) Fields() logrus.Fields {
	return logrus.Fields{
		"rate":     f.SampleRate,
		"channels": f.ChannelCount,
		"encoding": f.Encoding.String(),
	}
}

// Device is something a backend can read from.
type Device interface {
	String() string
}

// SessionConfig is handed to a backend when a source is started.
type SessionConfig struct {
	Device       Device
	SampleRate   int      // requested rate, capture backends only
	ChannelCount int      // requested channels, capture backends only
	Encoding     Encoding // requested encoding, capture backends only
}

// Format returns the format requested by the config.
func (cfg SessionConfig) Format() Format {
	return Format{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.ChannelCount,
		Encoding:     cfg.Encoding,
	}
}

// Source is a started stream of interleaved PCM in Format().
type Source interface {
	io.ReadCloser
	Format() Format
}

package ffmpeg

import (
	"fmt"
	"os"

	"github.com/noriah/whisker/input"
	"github.com/pkg/errors"
)

// File decode parameters. Decoded files always come out as 16 bit stereo so
// that they can be tapped.
const (
	FileSampleRate   = 44100
	FileChannelCount = 2
)

func init() {
	input.RegisterBackend("ffmpeg-file", File{})
}

// File decodes any file ffmpeg understands.
type File struct{}

func (f File) Init() error {
	return nil
}

func (f File) Close() error {
	return nil
}

func (f File) Devices() ([]input.Device, error) {
	return nil, nil
}

func (f File) DefaultDevice() (input.Device, error) {
	return nil, errors.New("ffmpeg-file needs a file path as device")
}

func (f File) Extensions() []string {
	return []string{".flac", ".ogg", ".oga", ".opus", ".m4a", ".aac", ".wma", ".aiff", ".aif"}
}

func (f File) ParseDevice(name string) (input.Device, error) {
	if _, err := os.Stat(name); err != nil {
		return nil, errors.Wrap(err, "failed to stat file")
	}

	return FileDevice(name), nil
}

func (f File) Start(cfg input.SessionConfig) (input.Source, error) {
	dv, ok := cfg.Device.(FileDevice)
	if !ok {
		return nil, fmt.Errorf("invalid device type %T", cfg.Device)
	}

	cfg.SampleRate = FileSampleRate
	cfg.ChannelCount = FileChannelCount
	cfg.Encoding = input.EncodingPCM16

	return NewSource(dv, cfg, false)
}

// FileDevice is a path to a media file.
type FileDevice string

func (d FileDevice) InputArgs() []string {
	return []string{"-i", string(d)}
}

func (d FileDevice) String() string {
	return string(d)
}

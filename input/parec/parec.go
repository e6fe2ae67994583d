// Package parec captures PulseAudio sources through the parec command.
package parec

import (
	"context"
	"fmt"

	"github.com/lawl/pulseaudio"
	"github.com/noriah/whisker/input"
	"github.com/noriah/whisker/input/common/execread"
	"github.com/pkg/errors"
)

func init() {
	input.RegisterBackend("parec", Backend{})
}

type Backend struct{}

func (p Backend) Init() error {
	return nil
}

func (p Backend) Close() error {
	return nil
}

// Devices lists the PulseAudio sources, monitors of sinks included.
func (p Backend) Devices() ([]input.Device, error) {
	c, err := pulseaudio.NewClient()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create client")
	}
	defer c.Close()

	s, err := c.Sources()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sources")
	}

	var devices = make([]input.Device, len(s))
	for i, source := range s {
		devices[i] = PulseDevice(source.Name)
	}

	return devices, nil
}

// DefaultDevice returns the monitor of the default sink when the server can
// be reached, so that whatever is playing is captured.
func (p Backend) DefaultDevice() (input.Device, error) {
	c, err := pulseaudio.NewClient()
	if err != nil {
		return PulseDevice("default"), nil
	}
	defer c.Close()

	info, err := c.ServerInfo()
	if err != nil || info.DefaultSink == "" {
		return PulseDevice("default"), nil
	}

	return PulseDevice(info.DefaultSink + ".monitor"), nil
}

func (p Backend) Start(cfg input.SessionConfig) (input.Source, error) {
	return NewSource(cfg)
}

type PulseDevice string

// InputArgs returns the ffmpeg input arguments for the device.
func (d PulseDevice) InputArgs() []string {
	return []string{"-f", "pulse", "-i", string(d)}
}

func (d PulseDevice) String() string {
	return string(d)
}

// NewSource starts parec on the configured device.
func NewSource(cfg input.SessionConfig) (*execread.Source, error) {
	dv, ok := cfg.Device.(PulseDevice)
	if !ok {
		return nil, fmt.Errorf("invalid device type %T", cfg.Device)
	}

	if cfg.ChannelCount > 2 || cfg.ChannelCount < 1 {
		return nil, errors.New("channel count not supported, mono/stereo only")
	}

	format := "s16le"
	if cfg.Encoding == input.EncodingFloat32 {
		format = "float32le"
	}

	src := execread.New([]string{
		"parec",
		"--format=" + format,
		fmt.Sprintf("--rate=%d", cfg.SampleRate),
		fmt.Sprintf("--channels=%d", cfg.ChannelCount),
		"-d", dv.String(),
	}, cfg.Format())

	src.SilenceOnStall = true

	if err := src.Start(context.Background()); err != nil {
		return nil, err
	}

	return src, nil
}

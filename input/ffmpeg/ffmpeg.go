// Package ffmpeg captures and decodes audio through the ffmpeg command.
package ffmpeg

import (
	"context"
	"fmt"

	"github.com/noriah/whisker/input"
	"github.com/noriah/whisker/input/common/execread"
)

type FFmpegBackend interface {
	InputArgs() []string
}

// NewSource starts ffmpeg reading from b and writing raw PCM in the format
// requested by cfg. Capture sources return silence when ffmpeg stalls.
func NewSource(b FFmpegBackend, cfg input.SessionConfig, capture bool) (*execread.Source, error) {
	codec := "s16le"
	if cfg.Encoding == input.EncodingFloat32 {
		codec = "f32le"
	}

	args := []string{"ffmpeg", "-hide_banner", "-loglevel", "panic"}
	args = append(args, b.InputArgs()...)
	args = append(args,
		"-vn",
		"-ar", fmt.Sprintf("%d", cfg.SampleRate),
		"-ac", fmt.Sprintf("%d", cfg.ChannelCount),
		"-f", codec,
		"-",
	)

	src := execread.New(args, cfg.Format())
	src.SilenceOnStall = capture

	if err := src.Start(context.Background()); err != nil {
		return nil, err
	}

	return src, nil
}

package input

import (
	"encoding/binary"

	"github.com/noriah/whisker/buffer"
)

// Tap copies stereo PCM16 audio into a ring as it passes through the render
// path. It never changes the buffer it is handed.
type Tap struct {
	ring *buffer.Ring

	// OnFormat, when set, is called with the sample rate each time tapping
	// is enabled by Configure.
	OnFormat func(sampleRate int)

	format  Format
	enabled bool
}

// NewTap returns a tap writing into ring.
func NewTap(ring *buffer.Ring, onFormat func(sampleRate int)) *Tap {
	return &Tap{ring: ring, OnFormat: onFormat}
}

// Configure enables the tap for 2 channel PCM16 streams only. Other formats
// pass through untouched.
func (t *Tap) Configure(f Format) Format {
	changed := f != t.format
	t.format = f
	t.enabled = f.ChannelCount == 2 && f.Encoding == EncodingPCM16

	if changed {
		entry := log.WithFields(f.Fields())
		if t.enabled {
			entry.Info("tapping stream for analysis")
		} else {
			entry.Info("stream format not tappable, passing through")
		}
	}

	if t.enabled && t.OnFormat != nil {
		t.OnFormat(f.SampleRate)
	}

	return f
}

// Enabled reports whether the current format is being tapped.
func (t *Tap) Enabled() bool {
	return t.enabled
}

// Process writes each complete sample pair of buf to the ring and returns
// buf as is.
func (t *Tap) Process(buf []byte) []byte {
	if !t.enabled {
		return buf
	}

	for i := 0; i+4 <= len(buf); i += 4 {
		left := int16(binary.LittleEndian.Uint16(buf[i:]))
		right := int16(binary.LittleEndian.Uint16(buf[i+2:]))

		t.ring.Write(float32(left)/32768, float32(right)/32768)
	}

	return buf
}

// Flush moves the ring write cursor past the last published frame.
func (t *Tap) Flush() {
	t.ring.ResetWriteCursor()
}

// Reset clears the ring.
func (t *Tap) Reset() {
	t.ring.Reset()
}

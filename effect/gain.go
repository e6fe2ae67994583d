package effect

import "github.com/noriah/whisker/input"

// Gain scales every sample by a linear factor in [MinGain, MaxGain].
type Gain struct {
	gain atomicFloat

	format      input.Format
	passthrough bool
	sampleBytes int
	out         outBuffer
}

func NewGain() *Gain {
	g := &Gain{passthrough: true}
	g.gain.Store(UnityGain)
	return g
}

// SetGain clamps v to [MinGain, MaxGain], stores it and returns the stored
// value. Safe from any goroutine.
func (g *Gain) SetGain(v float32) float32 {
	v = clamp(v, MinGain, MaxGain)
	g.gain.Store(v)
	return v
}

func (g *Gain) Gain() float32 {
	return g.gain.Load()
}

// Configure passes PCM16 and Float32 through the gain, anything else as is.
func (g *Gain) Configure(f input.Format) input.Format {
	g.passthrough = !scaleable(f.Encoding)
	g.sampleBytes = f.Encoding.BytesPerSample()

	changed := f != g.format
	g.format = f

	if changed && g.passthrough {
		log.WithFields(f.Fields()).WithField("effect", "gain").Debug("passthrough")
	}

	return f
}

// Process returns in itself when the gain is exactly 1 or the format is not
// handled, otherwise a scaled copy. A trailing partial sample is copied
// unchanged.
func (g *Gain) Process(in []byte) []byte {
	gain := g.Gain()
	if g.passthrough || gain == UnityGain || len(in) == 0 {
		return in
	}

	out := g.out.get(len(in))
	whole := len(in) - len(in)%g.sampleBytes

	if g.sampleBytes == 2 {
		for i := 0; i < whole; i += 2 {
			put16(out[i:], scale16(get16(in[i:]), gain))
		}
	} else {
		for i := 0; i < whole; i += 4 {
			putFloat(out[i:], scaleFloat(getFloat(in[i:]), gain))
		}
	}

	copy(out[whole:], in[whole:])

	return out
}

func (g *Gain) Flush() {}

func (g *Gain) Reset() {}

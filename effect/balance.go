package effect

import "github.com/noriah/whisker/input"

// ChannelGains returns the linear gains of the left and right channel for a
// balance in [-1, 1]. The side the balance leans to keeps full level.
func ChannelGains(balance float32) (left, right float32) {
	left, right = 1, 1

	if balance > 0 {
		left = 1 - balance
	}

	if balance < 0 {
		right = 1 + balance
	}

	return left, right
}

// Balance attenuates one side of a stereo stream.
type Balance struct {
	balance atomicFloat

	format      input.Format
	passthrough bool
	sampleBytes int
	out         outBuffer
}

func NewBalance() *Balance {
	return &Balance{passthrough: true}
}

// SetBalance clamps v to [MinBalance, MaxBalance], stores it and returns the
// stored value. Safe from any goroutine.
func (b *Balance) SetBalance(v float32) float32 {
	v = clamp(v, MinBalance, MaxBalance)
	b.balance.Store(v)
	return v
}

func (b *Balance) Balance() float32 {
	return b.balance.Load()
}

// Configure handles 2 channel PCM16 and Float32 streams.
func (b *Balance) Configure(f input.Format) input.Format {
	b.passthrough = f.ChannelCount != 2 || !scaleable(f.Encoding)
	b.sampleBytes = f.Encoding.BytesPerSample()

	changed := f != b.format
	b.format = f

	if changed && b.passthrough {
		log.WithFields(f.Fields()).WithField("effect", "balance").Debug("passthrough")
	}

	return f
}

// Process returns in itself when both channel gains are 1 or the format is
// not handled, otherwise a scaled copy. Trailing bytes short of a full
// stereo frame are copied unchanged.
func (b *Balance) Process(in []byte) []byte {
	left, right := ChannelGains(b.Balance())
	if b.passthrough || (left == 1 && right == 1) || len(in) == 0 {
		return in
	}

	out := b.out.get(len(in))

	frame := 2 * b.sampleBytes
	whole := len(in) - len(in)%frame

	if b.sampleBytes == 2 {
		for i := 0; i < whole; i += 4 {
			put16(out[i:], scale16(get16(in[i:]), left))
			put16(out[i+2:], scale16(get16(in[i+2:]), right))
		}
	} else {
		for i := 0; i < whole; i += 8 {
			putFloat(out[i:], scaleFloat(getFloat(in[i:]), left))
			putFloat(out[i+4:], scaleFloat(getFloat(in[i+4:]), right))
		}
	}

	copy(out[whole:], in[whole:])

	return out
}

func (b *Balance) Flush() {}

func (b *Balance) Reset() {}

// Package effect holds the sample domain processors of the render path and
// the control loop that automates them.
package effect

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/noriah/whisker/input"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "effect")

const (
	MinGain   = 0
	MaxGain   = 4
	UnityGain = 1

	MinBalance = -1
	MaxBalance = 1
)

// Parameters is a snapshot of the effect settings.
type Parameters struct {
	Gain      float32
	Balance   float32
	LeftGain  float32
	RightGain float32
}

// Snapshot reads the current parameters of g and b.
func Snapshot(g *Gain, b *Balance) Parameters {
	bal := b.Balance()
	left, right := ChannelGains(bal)

	return Parameters{
		Gain:      g.Gain(),
		Balance:   bal,
		LeftGain:  left,
		RightGain: right,
	}
}

// atomicFloat is a float32 that can be set from any goroutine.
type atomicFloat struct {
	bits atomic.Uint32
}

func (f *atomicFloat) Load() float32 {
	return math.Float32frombits(f.bits.Load())
}

func (f *atomicFloat) Store(v float32) {
	f.bits.Store(math.Float32bits(v))
}

// scaleable reports whether the gain processors know the encoding.
func scaleable(enc input.Encoding) bool {
	return enc == input.EncodingPCM16 || enc == input.EncodingFloat32
}

// scale16 multiplies a sample, truncating toward zero and saturating.
func scale16(v int16, g float32) int16 {
	out := int32(float32(v) * g)

	switch {
	case out > math.MaxInt16:
		return math.MaxInt16
	case out < math.MinInt16:
		return math.MinInt16
	}

	return int16(out)
}

func scaleFloat(v, g float32) float32 {
	out := v * g

	switch {
	case out > 1:
		return 1
	case out < -1:
		return -1
	}

	return out
}

func get16(b []byte) int16 {
	return int16(binary.LittleEndian.Uint16(b))
}

func put16(b []byte, v int16) {
	binary.LittleEndian.PutUint16(b, uint16(v))
}

func getFloat(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func putFloat(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

func clamp(v, lo, hi float32) float32 {
	switch {
	case v != v:
		return lo
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}

// outBuffer is a processor output buffer that only grows.
type outBuffer []byte

func (b *outBuffer) get(n int) []byte {
	if cap(*b) < n {
		*b = make([]byte, n)
	}
	return (*b)[:n]
}

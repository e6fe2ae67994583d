package dsp

import (
	"math"
	"testing"
	"time"
)

const frameDelta = 16 * time.Millisecond

func busySource(n int, frame int) []float32 {
	src := make([]float32, n)
	for i := range src {
		phase := float64(i)/float64(n)*6 + float64(frame)*0.3
		src[i] = float32(0.5 + 0.45*math.Sin(phase))
	}
	return src
}

func newTestEnvelope(t *testing.T, bars int, mirror bool) *Envelope {
	t.Helper()

	env, err := NewEnvelope(EnvelopeConfig{BarCount: bars, Mirror: mirror})
	if err != nil {
		t.Fatal(err)
	}

	return env
}

func TestEnvelopeBarCountClamped(t *testing.T) {
	env := newTestEnvelope(t, 2, false)

	if n := env.BarCount(); n != MinBarCount {
		t.Fatalf("bar count %d, want %d", n, MinBarCount)
	}

	if n := env.SetBarCount(500); n != MaxBarCount || env.BarCount() != MaxBarCount {
		t.Fatalf("bar count %d, want %d", n, MaxBarCount)
	}

	if n := env.SetBarCount(40); n != 40 {
		t.Fatalf("bar count %d, want 40", n)
	}
}

func TestEnvelopeRangeAndOrder(t *testing.T) {
	for _, mirror := range []bool{false, true} {
		env := newTestEnvelope(t, 48, mirror)
		now := time.Unix(0, 0)

		for frame := 0; frame < 400; frame++ {
			now = now.Add(frameDelta)

			out := env.Update(busySource(128, frame), now, frameDelta, true)
			if len(out) != 48 {
				t.Fatalf("got %d bars", len(out))
			}

			for i, v := range out {
				if v < 0 || v > 1 {
					t.Fatalf("frame %d bar %d out of range: %v", frame, i, v)
				}
			}

			if lo, hi := env.Range(); lo >= hi {
				t.Fatalf("frame %d: auto range %v >= %v", frame, lo, hi)
			}
		}

		if env.Silent() {
			t.Fatal("busy source left the gate silent")
		}

		moving := false
		for _, v := range env.bars {
			if v > 0 {
				moving = true
			}
		}

		if !moving {
			t.Fatalf("mirror=%v: every bar is zero for a busy source", mirror)
		}
	}
}

func TestEnvelopeSilenceGate(t *testing.T) {
	env := newTestEnvelope(t, 32, false)
	now := time.Unix(0, 0)

	loud := busySource(128, 0)
	quiet := make([]float32, 128)

	run := func(src []float32, frames int) []float32 {
		var out []float32
		for i := 0; i < frames; i++ {
			now = now.Add(frameDelta)
			out = env.Update(src, now, frameDelta, true)
		}
		return out
	}

	run(loud, 50)
	if env.Silent() {
		t.Fatal("gate silent on a loud source")
	}

	out := run(quiet, 1)
	if !env.Silent() {
		t.Fatal("gate did not close on silence")
	}

	for i, v := range out {
		if v != 0 {
			t.Fatalf("bar %d is %v while silent", i, v)
		}
	}

	if lo, hi := env.Range(); lo != 0 || hi != 1 {
		t.Fatalf("silent range %v..%v, want identity", lo, hi)
	}

	// four loud ticks are not enough to re-arm.
	out = run(loud, SilenceExitFrames-1)
	if !env.Silent() {
		t.Fatal("gate opened before the exit streak")
	}

	for i, v := range out {
		if v != 0 {
			t.Fatalf("bar %d is %v before re-arm", i, v)
		}
	}

	run(loud, 1)
	if env.Silent() {
		t.Fatal("gate still silent after the exit streak")
	}
}

func TestEnvelopeInactivePlayback(t *testing.T) {
	env := newTestEnvelope(t, 16, false)
	now := time.Unix(0, 0)

	for i := 0; i < 20; i++ {
		now = now.Add(frameDelta)
		env.Update(busySource(128, i), now, frameDelta, true)
	}

	now = now.Add(frameDelta)
	out := env.Update(busySource(128, 0), now, frameDelta, false)

	if !env.Silent() {
		t.Fatal("inactive playback did not force silence")
	}

	for i, v := range out {
		if v != 0 {
			t.Fatalf("bar %d is %v with playback stopped", i, v)
		}
	}
}

func TestEnvelopeProcessInterval(t *testing.T) {
	env := newTestEnvelope(t, 16, false)
	now := time.Unix(0, 0)

	env.Update(busySource(128, 0), now, frameDelta, true)
	first := env.last

	// a second frame 5ms later reuses the processed energies.
	env.Update(busySource(128, 1), now.Add(5*time.Millisecond), 5*time.Millisecond, true)
	if !env.last.Equal(first) {
		t.Fatal("processed again inside the interval")
	}

	env.Update(busySource(128, 2), now.Add(ProcessInterval), frameDelta, true)
	if env.last.Equal(first) {
		t.Fatal("did not process after the interval")
	}
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		name    string
		raw     float32
		current float32
		want    float32
	}{
		{"hold inside dead band", 0.012, 0, 0},
		{"step up", 0.02, 0, QuantStep},
		{"one level per call", 0.9, 0, QuantStep},
		{"step down", 0.07, 12 * QuantStep, 11 * QuantStep},
		{"hold near level", 0.097, 12 * QuantStep, 12 * QuantStep},
		{"bottom", 0, 0, 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := Quantize(test.raw, test.current, QuantStep, QuantDeadband)
			if math.Abs(float64(got-test.want)) > 1e-6 {
				t.Fatalf("Quantize(%v, %v) = %v, want %v", test.raw, test.current, got, test.want)
			}
		})
	}
}

func TestResample(t *testing.T) {
	src := []float32{0.1, 0.3, 0.5, 0.7, 0.01, 0.01, 1, 1}
	dst := make([]float32, 4)

	Resample(dst, src, ResampleFloor)

	want := []float32{0.2, 0.6, 0, 1}
	for i := range want {
		if math.Abs(float64(dst[i]-want[i])) > 1e-6 {
			t.Fatalf("resample = %v, want %v", dst, want)
		}
	}

	up := make([]float32, 16)
	Resample(up, src, 0)

	if up[1] != src[0] || up[15] != src[7] {
		t.Fatalf("upsample = %v", up)
	}
}

func TestFrequencyWeights(t *testing.T) {
	w := make([]float32, 128)
	FrequencyWeights(w)

	for i, v := range w {
		if v < 0.35 || v > 1.75 {
			t.Fatalf("weight %d = %v", i, v)
		}
	}

	// the kick bump sits near the bottom, the roll off at the top.
	if w[10] <= w[0] || w[127] >= w[64] {
		t.Fatalf("unexpected weight shape: %v %v %v %v", w[0], w[10], w[64], w[127])
	}

	one := make([]float32, 1)
	FrequencyWeights(one)
	if one[0] != 1 {
		t.Fatalf("single weight = %v", one[0])
	}
}

package fader

import (
	"sync"
	"testing"
	"time"
)

type volume struct {
	mu     sync.Mutex
	value  float64
	writes []float64
}

func (v *volume) Volume() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

func (v *volume) SetVolume(x float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = x
	v.writes = append(v.writes, x)
}

func (v *volume) history() []float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]float64(nil), v.writes...)
}

// fakeClock only moves when told to. Its ticker fires when the test sends.
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	ticks chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1000, 0), ticks: make(chan time.Time)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) newTicker(time.Duration) (<-chan time.Time, func()) {
	return c.ticks, func() {}
}

func newFakeFader() (*Fader, *fakeClock) {
	clock := newFakeClock()

	f := New()
	f.Now = clock.Now
	f.NewTicker = clock.newTicker

	return f, clock
}

// drive advances the clock a tick at a time until done closes.
func drive(t *testing.T, clock *fakeClock, done <-chan struct{}) {
	t.Helper()

	deadline := time.After(5 * time.Second)

	for {
		clock.advance(FadeTick)

		select {
		case <-done:
			return
		case clock.ticks <- time.Time{}:
		case <-deadline:
			t.Fatal("fade did not finish")
		}
	}
}

func TestFadeZeroDurationIsSynchronous(t *testing.T) {
	f, _ := newFakeFader()
	v := &volume{value: 1}

	called := false
	f.FadeTo(v, 0, 0, func() { called = true })

	if !called {
		t.Fatal("callback not called before return")
	}

	if v.Volume() != 0 {
		t.Fatalf("volume %v, want 0", v.Volume())
	}

	if f.Active() {
		t.Fatal("degenerate fade left a job running")
	}
}

func TestFadeTinyDeltaIsSynchronous(t *testing.T) {
	f, _ := newFakeFader()
	v := &volume{value: 0.5}

	called := false
	f.FadeTo(v, 0.5002, time.Second, func() { called = true })

	if !called || v.Volume() != 0.5002 {
		t.Fatalf("called %v, volume %v", called, v.Volume())
	}
}

func TestFadeTargetClamped(t *testing.T) {
	f, _ := newFakeFader()
	v := &volume{value: 0.5}

	f.FadeTo(v, 3, 0, nil)
	if v.Volume() != 1 {
		t.Fatalf("volume %v, want 1", v.Volume())
	}

	f.FadeTo(v, -1, 0, nil)
	if v.Volume() != 0 {
		t.Fatalf("volume %v, want 0", v.Volume())
	}
}

func TestFadeUpIsMonotonic(t *testing.T) {
	f, clock := newFakeFader()
	v := &volume{}

	done := make(chan struct{})
	f.FadeTo(v, 1, time.Second, func() { close(done) })

	drive(t, clock, done)

	writes := v.history()
	if len(writes) < 10 {
		t.Fatalf("only %d volume writes", len(writes))
	}

	for i := 1; i < len(writes); i++ {
		if writes[i] < writes[i-1] {
			t.Fatalf("volume fell from %v to %v", writes[i-1], writes[i])
		}
	}

	if last := writes[len(writes)-1]; last != 1 {
		t.Fatalf("final volume %v, want exactly 1", last)
	}

	if f.Active() {
		t.Fatal("finished fade still active")
	}
}

func TestFadeDownReachesZero(t *testing.T) {
	f, clock := newFakeFader()
	v := &volume{value: 0.8}

	done := make(chan struct{})
	f.FadeTo(v, 0, 500*time.Millisecond, func() { close(done) })

	drive(t, clock, done)

	if v.Volume() != 0 {
		t.Fatalf("volume %v, want 0", v.Volume())
	}
}

func TestCancelStopsFade(t *testing.T) {
	f, clock := newFakeFader()
	v := &volume{}

	called := make(chan struct{}, 1)
	f.FadeTo(v, 1, time.Second, func() { called <- struct{}{} })

	for i := 0; i < 3; i++ {
		clock.advance(FadeTick)
		clock.ticks <- time.Time{}
	}

	f.Cancel()
	writes := len(v.history())

	// let plenty of time pass. Nobody should be listening anymore.
	clock.advance(10 * time.Second)
	select {
	case clock.ticks <- time.Time{}:
		t.Fatal("cancelled fade still ticking")
	case <-time.After(50 * time.Millisecond):
	}

	if got := len(v.history()); got != writes {
		t.Fatalf("%d volume writes after cancel", got-writes)
	}

	select {
	case <-called:
		t.Fatal("cancelled fade called back")
	default:
	}
}

func TestNewFadeReplacesOld(t *testing.T) {
	f, clock := newFakeFader()
	v := &volume{}

	first := make(chan struct{}, 1)
	f.FadeTo(v, 1, time.Second, func() { first <- struct{}{} })

	done := make(chan struct{})
	f.FadeTo(v, 1, 100*time.Millisecond, func() { close(done) })

	drive(t, clock, done)

	select {
	case <-first:
		t.Fatal("replaced fade called back")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestSmoothstep(t *testing.T) {
	tests := map[float64]float64{0: 0, 0.5: 0.5, 1: 1, 0.25: 0.15625}

	for in, want := range tests {
		if got := Smoothstep(in); got != want {
			t.Errorf("Smoothstep(%v) = %v, want %v", in, got, want)
		}
	}
}

package effect

import (
	"context"
	"math"
	"testing"
	"time"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestOrbitDisabledAppliesManual(t *testing.T) {
	g, b := NewGain(), NewBalance()
	o := NewOrbit(g, b)

	o.SetManualGain(2)
	o.SetManualBalance(-0.3)
	o.Step(OrbitTick)

	if g.Gain() != 2 || b.Balance() != -0.3 {
		t.Fatalf("gain %v balance %v", g.Gain(), b.Balance())
	}
}

func TestOrbitSweep(t *testing.T) {
	g, b := NewGain(), NewBalance()
	o := NewOrbit(g, b)

	o.SetEnabled(true)
	o.SetSpeed(DefaultOrbitSpeed)
	o.SetDistance(5)

	// a quarter turn at the default speed takes one second.
	o.Step(time.Second)

	if !near(b.Balance(), 0.5) {
		t.Fatalf("balance %v, want 0.5", b.Balance())
	}

	if want := float32(1 / 1.6); !near(g.Gain(), want) {
		t.Fatalf("gain %v, want %v", g.Gain(), want)
	}

	// half a turn more and the sound is on the other side.
	o.Step(2 * time.Second)

	if !near(b.Balance(), -0.5) {
		t.Fatalf("balance %v, want -0.5", b.Balance())
	}
}

func TestOrbitBalanceClamped(t *testing.T) {
	g, b := NewGain(), NewBalance()
	o := NewOrbit(g, b)

	o.SetManualBalance(0.8)
	o.SetEnabled(true)
	o.SetDistance(MaxOrbitDistance)
	o.Step(time.Second)

	if b.Balance() != 1 {
		t.Fatalf("balance %v, want 1", b.Balance())
	}
}

func TestOrbitHelpers(t *testing.T) {
	if PanAmount(20) != maxPanAmount {
		t.Errorf("pan amount not capped: %v", PanAmount(20))
	}

	if PanAmount(3) != 0.3 {
		t.Errorf("PanAmount(3) = %v", PanAmount(3))
	}

	if Attenuation(0) != 1 {
		t.Errorf("Attenuation(0) = %v", Attenuation(0))
	}

	if got := AngularVelocity(50); math.Abs(got-math.Pi) > 1e-9 {
		t.Errorf("AngularVelocity(50) = %v, want pi", got)
	}
}

func TestOrbitRunStops(t *testing.T) {
	o := NewOrbit(NewGain(), NewBalance())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- o.Run(ctx) }()

	time.Sleep(2 * OrbitIdleTick)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("orbit did not stop")
	}
}

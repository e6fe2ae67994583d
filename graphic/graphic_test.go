package graphic

import (
	"os"
	"testing"

	"github.com/nsf/termbox-go"
)

func TestSanitized(t *testing.T) {
	cfg := Config{BarWidth: 0, SpaceWidth: -2, BaseThick: -1, DrawType: DrawMax}.Sanitized()

	if cfg.BarWidth != 1 || cfg.SpaceWidth != 0 || cfg.BaseThick != 0 {
		t.Fatalf("sanitized to %+v", cfg)
	}

	if cfg.BinWidth != 1 {
		t.Fatalf("bin width %d", cfg.BinWidth)
	}

	if cfg.DrawType != DrawDefault {
		t.Fatalf("draw type %s", cfg.DrawType)
	}
}

func TestBins(t *testing.T) {
	tests := []struct {
		dt       DrawType
		channels int
		want     int
	}{
		{DrawUpDown, 2, 26},
		{DrawUpDown, 1, 26},
		{DrawUp, 2, 13},
		{DrawDown, 1, 26},
		{DrawUp, 0, 26},
	}

	for _, test := range tests {
		cfg := Config{BarWidth: 2, SpaceWidth: 1, DrawType: test.dt}.Sanitized()

		if got := cfg.Bins(80, test.channels); got != test.want {
			t.Errorf("%s with %d channels: got %d, want %d", test.dt, test.channels, got, test.want)
		}
	}
}

func TestStopAndTop(t *testing.T) {
	tests := []struct {
		value float64
		up    bool
		stop  int
		top   rune
	}{
		{0, true, 10, SpaceRune},
		{2.5, true, 8, '▄'},
		{2.5, false, 2, '▄'},
		{3.125, false, 3, '▇'},
		{-1, true, 10, SpaceRune},
		{50, true, 0, SpaceRune},
		{50, false, 10, BarRune},
	}

	for _, test := range tests {
		stop, top := stopAndTop(test.value, 10, test.up)
		if stop != test.stop || top != test.top {
			t.Errorf("%v up=%v: got %d %q, want %d %q",
				test.value, test.up, stop, top, test.stop, test.top)
		}
	}
}

type controls struct {
	calls   []string
	gain    float64
	balance float64
}

func (c *controls) Toggle()                   { c.calls = append(c.calls, "toggle") }
func (c *controls) Next()                     { c.calls = append(c.calls, "next") }
func (c *controls) Previous()                 { c.calls = append(c.calls, "previous") }
func (c *controls) StepGain(delta float64)    { c.gain += delta }
func (c *controls) StepBalance(delta float64) { c.balance += delta }
func (c *controls) ToggleOrbit()              { c.calls = append(c.calls, "orbit") }
func (c *controls) ToggleMirror()             { c.calls = append(c.calls, "mirror") }

func TestHandleKey(t *testing.T) {
	d := &Display{cfg: Config{BarWidth: 2, SpaceWidth: 1, DrawType: DrawUp}.Sanitized()}

	ctl := &controls{}
	d.SetControls(ctl)

	keys := []termbox.Event{
		{Type: termbox.EventKey, Key: termbox.KeyArrowUp},
		{Type: termbox.EventKey, Key: termbox.KeyArrowLeft},
		{Type: termbox.EventKey, Key: termbox.KeySpace},
		{Type: termbox.EventKey, Ch: 'n'},
		{Type: termbox.EventKey, Ch: '<'},
		{Type: termbox.EventKey, Ch: '+'},
		{Type: termbox.EventKey, Ch: ']'},
		{Type: termbox.EventKey, Ch: 'o'},
		{Type: termbox.EventKey, Ch: 'm'},
		{Type: termbox.EventKey, Ch: 'd'},
	}

	for _, ev := range keys {
		if !d.handleKey(ev) {
			t.Fatalf("key %+v quit", ev)
		}
	}

	cfg := d.Config()
	if cfg.BarWidth != 3 || cfg.SpaceWidth != 0 || cfg.BinWidth != 3 {
		t.Fatalf("sizes %+v", cfg)
	}

	if cfg.DrawType != DrawUpDown {
		t.Fatalf("draw type %s", cfg.DrawType)
	}

	want := []string{"toggle", "next", "previous", "orbit", "mirror"}
	if len(ctl.calls) != len(want) {
		t.Fatalf("calls %v", ctl.calls)
	}

	for i := range want {
		if ctl.calls[i] != want[i] {
			t.Fatalf("calls %v, want %v", ctl.calls, want)
		}
	}

	if ctl.gain != GainStep || ctl.balance != BalanceStep {
		t.Fatalf("gain %v balance %v", ctl.gain, ctl.balance)
	}

	for _, ev := range []termbox.Event{{Ch: 'q'}, {Key: termbox.KeyCtrlC}, {Key: termbox.KeyEsc}} {
		if d.handleKey(ev) {
			t.Fatalf("key %+v did not quit", ev)
		}
	}
}

func TestDrawTypeCycles(t *testing.T) {
	d := &Display{cfg: Config{DrawType: DrawDown}.Sanitized()}

	d.SetDrawType(DrawDown + 1)
	if d.Config().DrawType != DrawUp {
		t.Fatalf("cycled to %s", d.Config().DrawType)
	}
}

func TestNormalizeTerminal(t *testing.T) {
	t.Setenv("TERM", "tmux-256color")
	t.Setenv("TERMINFO", "/nowhere")

	restore, err := normalizeTerminal()
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := os.LookupEnv("TERMINFO"); ok {
		t.Fatal("TERMINFO still set under tmux")
	}

	restore()

	if os.Getenv("TERMINFO") != "/nowhere" {
		t.Fatal("TERMINFO not restored")
	}
}

// Package graphic draws bars on the terminal with termbox.
package graphic

import (
	"context"
	"math"
	"sync"

	"github.com/nsf/termbox-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "graphic")

const (
	// BarRune is the block we use for bars
	BarRune rune = '█'

	// SpaceRune is the block we use for space
	SpaceRune rune = ' '

	// NumRunes number of runes for sub step bars
	NumRunes = 8

	// Control steps for the keyboard.
	GainStep    = 0.1
	BalanceStep = 0.1
)

// DrawType is the bar layout.
type DrawType int

const (
	DrawMin DrawType = iota
	DrawUp
	DrawUpDown
	DrawDown
	DrawMax

	DrawDefault = DrawUpDown
)

func (dt DrawType) String() string {
	switch dt {
	case DrawUp:
		return "up"
	case DrawUpDown:
		return "updown"
	case DrawDown:
		return "down"
	default:
		return "invalid"
	}
}

var barRunes = [2][NumRunes]rune{
	{
		SpaceRune,
		'▁',
		'▂',
		'▃',
		'▄',
		'▅',
		'▆',
		'▇',
	},
	{
		BarRune,
		'▇',
		'▆',
		'▅',
		'▄',
		'▃',
		'▂',
		'▁',
	},
}

// Controls is what the keyboard drives besides the layout.
type Controls interface {
	Toggle()
	Next()
	Previous()
	StepGain(delta float64)
	StepBalance(delta float64)
	ToggleOrbit()
	ToggleMirror()
}

// Config is the layout of the bars.
type Config struct {
	BarWidth   int
	SpaceWidth int
	BinWidth   int
	BaseThick  int
	DrawType   DrawType
	Styles     Styles
}

// Sanitized returns cfg with widths in range and BinWidth recomputed.
func (cfg Config) Sanitized() Config {
	if cfg.BarWidth < 1 {
		cfg.BarWidth = 1
	}

	if cfg.SpaceWidth < 0 {
		cfg.SpaceWidth = 0
	}

	if cfg.BaseThick < 0 {
		cfg.BaseThick = 0
	}

	if cfg.DrawType <= DrawMin || cfg.DrawType >= DrawMax {
		cfg.DrawType = DrawDefault
	}

	cfg.BinWidth = cfg.BarWidth + cfg.SpaceWidth

	return cfg
}

// Bins returns the number of bars per channel that fit in width columns.
func (cfg Config) Bins(width, channels int) int {
	if channels < 1 {
		channels = 1
	}

	switch cfg.DrawType {
	case DrawUp, DrawDown:
		return (width / cfg.BinWidth) / channels
	default:
		return width / cfg.BinWidth
	}
}

type state struct {
	Width  int
	Height int
}

// Display draws frames on the terminal and turns key presses into layout
// changes and controls.
type Display struct {
	mu       sync.Mutex
	cfg      Config
	controls Controls
	restore  func()
}

// Init sets up the terminal.
func (d *Display) Init(cfg Config) error {
	restore, err := normalizeTerminal()
	if err != nil {
		return errors.Wrap(err, "failed to prepare terminal")
	}

	if err := termbox.Init(); err != nil {
		restore()
		return errors.Wrap(err, "failed to init termbox")
	}

	termbox.SetInputMode(termbox.InputEsc)
	termbox.SetOutputMode(termbox.Output256)
	termbox.HideCursor()

	d.restore = restore
	d.cfg = cfg.Sanitized()

	return termbox.Clear(d.cfg.Styles.Background, d.cfg.Styles.Background)
}

// Close restores the terminal.
func (d *Display) Close() error {
	termbox.Close()

	if d.restore != nil {
		d.restore()
	}

	return nil
}

// SetControls sets the target of control keys.
func (d *Display) SetControls(c Controls) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.controls = c
}

// Config returns the current layout.
func (d *Display) Config() Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// SetSizes takes a bar width and spacing width.
func (d *Display) SetSizes(bar, space int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cfg.BarWidth = bar
	d.cfg.SpaceWidth = space
	d.cfg = d.cfg.Sanitized()
}

// SetDrawType changes the layout, cycling through the valid ones.
func (d *Display) SetDrawType(dt DrawType) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if dt >= DrawMax {
		dt = DrawMin + 1
	}

	d.cfg.DrawType = dt
	d.cfg = d.cfg.Sanitized()
}

// Start polls terminal events. The returned context is cancelled when the
// user quits.
func (d *Display) Start(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	go d.eventPoller(ctx, cancel)
	return ctx
}

// Stop unblocks the event poller.
func (d *Display) Stop() {
	termbox.Interrupt()
}

func (d *Display) eventPoller(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()

	for {
		ev := termbox.PollEvent()

		select {
		case <-ctx.Done():
			return
		default:
		}

		switch ev.Type {
		case termbox.EventInterrupt:
			return

		case termbox.EventError:
			log.WithError(ev.Err).Error("terminal event error")
			return

		case termbox.EventKey:
			if !d.handleKey(ev) {
				return
			}
		}
	}
}

// handleKey applies one key press. It returns false when the user quits.
func (d *Display) handleKey(ev termbox.Event) bool {
	cfg := d.Config()

	d.mu.Lock()
	controls := d.controls
	d.mu.Unlock()

	switch ev.Key {
	case termbox.KeyCtrlC, termbox.KeyEsc:
		return false

	case termbox.KeyArrowUp:
		d.SetSizes(cfg.BarWidth+1, cfg.SpaceWidth)

	case termbox.KeyArrowRight:
		d.SetSizes(cfg.BarWidth, cfg.SpaceWidth+1)

	case termbox.KeyArrowDown:
		d.SetSizes(cfg.BarWidth-1, cfg.SpaceWidth)

	case termbox.KeyArrowLeft:
		d.SetSizes(cfg.BarWidth, cfg.SpaceWidth-1)

	case termbox.KeySpace:
		if controls != nil {
			controls.Toggle()
		}
	}

	if ev.Ch == 'q' || ev.Ch == 'Q' {
		return false
	}

	if ev.Ch == 'd' || ev.Ch == 'D' {
		d.SetDrawType(cfg.DrawType + 1)
		return true
	}

	if controls == nil {
		return true
	}

	switch ev.Ch {
	case 'n', '>':
		controls.Next()
	case 'p', '<':
		controls.Previous()
	case '+', '=':
		controls.StepGain(GainStep)
	case '-', '_':
		controls.StepGain(-GainStep)
	case '[':
		controls.StepBalance(-BalanceStep)
	case ']':
		controls.StepBalance(BalanceStep)
	case 'o', 'O':
		controls.ToggleOrbit()
	case 'm', 'M':
		controls.ToggleMirror()
	}

	return true
}

// Bins returns the number of bars per channel the terminal fits.
func (d *Display) Bins(channels int) int {
	width, _ := termbox.Size()
	return d.Config().Bins(width, channels)
}

// Write draws one frame of bars with heights in [0, 1].
func (d *Display) Write(bins [][]float64, channels int) error {
	if len(bins) < 1 {
		return errors.New("not enough sets to draw")
	}

	if len(bins) > 2 {
		return errors.New("too many sets to draw")
	}

	cfg := d.Config()

	count := len(bins[0])
	for _, set := range bins[1:] {
		if len(set) < count {
			count = len(set)
		}
	}

	if count == 0 {
		return nil
	}

	width, height := termbox.Size()
	st := state{Width: width, Height: height}

	termbox.Clear(cfg.Styles.Background, cfg.Styles.Background)

	switch cfg.DrawType {
	case DrawUp:
		drawUp(bins, count, st, cfg)
	case DrawDown:
		drawDown(bins, count, st, cfg)
	default:
		drawUpDown(bins, count, st, cfg)
	}

	return termbox.Flush()
}

// stopAndTop splits a bar of value rows into the row it stops at and the
// partial rune on top. Up bars grow from height toward row 0, down bars from
// row 0 toward height.
func stopAndTop(value float64, height int, up bool) (int, rune) {
	if math.IsNaN(value) || value < 0 {
		value = 0
	}

	if limit := float64(height); value > limit {
		value = limit
	}

	whole, frac := math.Modf(value)
	top := int(frac * NumRunes)

	if up {
		return height - int(whole), barRunes[0][top]
	}

	return int(whole), barRunes[1][top]
}

package display

import "time"

// DefaultFrameRate is used when no frame rate is configured.
const DefaultFrameRate = 60

// FrameClock signals when the next display frame is due.
type FrameClock interface {
	Frames() <-chan time.Time
	Stop()
}

// TickerClock is a FrameClock running at a fixed rate.
type TickerClock struct {
	ticker *time.Ticker
}

// NewTickerClock ticks rate times a second. A rate below 1 selects
// DefaultFrameRate.
func NewTickerClock(rate int) *TickerClock {
	if rate < 1 {
		rate = DefaultFrameRate
	}

	return &TickerClock{ticker: time.NewTicker(time.Second / time.Duration(rate))}
}

func (c *TickerClock) Frames() <-chan time.Time { return c.ticker.C }
func (c *TickerClock) Stop()                    { c.ticker.Stop() }

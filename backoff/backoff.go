// Package backoff computes delays between fetch attempts. Nothing in this
// package sleeps except Sleep, which callers use to realize a computed delay.
package backoff

import (
	"context"
	"math/rand/v2"
	"time"
)

// Controller defaults observed for the continuous grabber.
const (
	DefaultBase   = 1 * time.Second
	DefaultMin    = 10 * time.Second
	DefaultMax    = 3600 * time.Second
	DefaultFactor = 2.0
)

// Jitter bounds applied by Controller.NextDelay.
const (
	JitterLow  = 0.8
	JitterHigh = 1.2
)

// Controller tracks a single scalar delay that grows multiplicatively on
// failure and resets to Base on success. One Controller belongs to one
// worker; it is not safe for concurrent use.
type Controller struct {
	// Base is the delay after construction and after every success.
	Base time.Duration
	// Min is a floor added to the current delay by NextDelay.
	Min time.Duration
	// Max caps the current delay.
	Max time.Duration
	// Factor multiplies the current delay on every failure.
	Factor float64
	// Rand returns a uniform value in [0, 1). Defaults to math/rand/v2.
	Rand func() float64

	current time.Duration
}

// NewController returns a Controller with the observed defaults and the
// given floor.
func NewController(min time.Duration) *Controller {
	return &Controller{
		Base:    DefaultBase,
		Min:     min,
		Max:     DefaultMax,
		Factor:  DefaultFactor,
		current: DefaultBase,
	}
}

// Current returns the current delay before floor and jitter.
func (c *Controller) Current() time.Duration {
	if c.current == 0 {
		return c.Base
	}
	return c.current
}

// ReportFailure grows the current delay by Factor, capped at Max.
func (c *Controller) ReportFailure() {
	next := time.Duration(float64(c.Current()) * c.Factor)
	if c.Max > 0 && next > c.Max {
		next = c.Max
	}
	c.current = next
}

// ReportSuccess resets the current delay to Base.
func (c *Controller) ReportSuccess() {
	c.current = c.Base
}

// NextDelay returns (Min + current) scaled by a fresh jitter drawn
// uniformly from [JitterLow, JitterHigh].
func (c *Controller) NextDelay() time.Duration {
	return Jitter(c.Min+c.Current(), JitterLow, JitterHigh, c.Rand)
}

// Fixed is a retry policy whose delay never grows.
type Fixed struct {
	Delay time.Duration
}

// NextDelay returns the fixed delay.
func (f Fixed) NextDelay() time.Duration {
	return f.Delay
}

// Pacing spaces out consecutive successful fetches so even an all-success
// batch never bursts the remote service.
type Pacing struct {
	Base time.Duration
	Low  float64
	High float64
	Rand func() float64
}

// DefaultPacing is 200ms scaled by U[0.5, 2.0].
var DefaultPacing = Pacing{Base: 200 * time.Millisecond, Low: 0.5, High: 2.0}

// NextDelay returns Base scaled by a jitter drawn from [Low, High].
func (p Pacing) NextDelay() time.Duration {
	return Jitter(p.Base, p.Low, p.High, p.Rand)
}

// Jitter scales d by a factor drawn uniformly from [low, high]. A nil
// source uses math/rand/v2.
func Jitter(d time.Duration, low, high float64, source func() float64) time.Duration {
	if source == nil {
		source = rand.Float64
	}
	return time.Duration(float64(d) * (low + (high-low)*source()))
}

// Sleep waits for d or until ctx is done, whichever comes first.
// Returns ctx.Err() if the context ended the wait.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

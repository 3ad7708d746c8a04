package library

import (
	"context"
	"sync"
	"time"
)

// ResendSeconds is where the OTP resend timer starts.
const ResendSeconds = 30

// Countdown is the resend timer shown on the OTP step. It only decides
// whether resending is offered; it never affects VerifyOTP.
type Countdown struct {
	mu        sync.Mutex
	remaining int
	interval  time.Duration
	onTick    func(remaining int)
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewCountdown builds a timer that counts down from ResendSeconds once per
// interval. onTick may be nil.
func NewCountdown(interval time.Duration, onTick func(remaining int)) *Countdown {
	return &Countdown{remaining: ResendSeconds, interval: interval, onTick: onTick}
}

// Start begins ticking. The timer stops at zero, on Stop, or when ctx ends.
func (c *Countdown) Start(ctx context.Context) {
	c.Stop()

	c.mu.Lock()
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	go c.run(ctx, done)
}

func (c *Countdown) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.remaining > 0 {
				c.remaining--
			}
			left := c.remaining
			c.mu.Unlock()

			if c.onTick != nil {
				c.onTick(left)
			}
			if left == 0 {
				return
			}
		}
	}
}

// Stop cancels the timer and waits for its goroutine to exit.
func (c *Countdown) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Reset rewinds to ResendSeconds and starts ticking again.
func (c *Countdown) Reset(ctx context.Context) {
	c.Stop()
	c.mu.Lock()
	c.remaining = ResendSeconds
	c.mu.Unlock()
	c.Start(ctx)
}

func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// CanResend reports whether the timer has run out.
func (c *Countdown) CanResend() bool {
	return c.Remaining() == 0
}

package game

import (
	"fmt"
	"time"

	"gers/internal/config"
)

// FPSLimiter provides high-precision frame rate limiting.
type FPSLimiter struct {
	next time.Time
}

// NewFPSLimiter creates a new FPS limiter.
func NewFPSLimiter() *FPSLimiter {
	return &FPSLimiter{}
}

// Wait blocks until the next frame is due under config.GetFPSLimit. It
// returns at once when the limit is 0 or vertical sync paces the loop.
// Uses a hybrid sleep/spin approach for better precision on high caps.
func (f *FPSLimiter) Wait() {
	limit := config.GetFPSLimit()
	if limit <= 0 || config.GetVSync() {
		f.next = time.Time{}
		return
	}

	target := time.Second / time.Duration(limit)

	if f.next.IsZero() {
		f.next = time.Now().Add(target)
	} else {
		f.next = f.next.Add(target)
	}

	for {
		remaining := time.Until(f.next)
		if remaining <= 0 {
			break
		}
		if remaining > 200*time.Microsecond {
			time.Sleep(remaining - 200*time.Microsecond)
		}
		// spin for the final few microseconds
		if time.Until(f.next) <= 0 {
			break
		}
	}

	// After a hitch, resync instead of rushing to catch up.
	if late := -time.Until(f.next); late > target {
		f.next = time.Now().Add(target)
	}
}

// FPSCounter counts frames and reports the rate once per second.
type FPSCounter struct {
	frames int
	since  time.Time
	fps    int
}

// Tick counts a frame finished at now. It returns true when a new rate is
// available.
func (c *FPSCounter) Tick(now time.Time) bool {
	if c.since.IsZero() {
		c.since = now
	}
	c.frames++
	elapsed := now.Sub(c.since)
	if elapsed < time.Second {
		return false
	}
	c.fps = int(float64(c.frames) / elapsed.Seconds())
	c.frames = 0
	c.since = now
	return true
}

// FPS returns the last reported rate.
func (c *FPSCounter) FPS() int { return c.fps }

// Title formats a window title carrying the rate.
func (c *FPSCounter) Title(base string) string {
	return fmt.Sprintf("%s | %d FPS", base, c.fps)
}

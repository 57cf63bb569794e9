// Package config holds engine settings. The frame settings are package-level
// and safe for concurrent use; a File is decoded once at startup and applied
// on top of the defaults.
package config

import (
	"sync"
	"time"
)

// Version is the engine version reported by the CLI and the default window
// title.
const Version = "0.4.0"

// FrameSettings holds main loop configuration.
type FrameSettings struct {
	mu        sync.RWMutex
	fpsLimit  int // 0 means uncapped
	vsync     bool
	slowFrame time.Duration
	trace     bool
}

var globalFrameSettings = &FrameSettings{
	fpsLimit:  60,
	vsync:     false,
	slowFrame: 16 * time.Millisecond,
}

// GetFPSLimit returns the frame cap, or 0 when uncapped.
func GetFPSLimit() int {
	globalFrameSettings.mu.RLock()
	defer globalFrameSettings.mu.RUnlock()
	return globalFrameSettings.fpsLimit
}

// SetFPSLimit sets the frame cap. Negative values mean uncapped.
func SetFPSLimit(limit int) {
	globalFrameSettings.mu.Lock()
	defer globalFrameSettings.mu.Unlock()

	if limit < 0 {
		limit = 0
	}
	if limit > 1000 {
		limit = 1000
	}
	globalFrameSettings.fpsLimit = limit
}

// GetVSync reports whether buffer swaps wait for vertical sync.
func GetVSync() bool {
	globalFrameSettings.mu.RLock()
	defer globalFrameSettings.mu.RUnlock()
	return globalFrameSettings.vsync
}

// SetVSync enables or disables vertical sync.
func SetVSync(enabled bool) {
	globalFrameSettings.mu.Lock()
	defer globalFrameSettings.mu.Unlock()
	globalFrameSettings.vsync = enabled
}

// GetSlowFrame returns the frame duration above which a frame is logged.
func GetSlowFrame() time.Duration {
	globalFrameSettings.mu.RLock()
	defer globalFrameSettings.mu.RUnlock()
	return globalFrameSettings.slowFrame
}

// SetSlowFrame sets the slow frame threshold. Zero disables the report.
func SetSlowFrame(d time.Duration) {
	globalFrameSettings.mu.Lock()
	defer globalFrameSettings.mu.Unlock()
	if d < 0 {
		d = 0
	}
	globalFrameSettings.slowFrame = d
}

// GetTrace reports whether call handle traffic is logged.
func GetTrace() bool {
	globalFrameSettings.mu.RLock()
	defer globalFrameSettings.mu.RUnlock()
	return globalFrameSettings.trace
}

// SetTrace enables or disables call handle tracing.
func SetTrace(enabled bool) {
	globalFrameSettings.mu.Lock()
	defer globalFrameSettings.mu.Unlock()
	globalFrameSettings.trace = enabled
}

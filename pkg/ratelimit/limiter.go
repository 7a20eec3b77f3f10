package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter defines the interface for pacing requests
type Limiter interface {
	// Wait blocks until the next request may be sent or ctx is done
	Wait(ctx context.Context) error
	// Delay reports the pause applied by Wait
	Delay() time.Duration
}

// FixedDelay pauses for the same duration on every Wait. The pipeline calls
// it after each unit of work, so consecutive requests are at least delay apart.
type FixedDelay struct {
	delay time.Duration
	mu    sync.Mutex
	waits int
}

// NewFixedDelay creates a limiter that sleeps for delay on every Wait.
// A zero delay makes Wait return immediately.
func NewFixedDelay(delay time.Duration) *FixedDelay {
	return &FixedDelay{delay: delay}
}

// Wait sleeps for the configured delay, returning early with ctx.Err()
// if ctx is cancelled.
func (f *FixedDelay) Wait(ctx context.Context) error {
	f.mu.Lock()
	f.waits++
	f.mu.Unlock()

	if f.delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(f.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Delay returns the configured pause
func (f *FixedDelay) Delay() time.Duration {
	return f.delay
}

// Waits returns how many times Wait has been called
func (f *FixedDelay) Waits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waits
}

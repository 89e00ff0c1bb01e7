package adapter

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Clock defines the time operations of a run: timestamps, run duration and the pauses
// between RPC calls. It also satisfies backoff.Clock.
//
//go:generate mockgen -source=clock.go -destination=../mocks/clock.go -package=mocks -mock_names=Clock=MockClock
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	After(d time.Duration) <-chan time.Time
}

// RealClock implements Clock using the standard time package
type RealClock struct{}

// NewClock creates a new real clock implementation
func NewClock() Clock {
	return &RealClock{}
}

func (c *RealClock) Now() time.Time {
	return time.Now()
}

func (c *RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

func (c *RealClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// clockTimer is a backoff.Timer waiting on a Clock
type clockTimer struct {
	clock Clock
	c     <-chan time.Time
}

// NewBackoffTimer returns a backoff.Timer whose waits go through the clock
func NewBackoffTimer(clock Clock) backoff.Timer {
	return &clockTimer{clock: clock}
}

func (t *clockTimer) Start(d time.Duration) {
	t.c = t.clock.After(d)
}

// Stop is a no-op: a pending After channel is buffered and simply dropped
func (t *clockTimer) Stop() {}

func (t *clockTimer) C() <-chan time.Time {
	return t.c
}

// Package pollertest provides a manual clock and an instant timer so polling
// loops can be exercised without sleeping.
package pollertest

import (
	"sync"
	"time"
)

type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Timer fires as soon as it is started and moves Clock forward by the
// requested duration. Waits records every duration it was started with.
type Timer struct {
	Clock *Clock

	mu    sync.Mutex
	c     chan time.Time
	waits []time.Duration
}

func NewTimer(clock *Clock) *Timer {
	return &Timer{Clock: clock}
}

func (t *Timer) Start(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.waits = append(t.waits, d)
	t.Clock.Advance(d)
	t.c = make(chan time.Time, 1)
	t.c <- t.Clock.Now()
}

func (t *Timer) Stop() {}

func (t *Timer) C() <-chan time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.c
}

func (t *Timer) Waits() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.waits...)
}

// Package poller waits for an asynchronous external condition with a
// bounded total wait.
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var (
	ErrTimeout   = errors.New("poll timeout")
	ErrNoTimeout = errors.New("poll timeout must be positive")
	errPending   = errors.New("condition pending")
)

// Config bounds a polling loop. Clock and Timer default to wall time.
type Config struct {
	Interval time.Duration
	Timeout  time.Duration
	Clock    backoff.Clock
	Timer    backoff.Timer
}

// Func reports whether the condition holds. A non-nil error ends polling.
type Func func(ctx context.Context) (done bool, err error)

// Notify is called before every wait with the attempt number just finished.
type Notify func(attempt int, wait time.Duration)

// Until calls fn immediately and then once per Interval until fn is done,
// fn fails, ctx ends or the next wait would go past Timeout.
func Until(ctx context.Context, cfg Config, fn Func, notify Notify) error {
	if cfg.Timeout <= 0 {
		return ErrNoTimeout
	}
	interval := cfg.Interval
	if interval <= 0 || interval > cfg.Timeout {
		interval = cfg.Timeout
	}
	clock := cfg.Clock
	if clock == nil {
		clock = backoff.SystemClock
	}

	// multiplier 1 and no jitter turn the exponential policy into a
	// constant interval with an elapsed-time cap
	b := &backoff.ExponentialBackOff{
		InitialInterval:     interval,
		RandomizationFactor: 0,
		Multiplier:          1,
		MaxInterval:         interval,
		MaxElapsedTime:      cfg.Timeout,
		Stop:                backoff.Stop,
		Clock:               clock,
	}
	b.Reset()

	attempt := 0
	op := func() error {
		attempt++
		done, err := fn(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !done {
			return errPending
		}
		return nil
	}

	err := backoff.RetryNotifyWithTimer(op, backoff.WithContext(b, ctx), func(_ error, wait time.Duration) {
		if notify != nil {
			notify(attempt, wait)
		}
	}, cfg.Timer)
	if errors.Is(err, errPending) {
		return ErrTimeout
	}
	return err
}

package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"voice-appointments-go/internal/poller/pollertest"
)

func fakeConfig(interval, timeout time.Duration) (Config, *pollertest.Timer) {
	clock := pollertest.NewClock()
	timer := pollertest.NewTimer(clock)
	return Config{Interval: interval, Timeout: timeout, Clock: clock, Timer: timer}, timer
}

func TestUntilFirstPollIsImmediate(t *testing.T) {
	cfg, timer := fakeConfig(5*time.Second, time.Minute)

	calls := 0
	err := Until(context.Background(), cfg, func(context.Context) (bool, error) {
		calls++
		return true, nil
	}, nil)
	if err != nil {
		t.Fatalf("Until: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if n := len(timer.Waits()); n != 0 {
		t.Errorf("waits = %d, want 0", n)
	}
}

func TestUntilWaitsIntervalBetweenPolls(t *testing.T) {
	cfg, timer := fakeConfig(2*time.Second, time.Minute)

	calls := 0
	var notified []int
	err := Until(context.Background(), cfg, func(context.Context) (bool, error) {
		calls++
		return calls == 4, nil
	}, func(attempt int, wait time.Duration) {
		notified = append(notified, attempt)
	})
	if err != nil {
		t.Fatalf("Until: %v", err)
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4", calls)
	}
	waits := timer.Waits()
	if len(waits) != 3 {
		t.Fatalf("waits = %v, want 3 entries", waits)
	}
	for _, w := range waits {
		if w != 2*time.Second {
			t.Errorf("wait = %v, want 2s", w)
		}
	}
	if len(notified) != 3 || notified[0] != 1 || notified[2] != 3 {
		t.Errorf("notified attempts = %v", notified)
	}
}

func TestUntilTimesOut(t *testing.T) {
	cfg, timer := fakeConfig(time.Second, 5*time.Second)

	calls := 0
	err := Until(context.Background(), cfg, func(context.Context) (bool, error) {
		calls++
		return false, nil
	}, nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if calls != 6 {
		t.Errorf("calls = %d, want 6 (t=0s..5s)", calls)
	}
	var total time.Duration
	for _, w := range timer.Waits() {
		total += w
	}
	if total > 5*time.Second {
		t.Errorf("waited %v, beyond the 5s timeout", total)
	}
}

func TestUntilReturnsFuncError(t *testing.T) {
	cfg, _ := fakeConfig(time.Second, time.Minute)
	boom := errors.New("boom")

	calls := 0
	err := Until(context.Background(), cfg, func(context.Context) (bool, error) {
		calls++
		if calls == 2 {
			return false, boom
		}
		return false, nil
	}, nil)
	if err != boom {
		t.Fatalf("err = %v, want boom unchanged", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestUntilRequiresTimeout(t *testing.T) {
	cfg, _ := fakeConfig(time.Second, 0)
	err := Until(context.Background(), cfg, func(context.Context) (bool, error) {
		t.Fatal("fn must not be called without a timeout")
		return false, nil
	}, nil)
	if !errors.Is(err, ErrNoTimeout) {
		t.Fatalf("err = %v, want ErrNoTimeout", err)
	}
}

func TestUntilStopsOnCancel(t *testing.T) {
	cfg, _ := fakeConfig(time.Second, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Until(ctx, cfg, func(context.Context) (bool, error) {
		calls++
		cancel()
		return false, nil
	}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

package limiter

import (
	"context"
	"sync"
	"time"
)

// Window enforces at most max admissions inside any trailing window duration.
// Stale timestamps are pruned before each admission check; when the window is
// full the caller sleeps until the oldest timestamp exits the window.
type Window struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	stamps []time.Time

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

func NewWindow(max int, window time.Duration) *Window {
	return &Window{
		max:    max,
		window: window,
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// Admit blocks until an admission would not exceed max calls inside the
// trailing window, then records it.
func (l *Window) Admit(ctx context.Context) error {
	if l.max <= 0 || l.window <= 0 {
		return nil
	}

	for {
		l.mu.Lock()
		now := l.now()
		l.prune(now)

		if len(l.stamps) < l.max {
			l.stamps = append(l.stamps, now)
			l.mu.Unlock()
			return nil
		}

		wait := l.stamps[0].Add(l.window).Sub(now)
		l.mu.Unlock()

		if wait <= 0 {
			continue
		}
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// InFlight reports how many admissions are inside the current trailing window.
func (l *Window) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.stamps)
}

// Remaining reports how many admissions the current window still allows.
func (l *Window) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return l.max - len(l.stamps)
}

// prune drops timestamps older than the window. Caller holds the lock.
func (l *Window) prune(now time.Time) {
	cut := 0
	for cut < len(l.stamps) && now.Sub(l.stamps[cut]) >= l.window {
		cut++
	}
	if cut > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[cut:]...)
	}
}

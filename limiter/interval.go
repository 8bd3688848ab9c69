// Package limiter provides the in-memory client-side rate limiters used by the
// provider clients: a minimum-interval gate and a trailing-window gate. Both
// wait cooperatively and honor context cancellation.
package limiter

import (
	"context"
	"sync"
	"time"
)

// Interval enforces a minimum wall-clock gap between consecutive admitted
// calls. Admission reserves a slot under the lock, so concurrent callers are
// spaced out correctly without holding the lock while waiting.
type Interval struct {
	mu   sync.Mutex
	min  time.Duration
	next time.Time

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

func NewInterval(min time.Duration) *Interval {
	return &Interval{
		min:   min,
		now:   time.Now,
		sleep: sleepCtx,
	}
}

// Admit blocks until the minimum interval since the previous admission has
// elapsed, then records the admission. Returns the context error if canceled
// while waiting; a canceled admission does not consume the reserved slot's
// spacing for later callers beyond its own reservation.
func (l *Interval) Admit(ctx context.Context) error {
	if l.min <= 0 {
		return nil
	}

	l.mu.Lock()
	now := l.now()
	at := l.next
	if at.Before(now) {
		at = now
	}
	l.next = at.Add(l.min)
	l.mu.Unlock()

	if wait := at.Sub(now); wait > 0 {
		return l.sleep(ctx, wait)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Lock serializes calls and enforces a minimum wait between them.
type Lock interface {
	Lock(ctx context.Context) func()
}

type lock struct {
	wait time.Duration
	lck  sync.Mutex
	last time.Time
}

func New(wait time.Duration) Lock {
	return &lock{
		wait: wait,
	}
}

// Lock blocks until the wait since the previous unlock has elapsed or the
// context is done. The returned function releases the lock.
func (l *lock) Lock(ctx context.Context) func() {
	l.lck.Lock()
	if elapsed := time.Since(l.last); elapsed < l.wait {
		timer := time.NewTimer(l.wait - elapsed)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	}
	return func() {
		l.last = time.Now()
		l.lck.Unlock()
	}
}

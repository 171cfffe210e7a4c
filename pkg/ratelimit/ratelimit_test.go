package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLock(t *testing.T) {
	l := New(10 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	unlock := l.Lock(ctx)
	unlock()
	unlock = l.Lock(ctx)
	unlock()
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Fatalf("second lock waited %s; want at least 10ms", elapsed)
	}
}

func TestLockCanceledContext(t *testing.T) {
	l := New(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	unlock := l.Lock(ctx)
	unlock()
	cancel()

	done := make(chan struct{})
	go func() {
		unlock := l.Lock(ctx)
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Lock didn't return on canceled context")
	}
}

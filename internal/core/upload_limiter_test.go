package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func assertSlots(t *testing.T, l *UploadLimiter, active, available int) {
	t.Helper()
	st := l.Status()
	if st.Active != active || st.Available != available {
		t.Errorf("Status() = %+v, want active %d, available %d", st, active, available)
	}
}

func TestUploadLimiter_AcquireRelease(t *testing.T) {
	l := NewUploadLimiter(2, time.Second)
	ctx := context.Background()
	assertSlots(t, l, 0, 2)

	for i := 0; i < 2; i++ {
		if err := l.Acquire(ctx); err != nil {
			t.Fatalf("Acquire #%d error = %v", i+1, err)
		}
	}
	assertSlots(t, l, 2, 0)

	l.Release()
	assertSlots(t, l, 1, 1)
	l.Release()
	assertSlots(t, l, 0, 2)
}

func TestUploadLimiter_TimesOutWhenFull(t *testing.T) {
	l := NewUploadLimiter(1, 50*time.Millisecond)
	ctx := context.Background()
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("Acquire error = %v", err)
	}
	defer l.Release()

	start := time.Now()
	err := l.Acquire(ctx)
	if !errors.Is(err, ErrTooManyUploads) {
		t.Fatalf("error = %v, want ErrTooManyUploads", err)
	}
	if waited := time.Since(start); waited < 40*time.Millisecond {
		t.Errorf("gave up after %v, before the wait time", waited)
	}
}

func TestUploadLimiter_ContextCancelled(t *testing.T) {
	l := NewUploadLimiter(1, 5*time.Second)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire error = %v", err)
	}
	defer l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Acquire(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Acquire ignored cancellation")
	}
}

func TestUploadLimiter_NeverExceedsMax(t *testing.T) {
	const limit = 3
	l := NewUploadLimiter(limit, 5*time.Second)

	var (
		wg   sync.WaitGroup
		peak atomic.Int64
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire error = %v", err)
				return
			}
			defer l.Release()

			cur := int64(l.ActiveCount())
			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
		}()
	}
	wg.Wait()

	if got := peak.Load(); got > limit {
		t.Errorf("peak concurrency %d exceeds %d", got, limit)
	}
	assertSlots(t, l, 0, limit)
}

func TestUploadLimiter_ReleaseWakesWaiter(t *testing.T) {
	l := NewUploadLimiter(1, time.Second)
	ctx := context.Background()
	_ = l.Acquire(ctx)

	got := make(chan error, 1)
	go func() { got <- l.Acquire(ctx) }()

	time.Sleep(20 * time.Millisecond)
	l.Release()

	select {
	case err := <-got:
		if err != nil {
			t.Errorf("waiter error = %v", err)
		}
		l.Release()
	case <-time.After(500 * time.Millisecond):
		t.Fatal("waiter never acquired the released slot")
	}
}

func TestUploadLimiter_WaitForDrain(t *testing.T) {
	l := NewUploadLimiter(2, time.Second)
	ctx := context.Background()
	_ = l.Acquire(ctx)
	_ = l.Acquire(ctx)

	drained := make(chan error, 1)
	go func() { drained <- l.WaitForDrain(context.Background()) }()

	l.Release()
	select {
	case <-drained:
		t.Fatal("WaitForDrain returned with an upload still active")
	case <-time.After(100 * time.Millisecond):
	}

	l.Release()
	select {
	case err := <-drained:
		if err != nil {
			t.Errorf("WaitForDrain error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitForDrain did not return after the last release")
	}
}

func TestUploadLimiter_WaitForDrainCancelled(t *testing.T) {
	l := NewUploadLimiter(1, time.Second)
	_ = l.Acquire(context.Background())
	defer l.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := l.WaitForDrain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForDrain error = %v, want deadline exceeded", err)
	}
}

func TestNewUploadLimiter_Defaults(t *testing.T) {
	l := NewUploadLimiter(0, -time.Second)

	if got := l.Status().MaxConcurrent; got != DefaultMaxConcurrentUploads {
		t.Errorf("MaxConcurrent = %d, want %d", got, DefaultMaxConcurrentUploads)
	}
	if l.maxWait != DefaultMaxWaitTime {
		t.Errorf("maxWait = %v, want %v", l.maxWait, DefaultMaxWaitTime)
	}
}

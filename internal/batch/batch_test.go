package batch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunProcessesAllItems(t *testing.T) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	var sum atomic.Int64
	pool := New(8, 0)
	err := Run(context.Background(), pool, items, func(ctx context.Context, item int) error {
		sum.Add(int64(item))
		return nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sum.Load() != 4950 {
		t.Errorf("sum = %d, want 4950", sum.Load())
	}
}

func TestRunFirstErrorCancels(t *testing.T) {
	items := make([]int, 1000)
	for i := range items {
		items[i] = i
	}

	boom := errors.New("boom")
	var processed atomic.Int64
	pool := New(2, 0)
	err := Run(context.Background(), pool, items, func(ctx context.Context, item int) error {
		if item == 5 {
			return boom
		}
		processed.Add(1)
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Run error = %v, want boom", err)
	}
	if processed.Load() == 1000 {
		t.Error("error did not cancel remaining work")
	}
}

func TestRunExternalCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	items := make([]int, 100)

	started := make(chan struct{}, 1)
	pool := New(1, 0)
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, pool, items, func(ctx context.Context, item int) error {
			select {
			case started <- struct{}{}:
			default:
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
				return nil
			}
		})
	}()

	<-started
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRunRateLimited(t *testing.T) {
	// 3 items beyond the initial burst token at 100/s needs >= 30ms.
	items := []int{1, 2, 3, 4}
	pool := New(4, 100)

	start := time.Now()
	err := Run(context.Background(), pool, items, func(ctx context.Context, item int) error {
		return nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 25*time.Millisecond {
		t.Errorf("rate limiter not applied: finished in %v", elapsed)
	}
}

func TestRunEmptyItems(t *testing.T) {
	pool := New(4, 0)
	if err := Run(context.Background(), pool, nil, func(ctx context.Context, item int) error {
		t.Error("fn called for empty input")
		return nil
	}); err != nil {
		t.Errorf("Run failed: %v", err)
	}
}

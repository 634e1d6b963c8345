package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunPreservesInputOrder(t *testing.T) {
	pool := New[int, int](WithWorkers(4))

	inputs := make([]int, 100)
	for i := range inputs {
		inputs[i] = i
	}

	results, err := pool.Run(context.Background(), inputs, func(_ context.Context, v int) int {
		return v * v
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, got := range results {
		if got != i*i {
			t.Fatalf("result %d: expected %d, got %d", i, i*i, got)
		}
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	const workers = 3
	pool := New[int, struct{}](WithWorkers(workers))

	var running, peak int32
	inputs := make([]int, 30)
	_, err := pool.Run(context.Background(), inputs, func(_ context.Context, _ int) struct{} {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&running, -1)
		return struct{}{}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peak > workers {
		t.Fatalf("expected at most %d concurrent calls, got %d", workers, peak)
	}
}

func TestRunEmptyInputs(t *testing.T) {
	pool := New[int, int]()
	results, err := pool.Run(context.Background(), nil, func(_ context.Context, v int) int { return v })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestRunCancelled(t *testing.T) {
	pool := New[int, int](WithWorkers(2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pool.Run(ctx, []int{1, 2, 3}, func(_ context.Context, v int) int { return v })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWithWorkersIgnoresNonPositive(t *testing.T) {
	def := New[int, int]().NumWorkers
	if got := New[int, int](WithWorkers(0)).NumWorkers; got != def {
		t.Fatalf("expected default %d workers, got %d", def, got)
	}
	if got := New[int, int](WithWorkers(7)).NumWorkers; got != 7 {
		t.Fatalf("expected 7 workers, got %d", got)
	}
}

// Package workerpool provides a generic fixed-size pool that fans a slice of
// inputs out over goroutines and joins the results in input order.
package workerpool

import (
	"context"
	"runtime"
	"sync"
)

type PoolOptions struct {
	NumWorkers int
}

type PoolOptionFunc func(*PoolOptions)

func defaultOpts() PoolOptions {
	return PoolOptions{
		NumWorkers: runtime.NumCPU(),
	}
}

// WithWorkers sets the number of concurrent workers. Values below one keep
// the default of one worker per CPU.
func WithWorkers(num int) PoolOptionFunc {
	return func(opts *PoolOptions) {
		if num > 0 {
			opts.NumWorkers = num
		}
	}
}

// WorkerPoolExecutor runs a function over inputs of type T producing R.
type WorkerPoolExecutor[T any, R any] struct {
	PoolOptions
}

// New creates a WorkerPoolExecutor with optional configuration.
func New[T any, R any](opts ...PoolOptionFunc) *WorkerPoolExecutor[T, R] {
	o := defaultOpts()
	for _, fn := range opts {
		fn(&o)
	}
	return &WorkerPoolExecutor[T, R]{PoolOptions: o}
}

// Run applies fn to every input using at most NumWorkers goroutines and
// blocks until all of them are done. Outputs are returned in input order.
// Each worker keeps its output private until it is handed to the collector,
// so fn never needs to synchronise with other invocations.
// If ctx is cancelled before every result is collected, Run returns ctx.Err().
func (w *WorkerPoolExecutor[T, R]) Run(ctx context.Context, inputs []T, fn func(ctx context.Context, t T) R) ([]R, error) {
	type task struct {
		idx   int
		input T
	}
	type result struct {
		idx    int
		output R
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	outputs := make([]R, len(inputs))
	if len(inputs) == 0 {
		return outputs, nil
	}

	workers := w.NumWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(inputs) {
		workers = len(inputs)
	}

	tasks := make(chan task)
	results := make(chan result, len(inputs))

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case t, ok := <-tasks:
					if !ok {
						return
					}
					// results is buffered for every input, this never blocks
					results <- result{idx: t.idx, output: fn(ctx, t.input)}
				}
			}
		}()
	}

	go func() {
		defer close(tasks)
		for i, input := range inputs {
			select {
			case <-ctx.Done():
				return
			case tasks <- task{idx: i, input: input}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := 0
	for collected < len(inputs) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case r, ok := <-results:
			if !ok {
				// workers exited early, only possible on cancellation
				return nil, ctx.Err()
			}
			outputs[r.idx] = r.output
			collected++
		}
	}
	return outputs, nil
}

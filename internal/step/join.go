package step

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Join calls fn for every index in [0, n) concurrently, at most limit at a
// time when limit > 0. It returns nil once every call succeeded, or the first
// error as soon as it is raised. After a failure no further calls are started;
// calls already in flight keep running and are not awaited. A panicking call
// fails the join like an error.
func Join(ctx context.Context, n, limit int, fn func(ctx context.Context, i int) error) error {
	if n == 0 {
		return nil
	}

	failed := make(chan error, 1)
	done := make(chan struct{})
	var stopped atomic.Bool

	go func() {
		defer close(done)

		var g errgroup.Group
		if limit > 0 {
			g.SetLimit(limit)
		}
		for i := 0; i < n; i++ {
			if stopped.Load() {
				break
			}
			g.Go(func() error {
				if stopped.Load() {
					return nil
				}
				if err := call(ctx, i, fn); err != nil {
					stopped.Store(true)
					select {
					case failed <- err:
					default:
					}
					return err
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	select {
	case err := <-failed:
		return err
	case <-done:
		select {
		case err := <-failed:
			return err
		default:
			return nil
		}
	}
}

// call runs fn, turning a panic into an error so it reaches the caller of
// Join instead of crashing the detached errgroup goroutine.
func call(ctx context.Context, i int, fn func(ctx context.Context, i int) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, i)
}

// Map is Join collecting one result per index. On failure the partial
// results are discarded.
func Map[T any](ctx context.Context, n, limit int, fn func(ctx context.Context, i int) (T, error)) ([]T, error) {
	results := make([]T, n)
	err := Join(ctx, n, limit, func(ctx context.Context, i int) error {
		v, err := fn(ctx, i)
		if err != nil {
			return err
		}
		results[i] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

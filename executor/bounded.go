package executor

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Bounded wraps a Delegate so that at most `limit` of its submitted
// functions run concurrently, using golang.org/x/sync/semaphore as a
// weighted limiter. A goroutine still launches immediately for every
// submission (so submission itself never blocks the caller); each one
// blocks on acquiring the semaphore before running the wrapped
// function.
func Bounded(inner Delegate, limit int64) Delegate {
	if inner == nil {
		panic("executor: inner delegate must not be nil")
	}
	if limit <= 0 {
		panic("executor: limit must be > 0")
	}
	sem := semaphore.NewWeighted(limit)
	return delegateFunc(func(fn func()) {
		inner.Go(func() {
			if err := sem.Acquire(context.Background(), 1); err != nil {
				return
			}
			defer sem.Release(1)
			fn()
		})
	})
}

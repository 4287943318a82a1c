package executor

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ambientctx/propagation/task"
)

// InvokeAll wraps every fn in fns individually, but with a single
// snapshot captured once at this call site and shared by all of them
// — the bulk-invoke contract: one capture per submission, not one per
// task. Every task runs concurrently via an errgroup.Group; InvokeAll
// blocks until every task has returned and returns the first non-nil
// error, if any. A task that has not started by the time ctx is
// cancelled (or another task has failed) returns the context's error
// without running; a task already running is not interrupted.
func (e *Executor) InvokeAll(ctx context.Context, fns ...func() error) error {
	snap := e.provider()

	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		fn := fn
		wrapped := task.WrapSupplier(snap, func() error { return fn() }, nil)
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			return wrapped()
		})
	}
	return g.Wait()
}

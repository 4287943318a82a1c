package executor

import (
	"github.com/Jeffail/tunny"
	"github.com/gammazero/workerpool"
	"github.com/panjf2000/ants/v2"
	concpool "github.com/sourcegraph/conc/pool"

	"github.com/ambientctx/propagation/internal/safe"
)

// delegateFunc adapts a plain func(func()) into a Delegate.
type delegateFunc func(fn func())

func (d delegateFunc) Go(fn func()) { d(fn) }

// Goroutines is a Delegate that launches a new goroutine per task with
// no pooling and no concurrency limit, recovering panics so one failed
// task cannot take the process down.
func Goroutines() Delegate {
	return delegateFunc(func(fn func()) {
		safe.Go(fn)
	})
}

// Conc adapts a sourcegraph/conc pool, structured concurrency with
// panic propagation into the pool's own error handling.
func Conc(pool *concpool.Pool) Delegate {
	if pool == nil {
		panic("executor: conc pool is nil")
	}
	return delegateFunc(func(fn func()) {
		pool.Go(fn)
	})
}

// Ants adapts a panjf2000/ants bounded goroutine pool.
func Ants(pool *ants.Pool) Delegate {
	if pool == nil {
		panic("executor: ants pool is nil")
	}
	return delegateFunc(func(fn func()) {
		_ = pool.Submit(fn)
	})
}

// Workerpool adapts a gammazero/workerpool FIFO worker pool.
func Workerpool(pool *workerpool.WorkerPool) Delegate {
	if pool == nil {
		panic("executor: workerpool is nil")
	}
	return delegateFunc(func(fn func()) {
		pool.Submit(fn)
	})
}

// Tunny adapts a Jeffail/tunny fixed-size worker pool. tunny's Process
// method is synchronous and expects an interface{}->interface{}
// worker, so the adapter calls Process from a new goroutine with fn
// itself as the payload; the pool's worker function must run func()
// payloads, as the one built by NewTunnyPool does.
func Tunny(pool *tunny.Pool) Delegate {
	if pool == nil {
		panic("executor: tunny pool is nil")
	}
	return delegateFunc(func(fn func()) {
		go func() {
			pool.Process(fn)
		}()
	})
}

// NewTunnyPool builds a fixed-size tunny.Pool whose workers run
// whatever func() payload tunny.Process is given — the shape this
// package's Tunny adapter submits.
func NewTunnyPool(size int) *tunny.Pool {
	return tunny.NewFunc(size, func(payload any) any {
		if fn, ok := payload.(func()); ok {
			fn()
		}
		return nil
	})
}

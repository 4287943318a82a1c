// Package executor provides a delegating executor that intercepts
// each submitted task, captures a snapshot of ambient state from the
// submitting goroutine, wraps the task with it, and forwards the
// wrapped task to an underlying pool. This is the propagation core's
// answer to moving ambient state across a worker-pool hand-off: the
// submitter's state, not the worker goroutine's, is what the task
// observes when it finally runs.
package executor

import (
	"github.com/ambientctx/propagation/snapshot"
	"github.com/ambientctx/propagation/task"
)

// Delegate is the minimal surface any underlying goroutine-pool
// implementation must provide to be wrapped. Adapters in this package
// play this role for several real pool libraries.
type Delegate interface {
	// Go submits fn for concurrent execution. It must not block
	// waiting for fn to finish.
	Go(fn func())
}

// SnapshotProvider captures a fresh snapshot, typically bound to a
// snapshot.Factory's CaptureAll method (or CaptureFrom, or a closure
// that fixes a particular predicate).
type SnapshotProvider func() *snapshot.Snapshot

// Executor wraps a Delegate so that every task it accepts runs with
// the submitting goroutine's ambient state restored around it. Life
// cycle concerns (shutdown, draining) belong to the Delegate; Executor
// only ever touches the moment of submission.
type Executor struct {
	delegate Delegate
	provider SnapshotProvider
}

// New builds an Executor that submits to delegate, capturing a
// snapshot via provider at each submission.
func New(delegate Delegate, provider SnapshotProvider) *Executor {
	if delegate == nil {
		panic("executor: delegate must not be nil")
	}
	if provider == nil {
		panic("executor: provider must not be nil")
	}
	return &Executor{delegate: delegate, provider: provider}
}

// Execute captures a snapshot from the calling goroutine, wraps fn
// with it, and forwards the wrapped task to the underlying delegate.
func (e *Executor) Execute(fn func()) {
	snap := e.provider()
	e.delegate.Go(task.Wrap(snap, fn, nil))
}

// Submit is an alias of Execute kept for callers that distinguish
// fire-and-forget submission from request/response framing; both
// capture and wrap identically — the core has no notion of a result
// channel of its own.
func (e *Executor) Submit(fn func()) {
	e.Execute(fn)
}

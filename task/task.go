// Package task binds a snapshot to a unit of work so that ambient
// state propagates to wherever that work actually runs — the
// counterpart, on the task side, of the registry/snapshot capture
// machinery.
package task

import (
	"github.com/ambientctx/propagation/accessor"
	"github.com/ambientctx/propagation/snapshot"
)

// Runnable is a zero-argument, no-result unit of work.
type Runnable func()

// Supplier produces a value.
type Supplier[V any] func() V

// Consumer accepts a single argument and produces nothing.
type Consumer[I any] func(I)

// Func is a single-argument, value-producing unit of work — the shape
// most pool and future libraries actually schedule.
type Func[I, O any] func(I) O

// Wrap returns a Runnable that, when invoked, opens snap's scope
// (restricted by pred), runs delegate, and closes the scope on every
// exit path — including a delegate panic, which propagates after the
// scope is closed.
func Wrap(snap *snapshot.Snapshot, delegate Runnable, pred accessor.Predicate) Runnable {
	return func() {
		scope := snap.SetThreadLocals(pred)
		defer scope.Close()
		delegate()
	}
}

// WrapSupplier is Wrap for a value-producing delegate.
func WrapSupplier[V any](snap *snapshot.Snapshot, delegate Supplier[V], pred accessor.Predicate) Supplier[V] {
	return func() V {
		scope := snap.SetThreadLocals(pred)
		defer scope.Close()
		return delegate()
	}
}

// WrapConsumer is Wrap for a single-argument consumer.
func WrapConsumer[I any](snap *snapshot.Snapshot, delegate Consumer[I], pred accessor.Predicate) Consumer[I] {
	return func(in I) {
		scope := snap.SetThreadLocals(pred)
		defer scope.Close()
		delegate(in)
	}
}

// WrapFunc is Wrap for a single-argument, value-producing delegate.
func WrapFunc[I, O any](snap *snapshot.Snapshot, delegate Func[I, O], pred accessor.Predicate) Func[I, O] {
	return func(in I) O {
		scope := snap.SetThreadLocals(pred)
		defer scope.Close()
		return delegate(in)
	}
}

// Package accessor defines the contracts the propagation core uses to
// reach into ambient storage it does not itself own: per-thread (per
// goroutine-bound, in Go's case per explicit caller) slots, and
// map-like external context objects threaded through async pipelines.
//
// The core never implements a concrete accessor. Integrators supply
// one per ambient store (a logging diagnostic map, a tracing span
// stack, a reactive context object) and register it with a
// registry.Registry.
package accessor

// Key addresses one ambient slot. Production usage is typically a
// short string, but the core only ever compares keys for equality and
// uses them as map keys, so any comparable type works.
type Key = any

// Absent is a placeholder standing for "no value installed". Reads do
// not return it: ThreadLocalAccessor.GetValue reports absence as
// (nil, false), and the core itself never produces Absent.
var Absent = struct{}{}

// ThreadLocalAccessor bridges the core to one ambient slot bound to
// the calling goroutine's logical thread of execution (by convention,
// not by the Go runtime — Go has no real thread-locals; the slot is
// whatever the integrator's accessor closes over, typically a package
// level variable guarded for the goroutine that "owns" it, or a value
// threaded through a context.Context the integrator keeps out of the
// core's view).
//
// Invariants:
//   - Key() is stable for the accessor's lifetime.
//   - GetValue returning (nil, false) is the only way to signal
//     "not set"; it must never return (non-nil, false).
//   - After SetValue(v) followed by Clear(), GetValue must return
//     (nil, false).
type ThreadLocalAccessor interface {
	// Key identifies the slot this accessor bridges.
	Key() Key
	// GetValue returns the current value and whether one is set.
	GetValue() (value any, ok bool)
	// SetValue installs v. The core never passes an absent value.
	SetValue(value any)
	// Clear removes any installed value.
	Clear()
}

// Reverter undoes one scope-open. Closing it must be safe to call
// exactly once; the core guarantees it will be called at most once
// per successful open.
type Reverter interface {
	Revert()
}

// RevertFunc adapts a plain function to Reverter.
type RevertFunc func()

// Revert calls the wrapped function.
func (f RevertFunc) Revert() {
	if f != nil {
		f()
	}
}

// ScopeOpener is an optional capability a ThreadLocalAccessor can
// implement when its underlying slot has non-trivial open/close
// semantics — most commonly a LIFO stack, where "restore" means "pop"
// rather than "overwrite with whatever was there before". When an
// accessor implements this, the core prefers it over the plain
// SetValue/GetValue dance.
type ScopeOpener interface {
	// OpenScope installs value and returns a Reverter that undoes
	// exactly that installation when invoked.
	OpenScope(value any) Reverter
}

// ScopeCloser is the symmetric optional capability for clearing a
// slot: it clears the value and returns a Reverter that restores
// whatever was cleared.
type ScopeCloser interface {
	CloseScope() Reverter
}

// SupportsScopeOpen reports whether a accessor prefers the
// open/close-scope protocol over plain get/set/clear.
func SupportsScopeOpen(a ThreadLocalAccessor) (ScopeOpener, bool) {
	o, ok := a.(ScopeOpener)
	return o, ok
}

// SupportsScopeClose reports the symmetric capability for Clear.
func SupportsScopeClose(a ThreadLocalAccessor) (ScopeCloser, bool) {
	c, ok := a.(ScopeCloser)
	return c, ok
}

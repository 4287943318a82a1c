package snapshot

import (
	"fmt"

	"github.com/google/uuid"
	atomicx "go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/ambientctx/propagation/accessor"
)

// Scope is a one-shot reverter representing an in-progress
// restoration of ambient state on the opening thread. It records, per
// key it actually modified, the action needed to undo that
// modification. Closing it reverts every modification, independently
// per key, back to exactly the state present before the scope opened.
//
// A Scope must be opened and closed on the same goroutine, and must
// not be shared across goroutines. Nested scopes form a stack purely
// through lexical nesting; the core does not track the stack itself —
// the caller's contract is to close in reverse order of opening.
type Scope struct {
	id      uuid.UUID
	entries []scopeEntry
	closed  atomicx.Bool
}

type scopeEntry struct {
	key            accessor.Key
	installed      any
	installedKnown bool
	current        func() (any, bool)
	revert         func()
}

func newScope() *Scope {
	return &Scope{id: uuid.New()}
}

// ID returns an opaque identifier useful only for correlating nested
// open/close pairs in diagnostics; it carries no semantic meaning to
// the core.
func (sc *Scope) ID() uuid.UUID { return sc.id }

// install records that v was (or will be) installed into a, preferring
// the accessor's scope-open capability when present.
func (sc *Scope) install(a accessor.ThreadLocalAccessor, v any) {
	var revert func()
	if opener, ok := accessor.SupportsScopeOpen(a); ok {
		reverter := opener.OpenScope(v)
		revert = reverter.Revert
	} else {
		prevValue, prevOk := a.GetValue()
		a.SetValue(v)
		revert = func() {
			if prevOk {
				a.SetValue(prevValue)
			} else {
				a.Clear()
			}
		}
	}
	sc.entries = append(sc.entries, scopeEntry{
		key: a.Key(), installed: v, installedKnown: true,
		current: a.GetValue, revert: revert,
	})
}

// clearAndRemember records that a's current value should be cleared,
// preferring the accessor's scope-close capability when present. If a
// has no value installed there is nothing to clear or to remember.
func (sc *Scope) clearAndRemember(a accessor.ThreadLocalAccessor) {
	prevValue, prevOk := a.GetValue()
	if !prevOk {
		return
	}
	var revert func()
	if closer, ok := accessor.SupportsScopeClose(a); ok {
		reverter := closer.CloseScope()
		revert = reverter.Revert
	} else {
		a.Clear()
		revert = func() { a.SetValue(prevValue) }
	}
	sc.entries = append(sc.entries, scopeEntry{
		key: a.Key(), current: a.GetValue, revert: revert,
	})
}

// Close reverts every modification this scope performed, in no
// particular order across keys — order is insensitive within one
// scope, but the caller's contract is to close nested
// scopes in reverse-open order). Closing an already-closed scope is a
// no-op.
func (sc *Scope) Close() {
	if !sc.closed.CAS(false, true) {
		return
	}
	for _, e := range sc.entries {
		if e.revert != nil {
			e.revert()
		}
	}
}

// CloseStrict is the defensive variant of Close: it detects an
// IllegalRestore (the installed value no longer matches what's
// currently present, suggesting an out-of-order nested close) before
// reverting each key, and an already-closed scope returns
// ErrScopeClosed instead of silently doing nothing. All mismatches
// across keys are combined rather than only the first, via
// go.uber.org/multierr — restoration still proceeds for every key
// regardless of mismatches found on others.
func (sc *Scope) CloseStrict() error {
	if !sc.closed.CAS(false, true) {
		return ErrScopeClosed
	}
	var err error
	for _, e := range sc.entries {
		if e.installedKnown && e.current != nil {
			if cur, ok := e.current(); !ok || cur != e.installed {
				err = multierr.Append(err, fmt.Errorf("%w: key %v", ErrIllegalRestore, e.key))
			}
		}
		if e.revert != nil {
			e.revert()
		}
	}
	return err
}

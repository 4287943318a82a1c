// Package snapshot implements the value-propagation core: capturing
// ambient state into an immutable Snapshot, and applying a Snapshot
// either to an outgoing context object or as a Scope restored on a
// thread-local slot set.
package snapshot

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/ambientctx/propagation/accessor"
	"github.com/ambientctx/propagation/registry"
)

// Snapshot is a finite, immutable mapping from key to captured value,
// plus the registry that produced it. No key maps to an absent value
// — values are filtered at capture time, never
// at use time.
type Snapshot struct {
	values       map[accessor.Key]any
	reg          *registry.Registry
	clearMissing bool
}

var empty = &Snapshot{values: map[accessor.Key]any{}}

// Empty returns the shared, registry-less empty snapshot. Applying it
// as thread-locals opens a Scope that (with clearMissing off) changes
// nothing.
func Empty() *Snapshot { return empty }

// Len reports how many entries the snapshot holds.
func (s *Snapshot) Len() int { return len(s.values) }

// Value returns the captured value for key, if any.
func (s *Snapshot) Value(key accessor.Key) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Keys returns every key present in the snapshot. This may include
// keys a ContextAccessor's ReadValues produced that are not backed by
// any registered thread-local accessor — those are harmless
// and simply ignored by SetThreadLocals.
func (s *Snapshot) Keys() []accessor.Key {
	return lo.Keys(s.values)
}

// Registry returns the registry this snapshot was captured against,
// or nil for the shared Empty snapshot.
func (s *Snapshot) Registry() *registry.Registry { return s.reg }

// UpdateContext applies the snapshot's entries onto ctx via the
// write-capable ContextAccessor the snapshot's registry has for ctx's
// dynamic type, optionally restricted by pred. It returns the
// resulting context, which may be a new instance.
func (s *Snapshot) UpdateContext(ctx any, pred accessor.Predicate) (any, error) {
	if s.reg == nil {
		return ctx, nil
	}
	acc, err := s.reg.LookupContextForWrite(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: updateContext: %w", err)
	}

	entries := s.values
	if pred != nil {
		entries = make(map[accessor.Key]any, len(s.values))
		for k, v := range s.values {
			if pred.Accept(k) {
				entries[k] = v
			}
		}
	}
	return acc.Write(entries, ctx), nil
}

// SetThreadLocals opens a Scope that installs every entry in the
// snapshot into its matching registered thread-local accessor,
// restricted by pred, and — if the snapshot was built with
// clearMissing — clears every considered key the snapshot does not
// contain a value for.
func (s *Snapshot) SetThreadLocals(pred accessor.Predicate) *Scope {
	sc := newScope()
	if s.reg == nil {
		return sc
	}

	for _, a := range s.reg.ThreadLocals() {
		key := a.Key()
		if !pred.Accept(key) {
			continue
		}
		if v, ok := s.values[key]; ok {
			sc.install(a, v)
			continue
		}
		if s.clearMissing {
			sc.clearAndRemember(a)
		}
	}
	return sc
}

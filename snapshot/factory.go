package snapshot

import (
	"github.com/ambientctx/propagation/accessor"
	"github.com/ambientctx/propagation/registry"
)

// EmptyKeysPolicy resolves what
// SetThreadLocalsFrom should do when called with zero explicit keys:
// some drafts in the source throw, some treat it as "apply all". The
// core makes this a per-factory configuration instead of guessing.
type EmptyKeysPolicy int

const (
	// EmptyKeysApplyAll treats a zero-length key list as "every
	// registered thread-local accessor". This is the factory default.
	EmptyKeysApplyAll EmptyKeysPolicy = iota
	// EmptyKeysFail treats a zero-length key list as a programming
	// error and returns ErrMissingKeys.
	EmptyKeysFail
)

// Factory is a configured builder for snapshots: it pairs a default
// registry with a capture-time key predicate and a clearMissing
// policy.
type Factory struct {
	reg          *registry.Registry
	pred         accessor.Predicate
	clearMissing bool
	emptyKeys    EmptyKeysPolicy
}

// Option configures a Factory at construction time.
type Option func(*Factory)

// WithPredicate restricts capture to keys pred accepts. The default
// predicate accepts every key.
func WithPredicate(pred accessor.Predicate) Option {
	return func(f *Factory) { f.pred = pred }
}

// WithClearMissing turns on exact-replace semantics: scope-open clears
// every considered key absent from the snapshot. Off by default (merge
// semantics).
func WithClearMissing(on bool) Option {
	return func(f *Factory) { f.clearMissing = on }
}

// WithEmptyKeysPolicy selects the behavior of SetThreadLocalsFrom when
// called with no explicit keys. Defaults to EmptyKeysApplyAll.
func WithEmptyKeysPolicy(p EmptyKeysPolicy) Option {
	return func(f *Factory) { f.emptyKeys = p }
}

// NewFactory builds a Factory bound to reg, applying any Options.
func NewFactory(reg *registry.Registry, opts ...Option) *Factory {
	f := &Factory{reg: reg, emptyKeys: EmptyKeysApplyAll}
	for _, o := range opts {
		o(f)
	}
	return f
}

// CaptureAll captures from every registered thread-local accessor
// whose key passes the factory predicate and whose value is present,
// then from each context in order, overwriting earlier entries on key
// collision. If
// nothing was captured, the shared Empty snapshot is returned.
func (f *Factory) CaptureAll(contexts ...any) *Snapshot {
	values := map[accessor.Key]any{}

	for _, a := range f.reg.ThreadLocals() {
		key := a.Key()
		if !f.pred.Accept(key) {
			continue
		}
		if v, ok := a.GetValue(); ok {
			values[key] = v
		}
	}
	f.mergeContexts(values, contexts)

	if len(values) == 0 {
		return Empty()
	}
	return &Snapshot{values: values, reg: f.reg, clearMissing: f.clearMissing}
}

// CaptureFrom is CaptureAll without reading any thread-local: only the
// given contexts are consulted, in order.
func (f *Factory) CaptureFrom(contexts ...any) *Snapshot {
	values := map[accessor.Key]any{}
	f.mergeContexts(values, contexts)

	if len(values) == 0 {
		return Empty()
	}
	return &Snapshot{values: values, reg: f.reg, clearMissing: f.clearMissing}
}

func (f *Factory) mergeContexts(values map[accessor.Key]any, contexts []any) {
	for _, ctx := range contexts {
		acc, err := f.reg.LookupContextForRead(ctx)
		if err != nil {
			continue
		}
		read := acc.ReadValues(ctx, f.pred)
		for k, v := range read {
			if v == nil {
				continue // defensive: core strips absent even if an accessor slips one in
			}
			values[k] = v
		}
	}
}

// SetThreadLocalsFrom opens a scope directly from a source context
// object without building a user-visible snapshot, applying only the
// given keys. With zero keys, behavior follows the factory's
// EmptyKeysPolicy: EmptyKeysApplyAll applies every registered
// thread-local accessor (the "setAllThreadLocalsFrom" variant);
// EmptyKeysFail returns ErrMissingKeys instead of opening a scope.
func (f *Factory) SetThreadLocalsFrom(source any, keys ...accessor.Key) (*Scope, error) {
	if len(keys) == 0 {
		if f.emptyKeys == EmptyKeysFail {
			return nil, ErrMissingKeys
		}
		keys = f.reg.Keys()
	}

	acc, err := f.reg.LookupContextForRead(source)
	if err != nil {
		return nil, err
	}

	wanted := make(map[accessor.Key]bool, len(keys))
	for _, k := range keys {
		wanted[k] = true
	}
	read := acc.ReadValues(source, func(k accessor.Key) bool { return wanted[k] })

	sc := newScope()
	for _, a := range f.reg.ThreadLocals() {
		key := a.Key()
		if !wanted[key] {
			continue
		}
		if v, ok := read[key]; ok && v != nil {
			sc.install(a, v)
			continue
		}
		if f.clearMissing {
			sc.clearAndRemember(a)
		}
	}
	return sc, nil
}

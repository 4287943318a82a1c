// Package registry holds the process-wide (or explicitly constructed)
// set of accessors the propagation core draws on to capture and
// restore ambient state.
package registry

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"

	"github.com/ambientctx/propagation/accessor"
)

// Registry is safe for concurrent read after construction; writes
// (Register*/Remove*/LoadDiscovered) synchronize among themselves with
// an internal mutex and publish a fresh copy-on-write snapshot of each
// list so that concurrent readers never observe a torn list.
type Registry struct {
	mu       sync.Mutex
	threadLp atomic.Pointer[[]accessor.ThreadLocalAccessor]
	ctxP     atomic.Pointer[[]accessor.ContextAccessor]
	logger   *slog.Logger
}

// New builds an empty registry. Pass a nil logger to use slog's
// default logger.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{logger: logger}
	empty1 := []accessor.ThreadLocalAccessor{}
	empty2 := []accessor.ContextAccessor{}
	r.threadLp.Store(&empty1)
	r.ctxP.Store(&empty2)
	return r
}

func (r *Registry) threadLocals() []accessor.ThreadLocalAccessor {
	return *r.threadLp.Load()
}

func (r *Registry) contexts() []accessor.ContextAccessor {
	return *r.ctxP.Load()
}

// RegisterThreadLocal adds a, replacing any existing accessor with the
// same Key(). Returns the registry for chaining.
func (r *Registry) RegisterThreadLocal(a accessor.ThreadLocalAccessor) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.threadLocals()
	next := make([]accessor.ThreadLocalAccessor, 0, len(cur)+1)
	replaced := false
	for _, existing := range cur {
		if existing.Key() == a.Key() {
			replaced = true
			continue
		}
		next = append(next, existing)
	}
	next = append(next, a)
	r.threadLp.Store(&next)

	if replaced {
		r.logger.Debug("registry: replaced thread-local accessor", "key", a.Key())
	}
	r.warnIfAliased(a, cur)
	return r
}

// warnIfAliased logs when a looks like it might alias the same
// underlying slot as an already-registered accessor under a different
// key. The core cannot detect this reliably, so this is a best-effort,
// pointer-identity based heuristic only.
func (r *Registry) warnIfAliased(a accessor.ThreadLocalAccessor, existing []accessor.ThreadLocalAccessor) {
	av := reflect.ValueOf(a)
	if av.Kind() != reflect.Ptr {
		return
	}
	for _, e := range existing {
		if e.Key() == a.Key() {
			continue
		}
		ev := reflect.ValueOf(e)
		if ev.Kind() == reflect.Ptr && ev.Pointer() == av.Pointer() {
			r.logger.Warn("registry: two keys appear to be backed by the same accessor instance",
				"key", a.Key(), "other_key", e.Key())
		}
	}
}

// RegisterThreadLocalFunc is the callback-synthesized convenience path
// of the registration path.
func (r *Registry) RegisterThreadLocalFunc(key accessor.Key, get func() (any, bool), set func(any), clear func()) *Registry {
	return r.RegisterThreadLocal(accessor.NewFuncThreadLocalAccessor(key, get, set, clear))
}

// RegisterContext adds a context accessor, failing with
// ErrDuplicateType if its readable or writeable type overlaps an
// already-registered accessor.
func (r *Registry) RegisterContext(a accessor.ContextAccessor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.contexts()
	for _, existing := range cur {
		if accessor.TypesOverlap(a, existing) {
			return fmt.Errorf("%w: readable=%s writeable=%s conflicts with readable=%s writeable=%s",
				ErrDuplicateType, a.ReadableType(), a.WriteableType(), existing.ReadableType(), existing.WriteableType())
		}
	}
	next := append(append([]accessor.ContextAccessor{}, cur...), a)
	r.ctxP.Store(&next)
	return nil
}

// RemoveThreadLocal removes the first accessor registered under key.
// Reports whether anything was removed.
func (r *Registry) RemoveThreadLocal(key accessor.Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.threadLocals()
	idx := -1
	for i, a := range cur {
		if a.Key() == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	next := make([]accessor.ThreadLocalAccessor, 0, len(cur)-1)
	next = append(next, cur[:idx]...)
	next = append(next, cur[idx+1:]...)
	r.threadLp.Store(&next)
	return true
}

// RemoveContext removes a by reference equality. Reports whether
// anything was removed.
func (r *Registry) RemoveContext(a accessor.ContextAccessor) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.contexts()
	idx := -1
	for i, e := range cur {
		if e == a {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	next := make([]accessor.ContextAccessor, 0, len(cur)-1)
	next = append(next, cur[:idx]...)
	next = append(next, cur[idx+1:]...)
	r.ctxP.Store(&next)
	return true
}

// Discoverer produces zero or more accessors, to be run once at
// startup. It is deliberately untyped
// about the discovery mechanism (plugin table, service manifest,
// config file) — the contract is just "a callable that yields
// accessors".
type Discoverer func() (threadLocals []accessor.ThreadLocalAccessor, contexts []accessor.ContextAccessor, err error)

// LoadDiscovered runs d and registers everything it produces, obeying
// the same uniqueness rules as the direct Register* calls. Stops and
// returns the first error from either d itself or a context-accessor
// registration.
func (r *Registry) LoadDiscovered(d Discoverer) error {
	tls, ctxs, err := d()
	if err != nil {
		return fmt.Errorf("registry: discovery failed: %w", err)
	}
	for _, a := range tls {
		r.RegisterThreadLocal(a)
	}
	for _, a := range ctxs {
		if err := r.RegisterContext(a); err != nil {
			return err
		}
	}
	r.logger.Debug("registry: loaded discovered accessors", "thread_locals", len(tls), "contexts", len(ctxs))
	return nil
}

// LookupContextForRead returns the first registered context accessor
// whose ReadableType is a supertype of ctx's dynamic type.
func (r *Registry) LookupContextForRead(ctx any) (accessor.ContextAccessor, error) {
	t := reflect.TypeOf(ctx)
	for _, a := range r.contexts() {
		if accessor.AssignableReadable(a, t) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: no readable accessor for %s", ErrNoAccessor, t)
}

// LookupContextForWrite is the write-side counterpart of
// LookupContextForRead.
func (r *Registry) LookupContextForWrite(ctx any) (accessor.ContextAccessor, error) {
	t := reflect.TypeOf(ctx)
	for _, a := range r.contexts() {
		if accessor.AssignableWriteable(a, t) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: no writeable accessor for %s", ErrNoAccessor, t)
}

// ThreadLocals returns a read-only snapshot of the registered
// thread-local accessors, in registration order.
func (r *Registry) ThreadLocals() []accessor.ThreadLocalAccessor {
	cur := r.threadLocals()
	return append([]accessor.ThreadLocalAccessor(nil), cur...)
}

// Contexts returns a read-only snapshot of the registered context
// accessors, in registration order.
func (r *Registry) Contexts() []accessor.ContextAccessor {
	cur := r.contexts()
	return append([]accessor.ContextAccessor(nil), cur...)
}

// Keys returns the keys of every registered thread-local accessor.
func (r *Registry) Keys() []accessor.Key {
	return lo.Map(r.threadLocals(), func(a accessor.ThreadLocalAccessor, _ int) accessor.Key {
		return a.Key()
	})
}

// KeyGroups returns a key->group mapping for every registered
// thread-local accessor that implements accessor.Grouped; ungrouped
// accessors are mapped to the empty group.
func (r *Registry) KeyGroups() map[accessor.Key]accessor.Group {
	out := make(map[accessor.Key]accessor.Group)
	for _, a := range r.threadLocals() {
		out[a.Key()] = accessor.GroupOf(a)
	}
	return out
}

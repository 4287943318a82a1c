package accessor

import "reflect"

// Predicate filters keys at capture or apply time. A nil Predicate is
// treated as "accept everything".
type Predicate func(key Key) bool

// Accept reports whether p admits key, treating a nil predicate as
// always-true.
func (p Predicate) Accept(key Key) bool {
	return p == nil || p(key)
}

// ContextAccessor bridges the core to one family of external map-like
// context objects — the counterpart of ThreadLocalAccessor for
// pipelines that thread an immutable context value through operators
// instead of relying on per-thread storage.
//
// ReadableType and WriteableType are declared as distinct roles
// because many such contexts separate a read-only view type from the
// producer type used to build a new context (e.g. a request context
// interface versus the concrete builder that constructs one). A
// registry enforces that no two registered context accessors have
// overlapping (assignable) readable or writeable types,
// so that a lookup by runtime type is always unambiguous.
type ContextAccessor interface {
	// ReadableType is the static type this accessor can read entries
	// out of.
	ReadableType() reflect.Type
	// WriteableType is the static type this accessor can write
	// entries into, producing a (possibly new) instance of it.
	WriteableType() reflect.Type

	// ReadValues bulk-reads every entry whose key passes pred into a
	// fresh mapping. Implementations must never store an absent value
	// into the result; the core strips any that slip through.
	ReadValues(ctx any, pred Predicate) map[Key]any
	// ReadValue reads a single entry by key.
	ReadValue(ctx any, key Key) (value any, ok bool)
	// Write applies entries onto target, returning the resulting
	// context. Because many such contexts are immutable/persistent,
	// the result may be a distinct instance from target.
	Write(entries map[Key]any, target any) any
}

// AssignableReadable reports whether a value of type t could be read
// by a, i.e. t is assignable to a.ReadableType().
func AssignableReadable(a ContextAccessor, t reflect.Type) bool {
	rt := a.ReadableType()
	return rt != nil && t != nil && t.AssignableTo(rt)
}

// AssignableWriteable is the write-side counterpart of
// AssignableReadable.
func AssignableWriteable(a ContextAccessor, t reflect.Type) bool {
	wt := a.WriteableType()
	return wt != nil && t != nil && t.AssignableTo(wt)
}

// TypesOverlap reports whether two context accessors would become
// ambiguous if both were registered: true if either's readable type is
// assignable to/from the other's, or either's writeable type is
// assignable to/from the other's.
func TypesOverlap(a, b ContextAccessor) bool {
	return overlaps(a.ReadableType(), b.ReadableType()) ||
		overlaps(a.WriteableType(), b.WriteableType())
}

func overlaps(a, b reflect.Type) bool {
	if a == nil || b == nil {
		return false
	}
	return a.AssignableTo(b) || b.AssignableTo(a)
}

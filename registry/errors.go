package registry

import "errors"

// ErrDuplicateType is returned when registering a ContextAccessor
// whose readable or writeable type overlaps (by assignability) with
// one already registered.
var ErrDuplicateType = errors.New("registry: context accessor type overlaps an existing one")

// ErrNoAccessor is returned when no registered ContextAccessor can
// read from, or write to, a given context's dynamic type.
var ErrNoAccessor = errors.New("registry: no context accessor for this type")

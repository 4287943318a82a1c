package snapshot_test

import (
	"reflect"

	"github.com/ambientctx/propagation/accessor"
)

// slotAccessor is a plain-old-data thread-local fixture: a package
// level variable with presence tracked alongside the value, the way a
// simple ambient slot (e.g. a per-goroutine logging tag) would be
// represented in an integrator's own code. It has no scope-open/close
// capability, exercising the plain getValue/setValue/clear path.
type slotAccessor struct {
	key     accessor.Key
	value   any
	present bool
}

func newSlot(key accessor.Key) *slotAccessor {
	return &slotAccessor{key: key}
}

func (s *slotAccessor) Key() accessor.Key { return s.key }
func (s *slotAccessor) GetValue() (any, bool) {
	return s.value, s.present
}
func (s *slotAccessor) SetValue(v any) {
	s.value = v
	s.present = true
}
func (s *slotAccessor) Clear() {
	s.value = nil
	s.present = false
}

// stackAccessor models an ambient slot with LIFO semantics — e.g. an
// observation/span stack — where "restore" must mean "pop", not
// "overwrite with whatever used to be on top" — the scope-open
// capability exists precisely for this kind of accessor).
type stackAccessor struct {
	key   accessor.Key
	stack []any
}

func newStack(key accessor.Key) *stackAccessor {
	return &stackAccessor{key: key}
}

func (s *stackAccessor) Key() accessor.Key { return s.key }
func (s *stackAccessor) GetValue() (any, bool) {
	if len(s.stack) == 0 {
		return nil, false
	}
	return s.stack[len(s.stack)-1], true
}
func (s *stackAccessor) SetValue(v any) { s.stack = append(s.stack, v) }
func (s *stackAccessor) Clear() {
	if len(s.stack) > 0 {
		s.stack = s.stack[:len(s.stack)-1]
	}
}

func (s *stackAccessor) OpenScope(v any) accessor.Reverter {
	s.stack = append(s.stack, v)
	return accessor.RevertFunc(func() {
		s.stack = s.stack[:len(s.stack)-1]
	})
}

func (s *stackAccessor) CloseScope() accessor.Reverter {
	if len(s.stack) == 0 {
		return accessor.RevertFunc(func() {})
	}
	top := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return accessor.RevertFunc(func() {
		s.stack = append(s.stack, top)
	})
}

// mapContext is a toy map-like context object, the counterpart fixture
// to slotAccessor for the ContextAccessor side.
type mapContext map[string]any

type mapContextAccessor struct{}

func (mapContextAccessor) ReadableType() reflect.Type  { return reflect.TypeOf(mapContext{}) }
func (mapContextAccessor) WriteableType() reflect.Type { return reflect.TypeOf(mapContext{}) }

func (mapContextAccessor) ReadValues(ctx any, pred accessor.Predicate) map[accessor.Key]any {
	out := map[accessor.Key]any{}
	for k, v := range ctx.(mapContext) {
		if v == nil {
			continue
		}
		if pred.Accept(k) {
			out[k] = v
		}
	}
	return out
}

func (mapContextAccessor) ReadValue(ctx any, key accessor.Key) (any, bool) {
	v, ok := ctx.(mapContext)[key.(string)]
	return v, ok
}

func (mapContextAccessor) Write(entries map[accessor.Key]any, target any) any {
	out := mapContext{}
	for k, v := range target.(mapContext) {
		out[k] = v
	}
	for k, v := range entries {
		out[k.(string)] = v
	}
	return out
}

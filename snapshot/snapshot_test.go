package snapshot_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambientctx/propagation/registry"
	"github.com/ambientctx/propagation/snapshot"
)

func TestCaptureAll_MergeSemantics(t *testing.T) {
	// foo=f1, bar=b1 on the thread; a source
	// context overrides foo to f2. Default (clearMissing off):
	// in-scope foo=f2, bar=b1; after close both restored.
	foo := newSlot("foo")
	bar := newSlot("bar")
	foo.SetValue("f1")
	bar.SetValue("b1")

	r := registry.New(nil)
	r.RegisterThreadLocal(foo)
	r.RegisterThreadLocal(bar)
	require.NoError(t, r.RegisterContext(mapContextAccessor{}))

	f := snapshot.NewFactory(r)
	snap := f.CaptureAll(mapContext{"foo": "f2"})

	scope := snap.SetThreadLocals(nil)
	v, _ := foo.GetValue()
	assert.Equal(t, "f2", v)
	v, _ = bar.GetValue()
	assert.Equal(t, "b1", v)

	scope.Close()
	v, _ = foo.GetValue()
	assert.Equal(t, "f1", v)
	v, _ = bar.GetValue()
	assert.Equal(t, "b1", v)
}

func TestCaptureFrom_ClearMissing(t *testing.T) {
	foo := newSlot("foo")
	bar := newSlot("bar")
	foo.SetValue("f1")
	bar.SetValue("b1")

	r := registry.New(nil)
	r.RegisterThreadLocal(foo)
	r.RegisterThreadLocal(bar)
	require.NoError(t, r.RegisterContext(mapContextAccessor{}))

	f := snapshot.NewFactory(r, snapshot.WithClearMissing(true))
	snap := f.CaptureFrom(mapContext{"foo": "f2"})

	scope := snap.SetThreadLocals(nil)
	v, ok := foo.GetValue()
	assert.True(t, ok)
	assert.Equal(t, "f2", v)
	_, ok = bar.GetValue()
	assert.False(t, ok, "bar must be cleared under clearMissing")

	scope.Close()
	v, ok = foo.GetValue()
	assert.True(t, ok)
	assert.Equal(t, "f1", v)
	v, ok = bar.GetValue()
	assert.True(t, ok)
	assert.Equal(t, "b1", v)
}

func TestSelectiveKeys(t *testing.T) {
	// Only the explicitly listed keys change.
	foo := newSlot("foo")
	bar := newSlot("bar")
	baz := newSlot("baz")
	foo.SetValue("f1")
	bar.SetValue("b1")
	baz.SetValue("z1")

	r := registry.New(nil)
	r.RegisterThreadLocal(foo)
	r.RegisterThreadLocal(bar)
	r.RegisterThreadLocal(baz)
	require.NoError(t, r.RegisterContext(mapContextAccessor{}))

	f := snapshot.NewFactory(r)
	scope, err := f.SetThreadLocalsFrom(mapContext{"foo": "f2", "bar": "b2", "baz": "b3"}, "foo", "bar")
	require.NoError(t, err)

	v, _ := foo.GetValue()
	assert.Equal(t, "f2", v)
	v, _ = bar.GetValue()
	assert.Equal(t, "b2", v)
	v, _ = baz.GetValue()
	assert.Equal(t, "z1", v, "baz was not in the explicit key list and must be untouched")

	scope.Close()
	v, _ = foo.GetValue()
	assert.Equal(t, "f1", v)
	v, _ = bar.GetValue()
	assert.Equal(t, "b1", v)
	v, _ = baz.GetValue()
	assert.Equal(t, "z1", v)
}

func TestSetThreadLocalsFrom_EmptyKeysDefaultsToApplyAll(t *testing.T) {
	foo := newSlot("foo")
	foo.SetValue("f1")

	r := registry.New(nil)
	r.RegisterThreadLocal(foo)
	require.NoError(t, r.RegisterContext(mapContextAccessor{}))

	f := snapshot.NewFactory(r)
	scope, err := f.SetThreadLocalsFrom(mapContext{"foo": "f2"})
	require.NoError(t, err)
	v, _ := foo.GetValue()
	assert.Equal(t, "f2", v)
	scope.Close()
}

func TestSetThreadLocalsFrom_EmptyKeysFailPolicy(t *testing.T) {
	r := registry.New(nil)
	require.NoError(t, r.RegisterContext(mapContextAccessor{}))

	f := snapshot.NewFactory(r, snapshot.WithEmptyKeysPolicy(snapshot.EmptyKeysFail))
	_, err := f.SetThreadLocalsFrom(mapContext{"foo": "f2"})
	assert.ErrorIs(t, err, snapshot.ErrMissingKeys)
}

func TestNestedScopes_RestorationOrder(t *testing.T) {
	// Nested scopes restore in reverse order of opening.
	foo := newSlot("foo")
	r := registry.New(nil)
	r.RegisterThreadLocal(foo)
	require.NoError(t, r.RegisterContext(mapContextAccessor{}))
	f := snapshot.NewFactory(r)

	scope1 := setSingle(t, f, foo, "A")
	v, _ := foo.GetValue()
	assert.Equal(t, "A", v)

	scope2 := setSingle(t, f, foo, "B")
	v, _ = foo.GetValue()
	assert.Equal(t, "B", v)

	scope2.Close()
	v, _ = foo.GetValue()
	assert.Equal(t, "A", v)

	scope1.Close()
	_, ok := foo.GetValue()
	assert.False(t, ok)
}

func setSingle(t *testing.T, f *snapshot.Factory, a *slotAccessor, v string) *snapshot.Scope {
	t.Helper()
	scope, err := f.SetThreadLocalsFrom(mapContext{a.Key().(string): v}, a.Key())
	require.NoError(t, err)
	return scope
}

func TestScope_IdempotentClose(t *testing.T) {
	foo := newSlot("foo")
	r := registry.New(nil)
	r.RegisterThreadLocal(foo)
	require.NoError(t, r.RegisterContext(mapContextAccessor{}))
	f := snapshot.NewFactory(r)

	scope, err := f.SetThreadLocalsFrom(mapContext{"foo": "x"}, "foo")
	require.NoError(t, err)
	scope.Close()
	assert.NotPanics(t, func() { scope.Close() })
}

func TestScope_CloseStrict_AlreadyClosed(t *testing.T) {
	foo := newSlot("foo")
	r := registry.New(nil)
	r.RegisterThreadLocal(foo)
	require.NoError(t, r.RegisterContext(mapContextAccessor{}))
	f := snapshot.NewFactory(r)

	scope, err := f.SetThreadLocalsFrom(mapContext{"foo": "x"}, "foo")
	require.NoError(t, err)
	scope.Close()
	assert.ErrorIs(t, scope.CloseStrict(), snapshot.ErrScopeClosed)
}

func TestOpenCloseNoop_OnUnmodifiedState(t *testing.T) {
	// Opening and immediately closing a scope is a no-op.
	foo := newSlot("foo")
	foo.SetValue("f1")

	r := registry.New(nil)
	r.RegisterThreadLocal(foo)
	f := snapshot.NewFactory(r)
	snap := f.CaptureAll()

	scope := snap.SetThreadLocals(nil)
	scope.Close()

	v, ok := foo.GetValue()
	assert.True(t, ok)
	assert.Equal(t, "f1", v)
}

func TestCaptureAll_NothingCapturedReturnsSharedEmpty(t *testing.T) {
	r := registry.New(nil)
	f := snapshot.NewFactory(r)
	snap := f.CaptureAll()
	assert.Same(t, snapshot.Empty(), snap)
}

func TestCaptureAll_BulkOrdering(t *testing.T) {
	// Scenario/invariant 7: captureAll(c1, c2) yields the value from c2
	// when both define key k.
	r := registry.New(nil)
	require.NoError(t, r.RegisterContext(mapContextAccessor{}))
	f := snapshot.NewFactory(r)

	snap := f.CaptureAll(mapContext{"k": "from-c1"}, mapContext{"k": "from-c2"})
	v, ok := snap.Value("k")
	require.True(t, ok)
	assert.Equal(t, "from-c2", v)
}

func TestStackAccessor_ScopeOpenClose(t *testing.T) {
	stack := newStack("span")
	stack.SetValue("root")

	r := registry.New(nil)
	r.RegisterThreadLocal(stack)
	require.NoError(t, r.RegisterContext(mapContextAccessor{}))
	f := snapshot.NewFactory(r)

	snap := f.CaptureAll(mapContext{"span": "child"})
	scope := snap.SetThreadLocals(nil)

	v, _ := stack.GetValue()
	assert.Equal(t, "child", v)

	scope.Close()
	v, _ = stack.GetValue()
	assert.Equal(t, "root", v, "closing must pop back to the previous stack frame, not overwrite it")
}

func TestUpdateContext_RoundTrip(t *testing.T) {
	// Round-trip through a context and back.
	r := registry.New(nil)
	require.NoError(t, r.RegisterContext(mapContextAccessor{}))
	f := snapshot.NewFactory(r)

	original := f.CaptureFrom(mapContext{"k1": "v1", "k2": "v2"})
	updated, err := original.UpdateContext(mapContext{}, nil)
	require.NoError(t, err)

	roundTripped := f.CaptureFrom(updated)
	assert.ElementsMatch(t, original.Keys(), roundTripped.Keys())
	v1, _ := roundTripped.Value("k1")
	assert.Equal(t, "v1", v1)
}

func TestUpdateContext_NoAccessor(t *testing.T) {
	r := registry.New(nil)
	f := snapshot.NewFactory(r)
	snap := f.CaptureFrom()
	_, err := snap.UpdateContext(mapContext{}, nil)
	assert.NoError(t, err, "registry-less snapshot has nothing to write and returns ctx unchanged")
}

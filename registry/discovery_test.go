package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambientctx/propagation/accessor"
	"github.com/ambientctx/propagation/registry"
)

const manifestYAML = `
threadLocals:
  - name: mdc
    group: log.mdc
  - name: baggage
    enabled: "false"
  - name: missing
contexts:
  - name: reactive
`

func TestParseManifestAndLoad(t *testing.T) {
	m, err := registry.ParseManifest([]byte(manifestYAML))
	require.NoError(t, err)
	require.Len(t, m.ThreadLocals, 3)
	require.Len(t, m.Contexts, 1)

	r := registry.New(nil)
	providers := map[string]registry.Provider{
		"mdc": func() (accessor.ThreadLocalAccessor, error) {
			var v any
			return accessor.NewFuncThreadLocalAccessor("mdc", func() (any, bool) { return v, v != nil },
				func(x any) { v = x }, func() { v = nil }), nil
		},
		"baggage": func() (accessor.ThreadLocalAccessor, error) {
			return accessor.NewFuncThreadLocalAccessor("baggage", func() (any, bool) { return nil, false },
				func(any) {}, func() {}), nil
		},
	}
	ctxProviders := map[string]registry.ContextProvider{
		"reactive": func() (accessor.ContextAccessor, error) {
			return fakeContextAccessor{}, nil
		},
	}

	unresolved, err := r.LoadManifest(m, providers, ctxProviders)
	require.NoError(t, err)
	assert.Equal(t, []string{"missing"}, unresolved)

	assert.Contains(t, r.Keys(), accessor.Key("mdc"))
	assert.NotContains(t, r.Keys(), accessor.Key("baggage"), "disabled entry must not be registered")
	assert.Len(t, r.Contexts(), 1)
}

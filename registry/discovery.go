package registry

import (
	"fmt"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/ambientctx/propagation/accessor"
)

// ManifestEntry names one accessor a caller-supplied provider table
// knows how to build, plus whether the manifest wants it enabled. The
// core cannot construct arbitrary accessor types from config alone —
// the manifest only filters a Provider table the integrator supplies,
// the same division of labor the discovery contract expects: a callable
// that produces accessors, configured externally.
type ManifestEntry struct {
	Name    string         `yaml:"name"`
	Group   accessor.Group `yaml:"group,omitempty"`
	Enabled any            `yaml:"enabled,omitempty"`
}

// Manifest is the top-level YAML document shape accepted by
// LoadManifest.
type Manifest struct {
	ThreadLocals []ManifestEntry `yaml:"threadLocals"`
	Contexts     []ManifestEntry `yaml:"contexts"`
}

// enabled normalizes the loosely typed Enabled field (YAML lets users
// write true, "true", 1, or omit it) with cast.ToBool, defaulting to
// enabled when the field is absent.
func (e ManifestEntry) enabled() bool {
	if e.Enabled == nil {
		return true
	}
	return cast.ToBool(e.Enabled)
}

// Provider builds a named accessor on demand. A provider table is
// typically a small map literal the integrator maintains alongside
// their accessor implementations.
type Provider func() (accessor.ThreadLocalAccessor, error)

// ContextProvider is the context-accessor counterpart of Provider.
type ContextProvider func() (accessor.ContextAccessor, error)

// ParseManifest unmarshals a YAML discovery manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("registry: parsing discovery manifest: %w", err)
	}
	return &m, nil
}

// LoadManifest registers every enabled entry in m whose name is found
// in threadLocalProviders/contextProviders, skipping disabled entries
// and ones without a matching provider. It returns the names it could
// not resolve so the caller can decide whether that's fatal.
func (r *Registry) LoadManifest(m *Manifest, threadLocalProviders map[string]Provider, contextProviders map[string]ContextProvider) (unresolved []string, err error) {
	for _, e := range m.ThreadLocals {
		if !e.enabled() {
			continue
		}
		p, ok := threadLocalProviders[e.Name]
		if !ok {
			unresolved = append(unresolved, e.Name)
			continue
		}
		a, buildErr := p()
		if buildErr != nil {
			return unresolved, fmt.Errorf("registry: building thread-local accessor %q: %w", e.Name, buildErr)
		}
		r.RegisterThreadLocal(a)
	}

	for _, e := range m.Contexts {
		if !e.enabled() {
			continue
		}
		p, ok := contextProviders[e.Name]
		if !ok {
			unresolved = append(unresolved, e.Name)
			continue
		}
		a, buildErr := p()
		if buildErr != nil {
			return unresolved, fmt.Errorf("registry: building context accessor %q: %w", e.Name, buildErr)
		}
		if err := r.RegisterContext(a); err != nil {
			return unresolved, err
		}
	}

	return unresolved, nil
}

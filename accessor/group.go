package accessor

import "strings"

// Group identifies a family of related thread-local accessors by a
// dotted string, e.g. "trace.span", "trace.baggage", "log.mdc". It
// lets a caller include or exclude a whole family by prefix rather
// than enumerating individual keys — the "ambient-key grouping"
// component the core exposes alongside individual-key predicates.
type Group string

// Matches reports whether candidate is g itself or a strict
// sub-group of g (candidate starts with "g."). The empty group matches
// every candidate.
func (g Group) Matches(candidate Group) bool {
	gs, cs := string(g), string(candidate)
	if gs == "" {
		return true
	}
	if gs == cs {
		return true
	}
	return strings.HasPrefix(cs, gs+".")
}

// Grouped is the optional capability a ThreadLocalAccessor implements
// to report which Group it belongs to. Accessors that don't implement
// it are considered ungrouped and only ever match by exact key.
type Grouped interface {
	Group() Group
}

// GroupOf returns the group an accessor reports, or "" if it does not
// implement Grouped.
func GroupOf(a ThreadLocalAccessor) Group {
	if g, ok := a.(Grouped); ok {
		return g.Group()
	}
	return ""
}

// InGroups builds a Predicate over keys that accepts any key whose
// accessor (looked up via keyToGroup) belongs to one of the given
// groups. It is meant to be composed by a caller that already has the
// key->group mapping (typically produced by a registry), since a bare
// Key carries no group information on its own.
func InGroups(keyToGroup map[Key]Group, groups ...Group) Predicate {
	if len(groups) == 0 {
		return func(Key) bool { return false }
	}
	return func(key Key) bool {
		g, ok := keyToGroup[key]
		if !ok {
			return false
		}
		for _, want := range groups {
			if want.Matches(g) {
				return true
			}
		}
		return false
	}
}

// Package corpus pairs the per-engine output sets on their shared source
// identifier and provides the file-backed collaborators that produce them.
package corpus

import "sort"

// Set is a set of source identifiers (file stems).
type Set map[string]struct{}

// NewSet builds a set from ids.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts id.
func (s Set) Add(id string) {
	s[id] = struct{}{}
}

// Has reports whether id is in the set.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in ascending order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// CommonIdentifiers returns the identifiers present in both sets, sorted.
// An empty result is valid and means there is nothing to compare.
func CommonIdentifiers(a, b Set) []string {
	out := make([]string, 0)
	for id := range a {
		if b.Has(id) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// UnionIdentifiers returns the identifiers present in either set, sorted.
func UnionIdentifiers(a, b Set) []string {
	u := make(Set, len(a)+len(b))
	for id := range a {
		u.Add(id)
	}
	for id := range b {
		u.Add(id)
	}
	return u.Sorted()
}

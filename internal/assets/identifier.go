package assets

import (
	"fmt"
	"regexp"
)

var identifierUnsafe = regexp.MustCompile(`[^a-zA-Z0-9]`)

// IdentifierSet is the set of identifiers already assigned in a run.
// It is treated as immutable: With returns a new set.
type IdentifierSet map[string]struct{}

// Has reports whether id is already assigned.
func (s IdentifierSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// With returns a copy of the set that also contains id.
func (s IdentifierSet) With(id string) IdentifierSet {
	next := make(IdentifierSet, len(s)+1)
	for k := range s {
		next[k] = struct{}{}
	}
	next[id] = struct{}{}
	return next
}

// BaseIdentifier derives the identifier stem for a decoded asset path.
func BaseIdentifier(decodedPath string) string {
	return "a_" + identifierUnsafe.ReplaceAllString(decodedPath, "_")
}

// NextIdentifier returns base when unused, otherwise base_1, base_2, ... whichever is
// first free, together with the set extended by the chosen identifier.
func NextIdentifier(base string, used IdentifierSet) (string, IdentifierSet) {
	id := base
	for i := 1; used.Has(id); i++ {
		id = fmt.Sprintf("%s_%d", base, i)
	}
	return id, used.With(id)
}

package schema

import (
	"sort"
	"strings"
)

// CaseFoldedIndex maps lowercased names back to their original casing. The
// source and target naming systems disagree on case, so set operations run on
// folded names while messages keep the original spelling.
type CaseFoldedIndex struct {
	byFolded map[string]string
}

func NewCaseFoldedIndex(names ...string) *CaseFoldedIndex {
	idx := &CaseFoldedIndex{byFolded: make(map[string]string, len(names))}
	for _, n := range names {
		idx.Add(n)
	}
	return idx
}

// Fold is the canonical folding used across the index.
func Fold(name string) string {
	return strings.ToLower(name)
}

// Add records a name. A later name with the same folded form replaces the
// earlier one; case-colliding inputs are unsupported.
func (idx *CaseFoldedIndex) Add(name string) {
	idx.byFolded[Fold(name)] = name
}

// Original returns the originally-cased name for a folded key.
func (idx *CaseFoldedIndex) Original(folded string) (string, bool) {
	orig, ok := idx.byFolded[folded]
	return orig, ok
}

// Contains reports whether name is present, compared case-insensitively.
func (idx *CaseFoldedIndex) Contains(name string) bool {
	_, ok := idx.byFolded[Fold(name)]
	return ok
}

func (idx *CaseFoldedIndex) Len() int {
	return len(idx.byFolded)
}

// Folded returns the sorted folded keys.
func (idx *CaseFoldedIndex) Folded() []string {
	keys := make([]string, 0, len(idx.byFolded))
	for k := range idx.byFolded {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Missing returns the folded names present here but absent from other, sorted.
func (idx *CaseFoldedIndex) Missing(other *CaseFoldedIndex) []string {
	var out []string
	for k := range idx.byFolded {
		if _, ok := other.byFolded[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Common returns the folded names present in both indexes, sorted.
func (idx *CaseFoldedIndex) Common(other *CaseFoldedIndex) []string {
	var out []string
	for k := range idx.byFolded {
		if _, ok := other.byFolded[k]; ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

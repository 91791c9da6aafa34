package budget

import "sort"

// Selection is the ordered set of allowed paths, most frequent first.
type Selection []string

// Select returns up to n paths ranked by descending count. Paths with equal
// counts keep the order in which the index first saw them. n <= 0 selects
// nothing; a corpus with fewer than n paths selects all of them.
func Select(ix *PathIndex, n int) Selection {
	if n <= 0 {
		return Selection{}
	}
	paths := ix.Paths()
	sort.SliceStable(paths, func(i, j int) bool {
		return ix.Count(paths[i]) > ix.Count(paths[j])
	})
	if len(paths) > n {
		paths = paths[:n]
	}
	return Selection(paths)
}

// Set returns the selection as a lookup set.
func (s Selection) Set() map[string]struct{} {
	m := make(map[string]struct{}, len(s))
	for _, p := range s {
		m[p] = struct{}{}
	}
	return m
}

// Contains reports whether path is selected.
func (s Selection) Contains(path string) bool {
	for _, p := range s {
		if p == path {
			return true
		}
	}
	return false
}

// Package budget plans a budget-mode scan: it picks the N most frequently
// requested paths across a template corpus and finds the templates that can
// run against those paths alone without changing what they send.
package budget

import "github.com/waftester/nucleibudget/pkg/nuclei"

// PathIndex counts how many request paths reference each path string.
// It remembers first-seen order so equal counts sort deterministically.
type PathIndex struct {
	counts map[string]int
	order  []string
}

// NewPathIndex returns an empty index.
func NewPathIndex() *PathIndex {
	return &PathIndex{counts: make(map[string]int)}
}

// BuildIndex counts every path of every non-raw request in templates,
// visiting templates, requests and paths in order.
func BuildIndex(templates []*nuclei.Template) *PathIndex {
	ix := NewPathIndex()
	for _, t := range templates {
		for _, r := range t.Requests {
			if r.IsRaw() {
				continue
			}
			for _, p := range r.Paths() {
				ix.Add(p)
			}
		}
	}
	return ix
}

// Add increments the count of path.
func (ix *PathIndex) Add(path string) {
	if _, ok := ix.counts[path]; !ok {
		ix.order = append(ix.order, path)
	}
	ix.counts[path]++
}

// Count returns how often path was seen.
func (ix *PathIndex) Count(path string) int {
	return ix.counts[path]
}

// Len returns the number of distinct paths.
func (ix *PathIndex) Len() int {
	return len(ix.order)
}

// Paths returns the distinct paths in first-seen order.
func (ix *PathIndex) Paths() []string {
	out := make([]string, len(ix.order))
	copy(out, ix.order)
	return out
}

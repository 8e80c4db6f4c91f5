// Package match scores enriched requirement skills against candidate skills
// and aggregates the pairwise results into a match report.
package match

import (
	"sort"

	"github.com/okarpov/skillfit/internal/skill"
	"github.com/okarpov/skillfit/internal/taxonomy"
)

// Member is a candidate skill registered in the index, identified by its
// insertion order so one-to-one assignment can consume individual entries.
type Member struct {
	Ord int
	Def *skill.Definition
}

// BucketIndex partitions candidate skills into domain buckets. A skill joins
// its own category bucket and every bucket declared adjacent to it, so
// membership is intentionally non-exclusive.
type BucketIndex struct {
	table   *taxonomy.Table
	buckets map[taxonomy.Category][]Member
	next    int
}

// NewBucketIndex creates an empty index over the given adjacency table.
func NewBucketIndex(table *taxonomy.Table) *BucketIndex {
	return &BucketIndex{
		table:   table,
		buckets: make(map[taxonomy.Category][]Member),
	}
}

// Add registers a candidate skill in its own bucket and all adjacent buckets.
func (idx *BucketIndex) Add(def *skill.Definition) {
	m := Member{Ord: idx.next, Def: def}
	idx.next++

	idx.buckets[def.Category] = append(idx.buckets[def.Category], m)
	for _, neighbor := range idx.table.Neighbors(def.Category) {
		idx.buckets[neighbor] = append(idx.buckets[neighbor], m)
	}
}

// CandidatesFor returns the union of the requirement's own bucket and its
// adjacent buckets, deduplicated and ordered by insertion. This bounds the
// pairwise search to bucket-sized sets instead of the full cross product.
func (idx *BucketIndex) CandidatesFor(req *skill.Definition) []Member {
	seen := make(map[int]struct{})
	var out []Member

	collect := func(c taxonomy.Category) {
		for _, m := range idx.buckets[c] {
			if _, ok := seen[m.Ord]; ok {
				continue
			}
			seen[m.Ord] = struct{}{}
			out = append(out, m)
		}
	}

	collect(req.Category)
	for _, neighbor := range idx.table.Neighbors(req.Category) {
		collect(neighbor)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Ord < out[j].Ord })
	return out
}

// Len returns the number of distinct candidates added.
func (idx *BucketIndex) Len() int { return idx.next }

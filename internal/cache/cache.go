// Package cache stores previously computed skill enrichments keyed by the
// normalized skill signature and the taxonomy version. Entries are never
// mutated in place; bumping the taxonomy version is the sole invalidation
// mechanism.
package cache

import (
	"errors"

	"github.com/okarpov/skillfit/internal/skill"
)

// ErrMiss is returned when no entry exists for the requested key and version.
var ErrMiss = errors.New("cache miss")

// Stats summarizes cache effectiveness for observability.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// HitRate returns hits over total lookups, 0 when nothing was looked up.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache is the enrichment store injected into the Enricher. Implementations
// must be safe for concurrent readers; writes are idempotent under a fixed
// taxonomy version.
type Cache interface {
	// Get returns the entry for (key, version) or ErrMiss. A corrupt entry
	// is evicted and reported as a miss.
	Get(key, version string) (*skill.Definition, error)
	// Put stores the definition for (key, version). An existing equal entry
	// is left untouched; an existing conflicting entry is replaced.
	Put(key, version string, def *skill.Definition) error
	Stats() Stats
	Close() error
}

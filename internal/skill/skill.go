// Package skill defines the enriched skill value type shared by the cache,
// the enricher and the matching engine.
package skill

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okarpov/skillfit/internal/taxonomy"
)

// Source records which branch of the enrichment pipeline produced the
// categorical attributes of a definition.
type Source string

const (
	SourceCache     Source = "cache"
	SourceHeuristic Source = "heuristic"
	SourceLLM       Source = "llm"
)

// ErrEmptyName marks an empty or whitespace-only raw skill string. Callers
// skip such entries; they never abort a batch.
var ErrEmptyName = errors.New("skill name is empty")

// Definition is the structured form of a raw skill string. Two enrichments of
// the same raw name under the same taxonomy version yield identical values
// except for EnrichedAt.
type Definition struct {
	Name                string            `json:"name"`
	NormalizedKey       string            `json:"normalized_key"`
	Category            taxonomy.Category `json:"category"`
	KnowledgeComponents []string          `json:"knowledge_components,omitempty"`
	Contexts            []string          `json:"contexts,omitempty"`
	Functions           []string          `json:"functions,omitempty"`
	Embedding           []float32         `json:"embedding,omitempty"`
	Source              Source            `json:"enrichment_source"`
	Confidence          float64           `json:"confidence"`
	Ambiguous           bool              `json:"ambiguous,omitempty"`
	EnrichedAt          time.Time         `json:"enriched_at"`
}

// Normalize case-folds the raw name and collapses internal whitespace.
func Normalize(raw string) (string, error) {
	fields := strings.Fields(strings.ToLower(raw))
	if len(fields) == 0 {
		return "", ErrEmptyName
	}
	return strings.Join(fields, " "), nil
}

// Key derives the normalized cache key for a raw skill name. It is a pure
// function of the name.
func Key(raw string) (string, error) {
	normalized, err := Normalize(raw)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", sum[:12]), nil
}

// NormalizeSet trims, lowercases, deduplicates and sorts attribute values so
// that set serialization is deterministic.
func NormalizeSet(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Jaccard computes set overlap between two normalized attribute sets. Two
// empty sets overlap fully by convention: absence of evidence on both sides
// should not drag the attribute score down.
func Jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	inter := 0
	for _, v := range b {
		if _, ok := set[v]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Equal compares two definitions ignoring EnrichedAt and Source, the fields
// the idempotence invariant excludes.
func Equal(a, b *Definition) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Name != b.Name || a.NormalizedKey != b.NormalizedKey ||
		a.Category != b.Category || a.Confidence != b.Confidence ||
		a.Ambiguous != b.Ambiguous {
		return false
	}
	if !equalStrings(a.KnowledgeComponents, b.KnowledgeComponents) ||
		!equalStrings(a.Contexts, b.Contexts) ||
		!equalStrings(a.Functions, b.Functions) {
		return false
	}
	if len(a.Embedding) != len(b.Embedding) {
		return false
	}
	for i := range a.Embedding {
		if a.Embedding[i] != b.Embedding[i] {
			return false
		}
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

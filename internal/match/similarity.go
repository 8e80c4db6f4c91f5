package match

import (
	"github.com/okarpov/skillfit/internal/embedding"
	"github.com/okarpov/skillfit/internal/skill"
	"github.com/okarpov/skillfit/internal/taxonomy"
)

// Scoring weights and thresholds. Attribute overlap is weighted at least as
// heavily as embedding similarity because it resists surface lexical
// coincidence ("Java" vs "JavaScript").
const (
	EmbeddingWeight = 0.45
	AttributeWeight = 0.55

	// InDomainThreshold is the minimum similarity for a domain-compatible
	// pair to match.
	InDomainThreshold = 0.40
	// CrossDomainThreshold is the strict override a pair must clear when it
	// is not domain-compatible. This is the core anti-false-positive rule.
	CrossDomainThreshold = 0.80
)

// PairScore is the outcome of scoring one (requirement, candidate) pair.
type PairScore struct {
	Similarity       float64
	EmbeddingScore   float64
	AttributeScore   float64
	DomainCompatible bool
}

// Engine scores skill pairs using embedding similarity plus
// structured-attribute overlap.
type Engine struct {
	table *taxonomy.Table
}

// NewEngine creates a similarity engine over the given adjacency table.
func NewEngine(table *taxonomy.Table) *Engine {
	return &Engine{table: table}
}

// Score computes the pair score. Cosine similarity is clamped to [0, 1] for
// reporting; the attribute score is the mean Jaccard overlap across knowledge
// components, contexts and functions.
func (e *Engine) Score(req, cand *skill.Definition) PairScore {
	embed := embedding.Cosine(req.Embedding, cand.Embedding)
	if embed < 0 {
		embed = 0
	}
	if embed > 1 {
		embed = 1
	}

	attr := (skill.Jaccard(req.KnowledgeComponents, cand.KnowledgeComponents) +
		skill.Jaccard(req.Contexts, cand.Contexts) +
		skill.Jaccard(req.Functions, cand.Functions)) / 3

	return PairScore{
		Similarity:       EmbeddingWeight*embed + AttributeWeight*attr,
		EmbeddingScore:   embed,
		AttributeScore:   attr,
		DomainCompatible: e.Compatible(req, cand),
	}
}

// Compatible reports whether the two skills share a domain bucket. A skill
// with an ambiguous classification is never domain-compatible: it can only
// match through the strict cross-domain override.
func (e *Engine) Compatible(req, cand *skill.Definition) bool {
	if req.Ambiguous || cand.Ambiguous {
		return false
	}
	return e.table.Compatible(req.Category, cand.Category)
}

// Eligible reports whether a scored pair may be committed as a match.
func Eligible(ps PairScore) bool {
	if ps.DomainCompatible {
		return ps.Similarity >= InDomainThreshold
	}
	return ps.Similarity >= CrossDomainThreshold
}

package match

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/okarpov/skillfit/internal/metrics"
	"github.com/okarpov/skillfit/internal/skill"
	"github.com/okarpov/skillfit/internal/taxonomy"
)

// Level is the coarse classification of overall fitness.
type Level string

const (
	LevelLow      Level = "Low"
	LevelModerate Level = "Moderate"
	LevelGood     Level = "Good"
)

// Aggregation tuning. A critical gap is a dominant unmet requirement; the
// hard penalty keeps it from being diluted away by many minor matches.
const (
	criticalGapPenalty = 15.0
	moderateFraction   = 0.75
)

// Result is the outcome for a single requirement skill.
type Result struct {
	Requirement      string  `json:"requirement"`
	MatchedCandidate string  `json:"matched_candidate,omitempty"`
	SimilarityScore  float64 `json:"similarity_score"`
	DomainCompatible bool    `json:"domain_compatible"`
	Confidence       float64 `json:"confidence"`
	Matched          bool    `json:"matched"`
}

// Report is the immutable outcome of matching one requirement list against
// one candidate list. Ownership passes to the caller on return.
type Report struct {
	ID            string    `json:"id"`
	GeneratedAt   time.Time `json:"generated_at"`
	Results       []Result  `json:"results"`
	OverallScore  float64   `json:"overall_score"`
	MatchLevel    Level     `json:"match_level"`
	CriticalGaps  []string  `json:"critical_gaps,omitempty"`
	SurplusSkills []string  `json:"surplus_skills,omitempty"`
	Comparisons   int       `json:"comparisons"`
}

// Aggregator assigns candidate skills to requirement skills and classifies
// the overall match. It is purely synchronous and deterministic.
type Aggregator struct {
	index  *BucketIndex
	engine *Engine
	logger *zap.Logger
}

// NewAggregator creates an aggregator over a populated candidate index.
func NewAggregator(index *BucketIndex, engine *Engine, logger *zap.Logger) *Aggregator {
	return &Aggregator{index: index, engine: engine, logger: logger}
}

// Match builds a bucket index from the candidate list and aggregates the
// requirements against it in one call. Candidate insertion order matches the
// slice order, which the aggregator relies on for surplus accounting.
func Match(table *taxonomy.Table, logger *zap.Logger, requirements, candidates []*skill.Definition) *Report {
	index := NewBucketIndex(table)
	for _, cand := range candidates {
		index.Add(cand)
	}
	engine := NewEngine(table)
	return NewAggregator(index, engine, logger).Aggregate(requirements, candidates)
}

type scoredPair struct {
	reqIdx int
	member Member
	score  PairScore
}

// Aggregate produces the match report for the given requirement skills
// against the candidates previously added to the index.
func (a *Aggregator) Aggregate(requirements []*skill.Definition, candidates []*skill.Definition) *Report {
	report := &Report{
		ID:          uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		Results:     make([]Result, len(requirements)),
	}

	var (
		pairs         []scoredPair
		hasCompatible = make([]bool, len(requirements))
	)

	for i, req := range requirements {
		report.Results[i] = Result{
			Requirement: req.Name,
			Confidence:  req.Confidence,
		}

		members := a.index.CandidatesFor(req)
		if len(members) == 0 {
			// No bucket members at all: immediately a critical gap, the
			// similarity engine is never invoked.
			continue
		}

		for _, m := range members {
			ps := a.engine.Score(req, m.Def)
			report.Comparisons++
			if ps.DomainCompatible {
				hasCompatible[i] = true
			}
			if Eligible(ps) {
				pairs = append(pairs, scoredPair{reqIdx: i, member: m, score: ps})
			}
		}
	}
	metrics.RecordComparisons(report.Comparisons)

	sortPairs(pairs)

	// Greedy one-to-one assignment over the globally sorted pairs. Good
	// enough in place of a full bipartite solver for lists this small.
	reqTaken := make([]bool, len(requirements))
	candTaken := make(map[int]bool)
	for _, p := range pairs {
		if reqTaken[p.reqIdx] || candTaken[p.member.Ord] {
			continue
		}
		reqTaken[p.reqIdx] = true
		candTaken[p.member.Ord] = true

		req := requirements[p.reqIdx]
		report.Results[p.reqIdx] = Result{
			Requirement:      req.Name,
			MatchedCandidate: p.member.Def.Name,
			SimilarityScore:  p.score.Similarity,
			DomainCompatible: p.score.DomainCompatible,
			Confidence:       math.Min(req.Confidence, p.member.Def.Confidence),
			Matched:          true,
		}
	}

	for i := range requirements {
		if reqTaken[i] {
			continue
		}
		report.Results[i].DomainCompatible = hasCompatible[i]
		if !hasCompatible[i] {
			report.CriticalGaps = append(report.CriticalGaps, requirements[i].Name)
		}
	}

	for ord, cand := range candidates {
		if !candTaken[ord] {
			report.SurplusSkills = append(report.SurplusSkills, cand.Name)
		}
	}

	a.finalize(report, len(requirements))

	if a.logger != nil {
		a.logger.Info("aggregation completed",
			zap.Int("requirements", len(requirements)),
			zap.Int("candidates", len(candidates)),
			zap.Int("comparisons", report.Comparisons),
			zap.Float64("overall_score", report.OverallScore),
			zap.String("match_level", string(report.MatchLevel)),
		)
	}

	return report
}

// sortPairs orders pairs by descending score with deterministic tie-breaks:
// attribute score, embedding score, then the shorter (more specific)
// candidate name.
func sortPairs(pairs []scoredPair) {
	sort.Slice(pairs, func(i, j int) bool {
		a, b := pairs[i], pairs[j]
		if a.score.Similarity != b.score.Similarity {
			return a.score.Similarity > b.score.Similarity
		}
		if a.score.AttributeScore != b.score.AttributeScore {
			return a.score.AttributeScore > b.score.AttributeScore
		}
		if a.score.EmbeddingScore != b.score.EmbeddingScore {
			return a.score.EmbeddingScore > b.score.EmbeddingScore
		}
		an, bn := a.member.Def.Name, b.member.Def.Name
		if len(an) != len(bn) {
			return len(an) < len(bn)
		}
		if an != bn {
			return an < bn
		}
		return a.reqIdx < b.reqIdx
	})
}

func (a *Aggregator) finalize(report *Report, totalReqs int) {
	if totalReqs == 0 {
		report.MatchLevel = LevelLow
		return
	}

	matched := 0
	allAboveThreshold := true
	var scoreSum float64
	for _, r := range report.Results {
		if !r.Matched {
			allAboveThreshold = false
			continue
		}
		matched++
		scoreSum += r.SimilarityScore
		if r.SimilarityScore < InDomainThreshold {
			allAboveThreshold = false
		}
	}

	fraction := float64(matched) / float64(totalReqs)
	if matched > 0 {
		report.OverallScore = 100 * (scoreSum / float64(matched)) * fraction
	}
	report.OverallScore -= criticalGapPenalty * float64(len(report.CriticalGaps))
	report.OverallScore = math.Max(0, math.Min(100, report.OverallScore))

	switch {
	case len(report.CriticalGaps) > 0:
		// A single dominant unmet requirement is never diluted away.
		report.MatchLevel = LevelLow
	case matched == totalReqs && allAboveThreshold:
		report.MatchLevel = LevelGood
	case fraction >= moderateFraction:
		report.MatchLevel = LevelModerate
	default:
		report.MatchLevel = LevelLow
	}
}

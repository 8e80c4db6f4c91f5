// Package enrich turns raw skill strings into structured definitions using a
// cache-first pipeline: cached value, then a keyword heuristic, then an
// optional external collaborator when the heuristic is not confident enough.
package enrich

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/okarpov/skillfit/internal/cache"
	"github.com/okarpov/skillfit/internal/embedding"
	"github.com/okarpov/skillfit/internal/metrics"
	"github.com/okarpov/skillfit/internal/skill"
	"github.com/okarpov/skillfit/internal/taxonomy"
	"github.com/okarpov/skillfit/internal/utils"
)

const (
	// LLMTrustThreshold is the heuristic confidence below which the external
	// collaborator is consulted when available.
	LLMTrustThreshold = 0.60
	// llmConfidenceCeiling bounds how much trust an external answer can carry.
	llmConfidenceCeiling = 0.95

	defaultTimeout     = 30 * time.Second
	defaultMaxRetries  = 2
	defaultBackoffBase = time.Second
	defaultConcurrency = 4
)

// Payload is the structured output of the external enrichment collaborator.
type Payload struct {
	Category            string   `json:"category" mapstructure:"category"`
	KnowledgeComponents []string `json:"knowledge_components" mapstructure:"knowledge_components"`
	Contexts            []string `json:"contexts" mapstructure:"contexts"`
	Functions           []string `json:"functions" mapstructure:"functions"`
	Confidence          float64  `json:"confidence" mapstructure:"confidence"`
}

// Collaborator is the external enrichment contract, typically an LLM.
type Collaborator interface {
	Enrich(ctx context.Context, name, contextText string) (*Payload, error)
}

// Input is one raw skill with optional surrounding context text.
type Input struct {
	Name    string
	Context string
}

// Summary accounts for one enrichment batch, mirroring the per-step counters
// the report embeds.
type Summary struct {
	Total         int `json:"total"`
	Skipped       int `json:"skipped"`
	FromCache     int `json:"from_cache"`
	FromHeuristic int `json:"from_heuristic"`
	FromLLM       int `json:"from_llm"`
	Failures      int `json:"collaborator_failures"`
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithCollaborator attaches the external enrichment collaborator.
func WithCollaborator(c Collaborator) Option {
	return func(e *Enricher) { e.collaborator = c }
}

// WithTimeout sets the per-call collaborator timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Enricher) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithMaxRetries bounds collaborator retries per skill.
func WithMaxRetries(n int) Option {
	return func(e *Enricher) {
		if n >= 0 {
			e.maxRetries = n
		}
	}
}

// WithBackoffBase sets the base delay of the exponential retry backoff.
func WithBackoffBase(d time.Duration) Option {
	return func(e *Enricher) {
		if d > 0 {
			e.backoffBase = d
		}
	}
}

// WithConcurrency bounds how many skills a batch enriches at once. The bound
// exists for the collaborator's sake; everything else is local.
func WithConcurrency(n int) Option {
	return func(e *Enricher) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// Enricher owns cache entries: it is the only component that creates them.
type Enricher struct {
	cache        cache.Cache
	collaborator Collaborator
	logger       *zap.Logger
	version      string
	timeout      time.Duration
	maxRetries   int
	backoffBase  time.Duration
	concurrency  int

	collabFailures atomic.Uint64
}

// New creates an Enricher writing to the given cache under the given taxonomy
// version.
func New(c cache.Cache, version string, logger *zap.Logger, opts ...Option) *Enricher {
	e := &Enricher{
		cache:       c,
		logger:      logger,
		version:     version,
		timeout:     defaultTimeout,
		maxRetries:  defaultMaxRetries,
		backoffBase: defaultBackoffBase,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich turns one raw skill string into a Definition. The raw name must be
// non-empty after trimming; skill.ErrEmptyName is returned otherwise.
func (e *Enricher) Enrich(ctx context.Context, raw, contextText string) (*skill.Definition, error) {
	key, err := skill.Key(raw)
	if err != nil {
		return nil, err
	}

	if cached, err := e.cache.Get(key, e.version); err == nil {
		metrics.RecordCacheLookup(true)
		metrics.RecordEnrichment(string(skill.SourceCache))
		cached.Source = skill.SourceCache
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		e.logger.Warn("cache read failed; recomputing", zap.String("skill", raw), zap.Error(err))
	}
	metrics.RecordCacheLookup(false)

	normalized, err := skill.Normalize(raw)
	if err != nil {
		return nil, err
	}

	h := classify(normalized)
	def := &skill.Definition{
		Name:                raw,
		NormalizedKey:       key,
		Category:            h.category,
		KnowledgeComponents: h.components,
		Contexts:            h.contexts,
		Functions:           h.functions,
		Source:              skill.SourceHeuristic,
		Confidence:          h.confidence,
		Ambiguous:           h.ambiguous,
		EnrichedAt:          time.Now().UTC(),
	}

	if def.Confidence < LLMTrustThreshold && e.collaborator != nil {
		if payload, err := e.callCollaborator(ctx, raw, contextText); err != nil {
			// Non-fatal: the heuristic result is used and the confidence
			// stays capped, never silently upgraded.
			metrics.RecordCollaboratorFailure()
			e.collabFailures.Add(1)
			e.logger.Warn("external enrichment failed; using heuristic result",
				zap.String("skill", raw),
				zap.Error(err),
			)
		} else {
			e.merge(def, h, payload)
		}
	}

	// The embedding is always computed locally, independent of which branch
	// produced the categorical attributes.
	def.Embedding = embedding.Embed(normalized)

	if err := e.cache.Put(key, e.version, def); err != nil {
		e.logger.Warn("cache write failed", zap.String("skill", raw), zap.Error(err))
	}

	metrics.RecordEnrichment(string(def.Source))
	return def, nil
}

// merge folds the collaborator payload into the heuristic definition.
func (e *Enricher) merge(def *skill.Definition, h heuristicResult, payload *Payload) {
	llmCategory := taxonomy.Parse(payload.Category)
	confidence := payload.Confidence
	if confidence > llmConfidenceCeiling {
		confidence = llmConfidenceCeiling
	}
	if confidence < 0 {
		confidence = 0
	}

	def.Source = skill.SourceLLM
	def.KnowledgeComponents = skill.NormalizeSet(append(payload.KnowledgeComponents, h.components...))
	def.Contexts = skill.NormalizeSet(append(payload.Contexts, h.contexts...))
	def.Functions = skill.NormalizeSet(append(payload.Functions, h.functions...))

	// When the collaborator disagrees with a non-trivial heuristic vote and
	// is barely more certain, the domain stays ambiguous.
	if llmCategory != h.category && h.category != taxonomy.General &&
		confidence-h.confidence < 0.10 {
		def.Ambiguous = true
		def.Confidence = ambiguousConfidence
		return
	}

	def.Category = llmCategory
	def.Confidence = confidence
	def.Ambiguous = false
	if confidence < LLMTrustThreshold {
		def.Ambiguous = h.ambiguous
	}
}

func (e *Enricher) callCollaborator(ctx context.Context, raw, contextText string) (*Payload, error) {
	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := e.backoffBase << (attempt - 1)
			if err := utils.WaitFor(ctx, backoff); err != nil {
				return nil, err
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		payload, err := e.collaborator.Enrich(callCtx, raw, contextText)
		cancel()
		if err == nil {
			return payload, nil
		}
		lastErr = err

		e.logger.Debug("enrichment attempt failed",
			zap.String("skill", raw),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return nil, lastErr
}

// EnrichAll enriches a batch, preserving input order. Empty names are skipped
// with a warning; a batch never fails wholesale because of one skill.
func (e *Enricher) EnrichAll(ctx context.Context, inputs []Input) ([]*skill.Definition, Summary) {
	results := make([]*skill.Definition, len(inputs))
	failuresBefore := e.collabFailures.Load()

	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, e.concurrency)
	)
	for i, in := range inputs {
		wg.Add(1)
		go func(i int, in Input) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			def, err := e.Enrich(ctx, in.Name, in.Context)
			if err != nil {
				e.logger.Warn("skipping skill", zap.String("skill", in.Name), zap.Error(err))
				return
			}
			results[i] = def
		}(i, in)
	}
	wg.Wait()

	summary := Summary{
		Total:    len(inputs),
		Failures: int(e.collabFailures.Load() - failuresBefore),
	}
	compact := make([]*skill.Definition, 0, len(results))
	for _, def := range results {
		if def == nil {
			summary.Skipped++
			continue
		}
		switch def.Source {
		case skill.SourceCache:
			summary.FromCache++
		case skill.SourceLLM:
			summary.FromLLM++
		default:
			summary.FromHeuristic++
		}
		compact = append(compact, def)
	}
	return compact, summary
}

// Stats exposes cache statistics for observability.
func (e *Enricher) Stats() cache.Stats {
	return e.cache.Stats()
}

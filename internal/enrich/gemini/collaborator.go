package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/okarpov/skillfit/internal/enrich"
	"github.com/okarpov/skillfit/internal/logger"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

// Collaborator adapts the Gemini generator to the enrichment contract.
type Collaborator struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

// NewCollaborator creates the Gemini-backed enrichment collaborator.
func NewCollaborator(generator contentGenerator, log *zap.Logger, maxLogLength int) *Collaborator {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Collaborator{
		generator: generator,
		logger:    log,
		maxLogLen: maxLogLength,
	}
}

// Enrich implements enrich.Collaborator.
func (c *Collaborator) Enrich(ctx context.Context, name, contextText string) (*enrich.Payload, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("skill name is required")
	}

	prompt := buildPrompt(name, contextText)

	c.logger.Debug("gemini enrichment request",
		zap.String("skill", name),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, c.maxLogLen)),
	)

	raw, err := c.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("gemini enrichment response",
		zap.String("skill", name),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, c.maxLogLen)),
	)

	return parseResponse(raw)
}

func buildPrompt(name, contextText string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Skill: {{SKILL_NAME}}\n\nContext:\n{{CONTEXT}}\n\nJSON Response:"
	}
	if strings.TrimSpace(contextText) == "" {
		contextText = "none"
	}
	prompt := strings.ReplaceAll(template, "{{SKILL_NAME}}", name)
	prompt = strings.ReplaceAll(prompt, "{{CONTEXT}}", contextText)
	return prompt
}

// parseResponse decodes the model output leniently: the JSON is unmarshaled
// into a loose map first, then coerced into the payload so that string-typed
// numbers and similar model quirks do not fail the call.
func parseResponse(raw string) (*enrich.Payload, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	var payload enrich.Payload
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &payload,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("build payload decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("decode gemini payload: %w", err)
	}

	if payload.Confidence < 0 {
		payload.Confidence = 0
	}
	if payload.Confidence > 1 {
		payload.Confidence = 1
	}

	return &payload, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

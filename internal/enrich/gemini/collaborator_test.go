package gemini

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestCollaboratorEnrich(t *testing.T) {
	stub := &stubGenerator{response: `{
		"category": "finance",
		"knowledge_components": ["reconciliation", "month-end-close"],
		"contexts": ["regulated-finance"],
		"functions": ["risk-reduction"],
		"confidence": 0.85
	}`}
	collab := NewCollaborator(stub, zap.NewNop(), 0)

	payload, err := collab.Enrich(context.Background(), "Account reconciliation", "monthly close for a bank")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if payload.Category != "finance" {
		t.Fatalf("unexpected category: %s", payload.Category)
	}
	if payload.Confidence != 0.85 {
		t.Fatalf("unexpected confidence: %v", payload.Confidence)
	}
	if len(payload.KnowledgeComponents) != 2 {
		t.Fatalf("unexpected components: %v", payload.KnowledgeComponents)
	}

	if !strings.Contains(stub.lastPrompt, "Account reconciliation") {
		t.Fatalf("prompt must carry the skill name: %s", stub.lastPrompt)
	}
	if !strings.Contains(stub.lastPrompt, "monthly close for a bank") {
		t.Fatalf("prompt must carry the context text: %s", stub.lastPrompt)
	}
}

func TestCollaboratorHandlesCodeBlockAndStringNumbers(t *testing.T) {
	raw := "```json\n{\"category\": \"programming\", \"confidence\": \"0.7\", \"knowledge_components\": [\"go\"]}\n```"
	stub := &stubGenerator{response: raw}
	collab := NewCollaborator(stub, zap.NewNop(), 0)

	payload, err := collab.Enrich(context.Background(), "Go", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Confidence != 0.7 {
		t.Fatalf("expected string confidence to be coerced, got %v", payload.Confidence)
	}
	if payload.Category != "programming" {
		t.Fatalf("unexpected category: %s", payload.Category)
	}
}

func TestCollaboratorClampsConfidence(t *testing.T) {
	stub := &stubGenerator{response: `{"category": "general", "confidence": 3.5}`}
	collab := NewCollaborator(stub, zap.NewNop(), 0)

	payload, err := collab.Enrich(context.Background(), "whatever", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Confidence != 1 {
		t.Fatalf("expected clamped confidence, got %v", payload.Confidence)
	}
}

func TestCollaboratorRejectsGarbage(t *testing.T) {
	stub := &stubGenerator{response: "I cannot classify this skill."}
	collab := NewCollaborator(stub, zap.NewNop(), 0)

	if _, err := collab.Enrich(context.Background(), "python", ""); err == nil {
		t.Fatalf("expected parse error for non-JSON response")
	}
}

func TestCollaboratorRequiresName(t *testing.T) {
	collab := NewCollaborator(&stubGenerator{}, zap.NewNop(), 0)
	if _, err := collab.Enrich(context.Background(), "  ", ""); err == nil {
		t.Fatalf("expected error for empty skill name")
	}
}

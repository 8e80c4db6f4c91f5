package enrich

import (
	"testing"

	"github.com/okarpov/skillfit/internal/taxonomy"
)

func TestClassifyCategories(t *testing.T) {
	cases := []struct {
		name string
		want taxonomy.Category
	}{
		{"python programming", taxonomy.Programming},
		{"java", taxonomy.Programming},
		{"javascript", taxonomy.Programming},
		{"sql", taxonomy.DataEngineering},
		{"kubernetes", taxonomy.Infrastructure},
		{"sap fico", taxonomy.EnterpriseERP},
		{"payroll accounting", taxonomy.Finance},
		{"excel", taxonomy.OfficeAdmin},
		{"stakeholder management", taxonomy.Management},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify(tc.name)
			if got.category != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got.category)
			}
		})
	}
}

func TestClassifyTokenExactness(t *testing.T) {
	// "java" votes must come from the whole token only; "javascript" carries
	// its own keyword and must not inherit java's.
	java := classify("java")
	js := classify("javascript")

	if len(java.components) != 1 || java.components[0] != "java" {
		t.Fatalf("unexpected java components: %v", java.components)
	}
	if len(js.components) != 1 || js.components[0] != "javascript" {
		t.Fatalf("unexpected javascript components: %v", js.components)
	}
}

func TestClassifyConfidenceCapped(t *testing.T) {
	// Many keyword hits must never push confidence past the heuristic cap.
	got := classify("python java go ruby php rust software development")
	if got.confidence > HeuristicConfidenceCap {
		t.Fatalf("confidence %v exceeds cap %v", got.confidence, HeuristicConfidenceCap)
	}
}

func TestClassifyUnknownSkill(t *testing.T) {
	got := classify("underwater basket weaving")
	if got.category != taxonomy.General {
		t.Fatalf("expected general fallback, got %s", got.category)
	}
	if got.confidence != unknownConfidence {
		t.Fatalf("expected unknown confidence, got %v", got.confidence)
	}
}

func TestClassifyAmbiguousVotes(t *testing.T) {
	// One vote each for two unrelated categories: the top category is kept
	// but the ambiguity is surfaced as floored confidence.
	got := classify("excel kubernetes")
	if !got.ambiguous {
		t.Fatalf("expected ambiguous classification")
	}
	if got.confidence != ambiguousConfidence {
		t.Fatalf("expected floored confidence, got %v", got.confidence)
	}
}

func TestClassifyProfileAttributes(t *testing.T) {
	got := classify("payroll")
	if got.category != taxonomy.Finance {
		t.Fatalf("expected finance, got %s", got.category)
	}
	found := false
	for _, c := range got.contexts {
		if c == "regulated-finance" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected regulated-finance context, got %v", got.contexts)
	}
}

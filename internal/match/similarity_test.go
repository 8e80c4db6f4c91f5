package match

import (
	"testing"

	"github.com/okarpov/skillfit/internal/taxonomy"
)

func TestScoreMonotonicInAttributeOverlap(t *testing.T) {
	table := taxonomy.NewTable()
	engine := NewEngine(table)

	// Identical names pin the embedding score; only attribute overlap moves.
	req := def("alpha", taxonomy.Programming, 0.5, "a", "b", "c", "d")
	low := def("alpha", taxonomy.Programming, 0.5, "a")
	high := def("alpha", taxonomy.Programming, 0.5, "a", "b")

	sLow := engine.Score(req, low)
	sHigh := engine.Score(req, high)

	if sHigh.AttributeScore <= sLow.AttributeScore {
		t.Fatalf("test setup broken: %v vs %v", sHigh.AttributeScore, sLow.AttributeScore)
	}
	if sHigh.Similarity <= sLow.Similarity {
		t.Fatalf("similarity must grow with attribute overlap: %v vs %v", sHigh.Similarity, sLow.Similarity)
	}
}

func TestScoreEmbeddingClamped(t *testing.T) {
	table := taxonomy.NewTable()
	engine := NewEngine(table)

	ps := engine.Score(
		def("python", taxonomy.Programming, 0.5, "python"),
		def("bookkeeping", taxonomy.Finance, 0.5, "bookkeeping"),
	)
	if ps.EmbeddingScore < 0 || ps.EmbeddingScore > 1 {
		t.Fatalf("embedding score must be clamped to [0,1], got %v", ps.EmbeddingScore)
	}
}

func TestDomainSafetyInvariant(t *testing.T) {
	table := taxonomy.NewTable()
	engine := NewEngine(table)

	req := def("sap fico", taxonomy.EnterpriseERP, 0.5, "sap-fico")
	cand := def("java", taxonomy.Programming, 0.5, "java")

	ps := engine.Score(req, cand)
	if ps.DomainCompatible {
		t.Fatalf("erp and programming must not be domain-compatible")
	}
	if ps.Similarity < CrossDomainThreshold && Eligible(ps) {
		t.Fatalf("incompatible pair below the strict threshold must never be eligible")
	}
}

func TestCrossDomainOverride(t *testing.T) {
	ps := PairScore{Similarity: CrossDomainThreshold + 0.01, DomainCompatible: false}
	if !Eligible(ps) {
		t.Fatalf("strict override must make an incompatible pair eligible")
	}

	ps = PairScore{Similarity: InDomainThreshold + 0.01, DomainCompatible: true}
	if !Eligible(ps) {
		t.Fatalf("compatible pair above the in-domain threshold must be eligible")
	}

	ps = PairScore{Similarity: InDomainThreshold - 0.01, DomainCompatible: true}
	if Eligible(ps) {
		t.Fatalf("compatible pair below the in-domain threshold must not be eligible")
	}
}

func TestAmbiguousSkillNeverDomainCompatible(t *testing.T) {
	table := taxonomy.NewTable()
	engine := NewEngine(table)

	req := def("excel kubernetes", taxonomy.OfficeAdmin, 0.3)
	req.Ambiguous = true
	cand := def("excel", taxonomy.OfficeAdmin, 0.5, "excel")

	if engine.Compatible(req, cand) {
		t.Fatalf("an ambiguous skill must only match through the strict override")
	}
}

func TestAttributeWeightDominates(t *testing.T) {
	if AttributeWeight < EmbeddingWeight {
		t.Fatalf("attribute overlap must weigh at least as much as embedding similarity")
	}
}

package skill

import (
	"errors"
	"testing"
	"time"
)

func TestKeyIsPureFunctionOfName(t *testing.T) {
	k1, err := Key("  Python   Programming ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	k2, err := Key("python programming")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if k1 != k2 {
		t.Fatalf("expected case folding and whitespace collapsing to agree: %q vs %q", k1, k2)
	}

	k3, _ := Key("python programmer")
	if k1 == k3 {
		t.Fatalf("different names must not collide on %q", k1)
	}
}

func TestKeyEmptyName(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t\n"} {
		if _, err := Key(raw); !errors.Is(err, ErrEmptyName) {
			t.Fatalf("expected ErrEmptyName for %q, got %v", raw, err)
		}
	}
}

func TestNormalizeSet(t *testing.T) {
	got := NormalizeSet([]string{" SQL ", "sql", "", "ETL", "analytics"})
	want := []string{"analytics", "etl", "sql"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestJaccard(t *testing.T) {
	cases := []struct {
		name string
		a, b []string
		want float64
	}{
		{"both empty", nil, nil, 1},
		{"one empty", []string{"a"}, nil, 0},
		{"disjoint", []string{"a"}, []string{"b"}, 0},
		{"identical", []string{"a", "b"}, []string{"a", "b"}, 1},
		{"partial", []string{"a", "b", "c"}, []string{"b", "c", "d"}, 0.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Jaccard(tc.a, tc.b); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestEqualIgnoresTimestampAndSource(t *testing.T) {
	a := &Definition{
		Name:                "SQL",
		NormalizedKey:       "abc",
		KnowledgeComponents: []string{"sql"},
		Confidence:          0.5,
		Source:              SourceHeuristic,
		EnrichedAt:          time.Now(),
	}
	b := *a
	b.Source = SourceCache
	b.EnrichedAt = a.EnrichedAt.Add(time.Hour)

	if !Equal(a, &b) {
		t.Fatalf("expected definitions to be equal ignoring timestamp and source")
	}

	b.Confidence = 0.6
	if Equal(a, &b) {
		t.Fatalf("expected confidence change to break equality")
	}
}

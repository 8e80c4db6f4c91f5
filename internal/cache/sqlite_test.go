package cache

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/okarpov/skillfit/internal/skill"
)

func testDefinition(name string) *skill.Definition {
	key, _ := skill.Key(name)
	return &skill.Definition{
		Name:                name,
		NormalizedKey:       key,
		Category:            "programming",
		KnowledgeComponents: []string{"python"},
		Confidence:          0.5,
		Source:              skill.SourceHeuristic,
		EnrichedAt:          time.Now().UTC(),
	}
}

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("opening cache: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteRoundTrip(t *testing.T) {
	store := openTestStore(t)
	def := testDefinition("Python")

	if err := store.Put(def.NormalizedKey, "v1", def); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Get(def.NormalizedKey, "v1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !skill.Equal(def, got) {
		t.Fatalf("cached definition differs from stored one")
	}
}

func TestSQLiteMissOnUnknownKeyAndVersion(t *testing.T) {
	store := openTestStore(t)
	def := testDefinition("Python")

	if _, err := store.Get(def.NormalizedKey, "v1"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss, got %v", err)
	}

	if err := store.Put(def.NormalizedKey, "v1", def); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Entries written under another taxonomy version are never served.
	if _, err := store.Get(def.NormalizedKey, "v2"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected version mismatch to miss, got %v", err)
	}
}

func TestSQLiteWriteIfAbsent(t *testing.T) {
	store := openTestStore(t)
	def := testDefinition("Python")

	if err := store.Put(def.NormalizedKey, "v1", def); err != nil {
		t.Fatalf("put: %v", err)
	}
	// An idempotent re-put of an equal value must not fail.
	if err := store.Put(def.NormalizedKey, "v1", def); err != nil {
		t.Fatalf("idempotent put: %v", err)
	}

	// A conflicting value for the same key is replaced, not an error.
	changed := *def
	changed.Confidence = 0.7
	if err := store.Put(def.NormalizedKey, "v1", &changed); err != nil {
		t.Fatalf("conflicting put: %v", err)
	}
	got, err := store.Get(def.NormalizedKey, "v1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Confidence != 0.7 {
		t.Fatalf("expected replacement to win, got confidence %v", got.Confidence)
	}
}

func TestSQLiteCorruptEntryEvictedAsMiss(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.db.Exec(
		"INSERT INTO enrichments (key, taxonomy_version, payload, created_at) VALUES (?, ?, ?, ?)",
		"badkey", "v1", "{not json", time.Now().UTC(),
	); err != nil {
		t.Fatalf("seeding corrupt row: %v", err)
	}

	if _, err := store.Get("badkey", "v1"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected corrupt entry to miss, got %v", err)
	}

	var count int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM enrichments WHERE key = ?", "badkey").Scan(&count); err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected corrupt entry to be evicted, %d rows left", count)
	}

	if store.Stats().Evictions != 1 {
		t.Fatalf("expected one eviction, got %+v", store.Stats())
	}
}

func TestSQLitePurgeStale(t *testing.T) {
	store := openTestStore(t)
	def := testDefinition("Python")

	if err := store.Put(def.NormalizedKey, "v1", def); err != nil {
		t.Fatalf("put v1: %v", err)
	}
	if err := store.Put(def.NormalizedKey, "v2", def); err != nil {
		t.Fatalf("put v2: %v", err)
	}

	purged, err := store.PurgeStale("v2")
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged row, got %d", purged)
	}

	if _, err := store.Get(def.NormalizedKey, "v2"); err != nil {
		t.Fatalf("current version entry must survive: %v", err)
	}
}

func TestSQLiteStats(t *testing.T) {
	store := openTestStore(t)
	def := testDefinition("Python")

	store.Get(def.NormalizedKey, "v1")
	store.Put(def.NormalizedKey, "v1", def)
	store.Get(def.NormalizedKey, "v1")

	stats := store.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.HitRate() != 0.5 {
		t.Fatalf("expected hit rate 0.5, got %v", stats.HitRate())
	}
}

func TestMemoryCache(t *testing.T) {
	store := NewMemory()
	def := testDefinition("SQL")

	if _, err := store.Get(def.NormalizedKey, "v1"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
	if err := store.Put(def.NormalizedKey, "v1", def); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.Get(def.NormalizedKey, "v1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !skill.Equal(def, got) {
		t.Fatalf("cached definition differs from stored one")
	}

	// The cache hands out copies; mutating them must not poison the store.
	got.Confidence = 0.99
	again, _ := store.Get(def.NormalizedKey, "v1")
	if again.Confidence != def.Confidence {
		t.Fatalf("cache returned a shared mutable value")
	}
}

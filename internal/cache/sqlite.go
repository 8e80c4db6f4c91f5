package cache

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/okarpov/skillfit/internal/skill"
)

//go:embed schema.sql
var schema string

// SQLite is a durable Cache backed by a local sqlite database.
type SQLite struct {
	db *sql.DB

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// OpenSQLite opens (creating if needed) the cache database at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database.
func (c *SQLite) Close() error {
	return c.db.Close()
}

// Get implements Cache. A row whose payload fails to deserialize is evicted
// and reported as a miss.
func (c *SQLite) Get(key, version string) (*skill.Definition, error) {
	def, err := c.read(key, version)
	if err != nil {
		if err == ErrMiss {
			c.misses.Add(1)
		}
		return nil, err
	}
	c.hits.Add(1)
	return def, nil
}

func (c *SQLite) read(key, version string) (*skill.Definition, error) {
	var payload string
	err := c.db.QueryRow(
		"SELECT payload FROM enrichments WHERE key = ? AND taxonomy_version = ?",
		key, version,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("read cache entry: %w", err)
	}

	var def skill.Definition
	if err := json.Unmarshal([]byte(payload), &def); err != nil {
		c.evict(key, version)
		return nil, ErrMiss
	}
	return &def, nil
}

// Put implements Cache with a write-if-absent, else verify discipline.
func (c *SQLite) Put(key, version string, def *skill.Definition) error {
	payload, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	res, err := c.db.Exec(
		"INSERT OR IGNORE INTO enrichments (key, taxonomy_version, payload, created_at) VALUES (?, ?, ?, ?)",
		key, version, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert cache entry: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert cache entry: %w", err)
	}
	if inserted > 0 {
		return nil
	}

	existing, err := c.read(key, version)
	if err == nil && skill.Equal(existing, def) {
		return nil
	}

	// The existing row conflicts with an idempotent recomputation; replace it.
	_, err = c.db.Exec(
		"INSERT OR REPLACE INTO enrichments (key, taxonomy_version, payload, created_at) VALUES (?, ?, ?, ?)",
		key, version, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("replace cache entry: %w", err)
	}
	return nil
}

// PurgeStale removes entries written under any taxonomy version other than
// current. Safe to skip: stale entries are never served, they only take space.
func (c *SQLite) PurgeStale(current string) (int64, error) {
	res, err := c.db.Exec("DELETE FROM enrichments WHERE taxonomy_version != ?", current)
	if err != nil {
		return 0, fmt.Errorf("purge stale cache entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge stale cache entries: %w", err)
	}
	c.evictions.Add(uint64(n))
	return n, nil
}

// Stats implements Cache.
func (c *SQLite) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

func (c *SQLite) evict(key, version string) {
	if _, err := c.db.Exec(
		"DELETE FROM enrichments WHERE key = ? AND taxonomy_version = ?",
		key, version,
	); err == nil {
		c.evictions.Add(1)
	}
}

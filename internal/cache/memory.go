package cache

import (
	"sync"
	"sync/atomic"

	"github.com/okarpov/skillfit/internal/skill"
)

// Memory is an in-process Cache used when no durable path is configured and
// in tests. Safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*skill.Definition

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*skill.Definition)}
}

// Get implements Cache.
func (c *Memory) Get(key, version string) (*skill.Definition, error) {
	c.mu.RLock()
	def, ok := c.entries[key+"\x00"+version]
	c.mu.RUnlock()
	if !ok {
		c.misses.Add(1)
		return nil, ErrMiss
	}
	c.hits.Add(1)
	copied := *def
	return &copied, nil
}

// Put implements Cache. An existing equal entry is left untouched.
func (c *Memory) Put(key, version string, def *skill.Definition) error {
	copied := *def
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[key+"\x00"+version]; ok && skill.Equal(existing, def) {
		return nil
	}
	c.entries[key+"\x00"+version] = &copied
	return nil
}

// Stats implements Cache.
func (c *Memory) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// Close implements Cache.
func (c *Memory) Close() error { return nil }

// Package taxonomy defines the closed set of skill domains and the static
// adjacency relation between them. The relation is configuration, not data
// derived from any single skill pair: two domains are adjacent for every
// skill or for none.
package taxonomy

import "strings"

// Category is a primary domain tag from the closed taxonomy.
type Category string

const (
	Programming     Category = "programming"
	DataEngineering Category = "data-engineering"
	Infrastructure  Category = "infrastructure"
	EnterpriseERP   Category = "enterprise-erp"
	Finance         Category = "finance"
	OfficeAdmin     Category = "office-admin"
	Communication   Category = "communication"
	Management      Category = "management"
	DesignMedia     Category = "design-media"
	General         Category = "general"
)

// Version identifies the taxonomy revision. Bumping it is the sole cache
// invalidation mechanism: entries written under an older version are treated
// as misses and recomputed.
const Version = "2024.2"

var categories = map[Category]struct{}{
	Programming:     {},
	DataEngineering: {},
	Infrastructure:  {},
	EnterpriseERP:   {},
	Finance:         {},
	OfficeAdmin:     {},
	Communication:   {},
	Management:      {},
	DesignMedia:     {},
	General:         {},
}

// defaultAdjacency lists related domain pairs once; the table is mirrored at
// build time so lookups never depend on declaration order.
var defaultAdjacency = [][2]Category{
	{Programming, DataEngineering},
	{Programming, Infrastructure},
	{DataEngineering, Infrastructure},
	{EnterpriseERP, Finance},
	{Finance, OfficeAdmin},
	{OfficeAdmin, Communication},
	{Communication, Management},
}

// Table holds the adjacency relation between categories.
type Table struct {
	adjacent map[Category]map[Category]struct{}
}

// NewTable builds the default adjacency table, optionally extended with extra
// pairs from configuration. Unknown categories in extra pairs are ignored.
func NewTable(extra ...[2]Category) *Table {
	t := &Table{adjacent: make(map[Category]map[Category]struct{})}
	for _, pair := range defaultAdjacency {
		t.link(pair[0], pair[1])
	}
	for _, pair := range extra {
		if !Valid(pair[0]) || !Valid(pair[1]) {
			continue
		}
		t.link(pair[0], pair[1])
	}
	return t
}

func (t *Table) link(a, b Category) {
	if a == b {
		return
	}
	if t.adjacent[a] == nil {
		t.adjacent[a] = make(map[Category]struct{})
	}
	if t.adjacent[b] == nil {
		t.adjacent[b] = make(map[Category]struct{})
	}
	t.adjacent[a][b] = struct{}{}
	t.adjacent[b][a] = struct{}{}
}

// Adjacent reports whether two distinct categories are declared related.
func (t *Table) Adjacent(a, b Category) bool {
	_, ok := t.adjacent[a][b]
	return ok
}

// Neighbors returns the categories adjacent to c. The slice order is not
// specified; callers that need determinism must sort.
func (t *Table) Neighbors(c Category) []Category {
	out := make([]Category, 0, len(t.adjacent[c]))
	for n := range t.adjacent[c] {
		out = append(out, n)
	}
	return out
}

// Compatible reports whether a and b share a domain: same category or
// declared adjacency.
func (t *Table) Compatible(a, b Category) bool {
	return a == b || t.Adjacent(a, b)
}

// Valid reports whether c belongs to the closed taxonomy.
func Valid(c Category) bool {
	_, ok := categories[c]
	return ok
}

// Parse maps a free-form category string onto the closed taxonomy, returning
// General when the value is unknown.
func Parse(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if Valid(c) {
		return c
	}
	return General
}

// All returns every category in the taxonomy in a fixed order.
func All() []Category {
	return []Category{
		Programming, DataEngineering, Infrastructure, EnterpriseERP,
		Finance, OfficeAdmin, Communication, Management, DesignMedia, General,
	}
}

// Package catalog - Item catalog and resolver
// Maps free-form item identifiers to volume and handling metadata.
// The catalog and its indexes are immutable once built.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"move-quote/core/types"
)

// DefaultSimilarityThreshold is the minimum fuzzy score a match must reach
const DefaultSimilarityThreshold = 0.5

// ErrNotFound is returned when no catalog item matches an identifier
var ErrNotFound = errors.New("catalog item not found")

// Item is a catalog entry
type Item struct {
	ID                  string
	CanonicalName       string
	VolumeFactor        decimal.Decimal
	RequiresTwoPerson   bool
	IsFragile           bool
	RequiresDisassembly bool
	BasePriceHint       decimal.Decimal
	Synonyms            []string
}

// Match is a successful resolution
type Match struct {
	Item  Item
	Kind  types.MatchKind
	Score float64 // 1 for every non-fuzzy match
}

// Catalog is the read-only item catalog with its lookup indexes
type Catalog struct {
	items     []Item
	byID      map[string]int
	byName    map[string]int
	phrases   map[string]int   // normalized synonym/name phrase -> item
	tokens    map[string][]int // token -> items, declaration order
	names     [][]tokenSet     // per item: canonical name + synonyms
	threshold float64
}

// Option configures a catalog
type Option func(*Catalog)

// WithSimilarityThreshold overrides DefaultSimilarityThreshold
func WithSimilarityThreshold(threshold float64) Option {
	return func(c *Catalog) {
		c.threshold = threshold
	}
}

// New validates items and builds the lookup indexes. Declaration order is
// significant: it breaks every tie.
func New(items []Item, opts ...Option) (*Catalog, error) {
	c := &Catalog{
		items:     make([]Item, len(items)),
		byID:      make(map[string]int, len(items)),
		byName:    make(map[string]int, len(items)),
		phrases:   make(map[string]int),
		tokens:    make(map[string][]int),
		names:     make([][]tokenSet, len(items)),
		threshold: DefaultSimilarityThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.threshold <= 0 || c.threshold > 1 {
		return nil, fmt.Errorf("similarity threshold must be in (0, 1], got %v", c.threshold)
	}

	if errs := Validate(items, DefaultValidationRules()); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	for i, item := range items {
		item.Synonyms = append([]string(nil), item.Synonyms...)
		c.items[i] = item

		if _, dup := c.byID[item.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog id %q", item.ID)
		}
		c.byID[item.ID] = i

		name := normalizeName(item.CanonicalName)
		if _, taken := c.byName[name]; !taken {
			c.byName[name] = i
		}

		for _, label := range append([]string{item.CanonicalName}, item.Synonyms...) {
			set := tokenize(label)
			if len(set) == 0 {
				continue
			}
			c.names[i] = append(c.names[i], set)

			if _, taken := c.phrases[set.phrase()]; !taken {
				c.phrases[set.phrase()] = i
			}
			for _, tok := range set {
				ids := c.tokens[tok]
				if len(ids) == 0 || ids[len(ids)-1] != i {
					c.tokens[tok] = append(ids, i)
				}
			}
		}
	}
	return c, nil
}

// Resolve maps an identifier to a catalog item. Lookups run in order:
// exact id, canonical name, synonym phrase, then fuzzy token overlap.
func (c *Catalog) Resolve(identifier string) (Match, error) {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return Match{}, ErrNotFound
	}

	if i, ok := c.byID[trimmed]; ok {
		return c.match(i, types.MatchExactID, 1), nil
	}
	if i, ok := c.byName[normalizeName(trimmed)]; ok {
		return c.match(i, types.MatchCanonicalName, 1), nil
	}

	query := tokenize(trimmed)
	if len(query) == 0 {
		return Match{}, ErrNotFound
	}
	if i, ok := c.phrases[query.phrase()]; ok {
		return c.match(i, types.MatchSynonym, 1), nil
	}

	best, bestScore := -1, 0.0
	for _, i := range c.candidates(query) {
		for _, name := range c.names[i] {
			// strict > keeps the earliest declared item on ties
			if s := similarity(query, name); s > bestScore {
				best, bestScore = i, s
			}
		}
	}
	if best < 0 || bestScore < c.threshold {
		return Match{}, ErrNotFound
	}
	return c.match(best, types.MatchFuzzy, bestScore), nil
}

// Get returns an item by exact id
func (c *Catalog) Get(id string) (Item, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Item{}, false
	}
	return c.copyItem(i), true
}

// Items returns every item in declaration order
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	for i := range c.items {
		out[i] = c.copyItem(i)
	}
	return out
}

// Len returns the number of items
func (c *Catalog) Len() int {
	return len(c.items)
}

// Threshold returns the fuzzy similarity threshold in force
func (c *Catalog) Threshold() float64 {
	return c.threshold
}

func (c *Catalog) match(i int, kind types.MatchKind, score float64) Match {
	return Match{Item: c.copyItem(i), Kind: kind, Score: score}
}

func (c *Catalog) copyItem(i int) Item {
	item := c.items[i]
	item.Synonyms = append([]string(nil), item.Synonyms...)
	return item
}

// candidates returns every item sharing at least one token with query,
// ascending by declaration order
func (c *Catalog) candidates(query tokenSet) []int {
	seen := make(map[int]bool)
	var out []int
	for _, tok := range query {
		for _, i := range c.tokens[tok] {
			if !seen[i] {
				seen[i] = true
				out = append(out, i)
			}
		}
	}
	sort.Ints(out)
	return out
}

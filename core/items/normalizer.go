// Package items - Item normalization
// Turns free-form item lines into catalog-backed normalized items.
// Lines the catalog cannot resolve degrade to a generic fallback volume
// instead of failing the quote.
package items

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"move-quote/core/catalog"
	"move-quote/core/types"
	qerrors "move-quote/internal/errors"
)

// DefaultFallbackVolume is the volume factor given to unresolved items
var DefaultFallbackVolume = decimal.NewFromInt(1)

// Resolver maps an identifier to a catalog match
type Resolver interface {
	Resolve(identifier string) (catalog.Match, error)
}

// Result is the normalizer output
type Result struct {
	Items []types.NormalizedItem

	// Unresolved lists the raw identifiers that fell back, in input order
	Unresolved []string
}

// Normalizer resolves raw item lines against a catalog
type Normalizer struct {
	resolver       Resolver
	fallbackVolume decimal.Decimal
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithFallbackVolume overrides DefaultFallbackVolume
func WithFallbackVolume(v decimal.Decimal) Option {
	return func(n *Normalizer) {
		n.fallbackVolume = v
	}
}

// New creates a normalizer
func New(resolver Resolver, opts ...Option) (*Normalizer, error) {
	if resolver == nil {
		return nil, qerrors.New(qerrors.TypeCatalog, "normalizer requires a resolver")
	}
	n := &Normalizer{
		resolver:       resolver,
		fallbackVolume: DefaultFallbackVolume,
	}
	for _, opt := range opts {
		opt(n)
	}
	if !n.fallbackVolume.IsPositive() {
		return nil, qerrors.Newf(qerrors.TypeCatalog, "fallback volume must be > 0, got %s", n.fallbackVolume)
	}
	return n, nil
}

// FallbackVolume returns the volume factor used for unresolved items
func (n *Normalizer) FallbackVolume() decimal.Decimal {
	return n.fallbackVolume
}

// Normalize resolves every line. Quantities are carried per line, never
// expanded into repeated items. Only resolver failures other than
// catalog.ErrNotFound are returned as errors.
func (n *Normalizer) Normalize(raw []types.RawItemRequest) (Result, error) {
	result := Result{
		Items: make([]types.NormalizedItem, 0, len(raw)),
	}

	for _, line := range raw {
		identifier := strings.TrimSpace(line.Identifier)

		m, err := n.resolver.Resolve(identifier)
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			result.Items = append(result.Items, n.fallback(identifier, line.Quantity))
			result.Unresolved = append(result.Unresolved, identifier)
			continue
		case err != nil:
			return Result{}, qerrors.Wrapf(qerrors.TypeCatalog, err, "resolve %q", identifier)
		}

		result.Items = append(result.Items, types.NormalizedItem{
			CatalogRef:          m.Item.ID,
			CanonicalName:       m.Item.CanonicalName,
			Identifier:          identifier,
			Match:               m.Kind,
			MatchScore:          m.Score,
			Quantity:            line.Quantity,
			VolumeFactor:        m.Item.VolumeFactor,
			RequiresTwoPerson:   m.Item.RequiresTwoPerson,
			IsFragile:           m.Item.IsFragile,
			RequiresDisassembly: m.Item.RequiresDisassembly,
			BasePriceHint:       m.Item.BasePriceHint,
		})
	}
	return result, nil
}

func (n *Normalizer) fallback(identifier string, quantity int) types.NormalizedItem {
	return types.NormalizedItem{
		CanonicalName: identifier,
		Identifier:    identifier,
		Match:         types.MatchUnresolved,
		Quantity:      quantity,
		VolumeFactor:  n.fallbackVolume,
		BasePriceHint: decimal.Zero,
	}
}

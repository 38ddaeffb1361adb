// Package quote - Quote calculation
// Validates a request, normalizes its items, takes one settings snapshot
// and runs the pricing rules. Computation does no I/O and shares no
// mutable state, so a Calculator is safe for concurrent use.
package quote

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"move-quote/core/items"
	"move-quote/core/rules"
	"move-quote/core/settings"
	"move-quote/core/types"
	qerrors "move-quote/internal/errors"
	"move-quote/internal/logging"
)

// Normalizer turns raw item lines into normalized items
type Normalizer interface {
	Normalize(raw []types.RawItemRequest) (items.Result, error)
}

// SettingsSource hands out the settings snapshot in force
type SettingsSource interface {
	Current() *settings.Snapshot
}

// Calculator computes quotes
type Calculator struct {
	normalizer Normalizer
	settings   SettingsSource
	clock      func() time.Time
	logger     *zap.Logger
}

// Option configures a Calculator
type Option func(*Calculator)

// WithClock sets the clock used for promo validity when a request carries
// no quote date
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		c.clock = now
	}
}

// WithLogger sets the calculator logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Calculator) {
		c.logger = logging.OrNop(l)
	}
}

// NewCalculator creates a calculator
func NewCalculator(normalizer Normalizer, source SettingsSource, opts ...Option) (*Calculator, error) {
	if normalizer == nil {
		return nil, qerrors.New(qerrors.TypeInternal, "calculator requires an item normalizer")
	}
	if source == nil {
		return nil, qerrors.New(qerrors.TypeInternal, "calculator requires a settings source")
	}
	c := &Calculator{
		normalizer: normalizer,
		settings:   source,
		clock:      time.Now,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Compute prices in against the settings snapshot currently in force
func (c *Calculator) Compute(in types.PricingInputs) (*types.Breakdown, error) {
	snap := c.settings.Current()
	if snap == nil {
		return nil, qerrors.SettingsLoad("no usable settings snapshot", nil)
	}
	return c.ComputeWith(in, snap)
}

// ComputeWith prices in against an explicit snapshot. Given the same
// inputs, snapshot and catalog the result is always identical.
func (c *Calculator) ComputeWith(in types.PricingInputs, snap *settings.Snapshot) (*types.Breakdown, error) {
	if snap == nil {
		return nil, qerrors.SettingsLoad("no usable settings snapshot", nil)
	}
	if err := Validate(&in); err != nil {
		return nil, err
	}

	pricedOn := c.pricedOn(in.QuoteDate)

	normalized, err := c.normalizer.Normalize(in.Items)
	if err != nil {
		return nil, err
	}

	breakdown := rules.Evaluate(rules.Input{
		Request:  &in,
		Items:    normalized.Items,
		Settings: snap,
		PricedOn: pricedOn,
	})

	breakdown.SettingsVersion = snap.Version
	breakdown.SettingsRevision = snap.Revision
	breakdown.SettingsHash = snap.Hash.Hex()
	breakdown.PricedOn = pricedOn.Format(settings.DateLayout)
	breakdown.Unresolved = append([]string{}, normalized.Unresolved...)
	breakdown.Estimated = len(normalized.Unresolved) > 0
	breakdown.Warnings = append(itemWarnings(normalized, snap), breakdown.Warnings...)

	c.logger.Debug("quote computed",
		zap.Int64("settings_version", snap.Version),
		zap.String("total", breakdown.Total.StringFixed(2)),
		zap.Int("lines", len(breakdown.Lines)),
		zap.Int("unresolved", len(breakdown.Unresolved)))
	return &breakdown, nil
}

func (c *Calculator) pricedOn(quoteDate string) time.Time {
	if quoteDate != "" {
		// already validated
		if d, err := time.Parse(settings.DateLayout, quoteDate); err == nil {
			return d
		}
	}
	y, m, d := c.clock().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// itemWarnings annotates lines that did not resolve cleanly and quotes
// priced from the compiled-in settings
func itemWarnings(normalized items.Result, snap *settings.Snapshot) []types.Warning {
	warnings := []types.Warning{}
	if snap.IsDefault() {
		warnings = append(warnings, types.Warning{
			Code:    types.WarningDefaultSettings,
			Message: "priced with built-in default settings",
		})
	}
	for _, item := range normalized.Items {
		switch item.Match {
		case types.MatchUnresolved:
			warnings = append(warnings, types.Warning{
				Code:    types.WarningUnresolvedItem,
				Subject: item.Identifier,
				Message: fmt.Sprintf("%q is not in the catalog; priced at a standard volume", item.Identifier),
			})
		case types.MatchFuzzy:
			warnings = append(warnings, types.Warning{
				Code:    types.WarningFuzzyMatch,
				Subject: item.Identifier,
				Message: fmt.Sprintf("%q matched %s (%s)", item.Identifier, strings.ToLower(item.CanonicalName), scorePercent(item.MatchScore)),
			})
		}
	}
	return warnings
}

func scorePercent(score float64) string {
	return fmt.Sprintf("%.0f%% similar", score*100)
}

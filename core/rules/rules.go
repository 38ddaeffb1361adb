// Package rules - Ordered pricing rules
// Each rule reads the request, the normalized items and one settings
// snapshot and fills in its own breakdown fields. Rules run in a fixed
// order; later rules only read what earlier rules wrote.
package rules

import (
	"time"

	"github.com/shopspring/decimal"

	"move-quote/core/determinism"
	"move-quote/core/settings"
	"move-quote/core/types"
)

// Rule names, in evaluation order
const (
	RuleDistance    = "distance"
	RuleItems       = "items"
	RuleFloors      = "floors"
	RuleHelpers     = "helpers"
	RuleConditions  = "conditions"
	RuleExtras      = "extras"
	RuleMultipliers = "multipliers"
	RulePromo       = "promo"
	RuleVAT         = "vat"
)

// Input is everything one evaluation reads
type Input struct {
	Request  *types.PricingInputs
	Items    []types.NormalizedItem
	Settings *settings.Snapshot

	// PricedOn is the calendar day promo validity is checked against
	PricedOn time.Time
}

// Evaluation carries the breakdown through the pipeline
type Evaluation struct {
	Input
	Breakdown types.Breakdown

	postMultiplier decimal.Decimal
	postDiscount   decimal.Decimal
}

func (e *Evaluation) warn(code types.WarningCode, subject, message string) {
	e.Breakdown.Warnings = append(e.Breakdown.Warnings, types.Warning{
		Code:    code,
		Message: message,
		Subject: subject,
	})
}

// Rule is one named pricing stage
type Rule struct {
	Name  string
	Apply func(*Evaluation)
}

var pipeline = []Rule{
	{RuleDistance, applyDistance},
	{RuleItems, applyItems},
	{RuleFloors, applyFloors},
	{RuleHelpers, applyHelpers},
	{RuleConditions, applyConditions},
	{RuleExtras, applyExtras},
	{RuleMultipliers, applyMultipliers},
	{RulePromo, applyPromo},
	{RuleVAT, applyVAT},
}

// Pipeline returns the rules in evaluation order
func Pipeline() []Rule {
	return append([]Rule(nil), pipeline...)
}

// Names returns the rule names in evaluation order
func Names() []string {
	names := make([]string, len(pipeline))
	for i, r := range pipeline {
		names[i] = r.Name
	}
	return names
}

// Evaluate runs every rule in order and returns the finished breakdown.
// Input must already be validated.
func Evaluate(in Input) types.Breakdown {
	e := &Evaluation{
		Input: in,
		Breakdown: types.Breakdown{
			Currency: in.Settings.Currency,
			Lines:    make([]types.LineCost, 0, len(in.Items)),
			Warnings: []types.Warning{},
		},
	}
	for _, r := range pipeline {
		r.Apply(e)
	}
	return e.Breakdown
}

func money(d decimal.Decimal) decimal.Decimal {
	return determinism.RoundMoney(d)
}

func count(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

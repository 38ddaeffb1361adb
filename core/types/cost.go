// Package types - Quote breakdown types
package types

import "github.com/shopspring/decimal"

// WarningCode classifies a non-fatal condition attached to a quote
type WarningCode string

const (
	WarningUnresolvedItem      WarningCode = "UNRESOLVED_ITEM"
	WarningFuzzyMatch          WarningCode = "FUZZY_MATCH"
	WarningPromoInvalid        WarningCode = "PROMO_INVALID"
	WarningUnknownAvailability WarningCode = "UNKNOWN_AVAILABILITY"
	WarningTwoPersonItem       WarningCode = "TWO_PERSON_ITEM"
	WarningDefaultSettings     WarningCode = "DEFAULT_SETTINGS"
)

// Warning is a caller-visible annotation on a successful quote
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
	Subject string      `json:"subject,omitempty"`
}

// LineCost is the priced form of one normalized item line
type LineCost struct {
	CatalogRef    string          `json:"catalogRef"`
	CanonicalName string          `json:"canonicalName"`
	Identifier    string          `json:"identifier"`
	Match         MatchKind       `json:"match"`
	Quantity      int             `json:"quantity"`
	Volume        decimal.Decimal `json:"volume"`
	VolumeCost    decimal.Decimal `json:"volumeCost"`
	HandlingCost  decimal.Decimal `json:"handlingCost"`
}

// Breakdown is the complete, ordered result of one quote computation.
// Total is always Subtotal + CrewAdjustment + AvailabilityAdjustment
// - PromoDiscount + VAT; it is never computed independently.
type Breakdown struct {
	Currency string `json:"currency"`

	DistanceBase      decimal.Decimal `json:"distanceBase"`
	TotalVolumeFactor decimal.Decimal `json:"totalVolumeFactor"`
	ItemsSurcharge    decimal.Decimal `json:"itemsSurchargeGBP"`
	FloorsCost        decimal.Decimal `json:"floorsCost"`
	HelpersCost       decimal.Decimal `json:"helpersCost"`
	AccessSurcharge   decimal.Decimal `json:"accessSurchargeGBP"`
	WeatherSurcharge  decimal.Decimal `json:"weatherSurchargeGBP"`
	ExtrasCost        decimal.Decimal `json:"extrasCost"`
	Subtotal          decimal.Decimal `json:"subtotal"`

	CrewMultiplierPercent         decimal.Decimal `json:"crewMultiplierPercent"`
	CrewAdjustment                decimal.Decimal `json:"crewAdjustment"`
	AvailabilityMultiplierPercent decimal.Decimal `json:"availabilityMultiplierPercent"`
	AvailabilityAdjustment        decimal.Decimal `json:"availabilityAdjustment"`

	PromoCode     string          `json:"promoCode,omitempty"`
	PromoDiscount decimal.Decimal `json:"promoDiscount"`
	VAT           decimal.Decimal `json:"vat"`
	Total         decimal.Decimal `json:"total"`

	Lines []LineCost `json:"lines"`

	// Audit annotations
	SettingsVersion  int64     `json:"settingsVersion"`
	SettingsRevision int64     `json:"settingsRevision"`
	SettingsHash     string    `json:"settingsHash"`
	PricedOn         string    `json:"pricedOn"`
	Unresolved       []string  `json:"unresolved"`
	Warnings         []Warning `json:"warnings"`
	Estimated        bool      `json:"estimated"`
}

// PostMultiplier is the subtotal after both multipliers
func (b *Breakdown) PostMultiplier() decimal.Decimal {
	return b.Subtotal.Add(b.CrewAdjustment).Add(b.AvailabilityAdjustment)
}

// ComponentSum re-adds every component; it must equal Total
func (b *Breakdown) ComponentSum() decimal.Decimal {
	return b.PostMultiplier().Sub(b.PromoDiscount).Add(b.VAT)
}

// AdditiveSum re-adds the additive stages; it must equal Subtotal
func (b *Breakdown) AdditiveSum() decimal.Decimal {
	return b.DistanceBase.
		Add(b.ItemsSurcharge).
		Add(b.FloorsCost).
		Add(b.HelpersCost).
		Add(b.AccessSurcharge).
		Add(b.WeatherSurcharge).
		Add(b.ExtrasCost)
}

// HasWarning reports whether a warning with code was recorded
func (b *Breakdown) HasWarning(code WarningCode) bool {
	for _, w := range b.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// Package types defines the quote data model shared across all layers.
// This package contains NO business logic - only type definitions.
package types

import "github.com/shopspring/decimal"

// DefaultAvailability is the availability slot used when a request names none
const DefaultAvailability = "standard"

// RawItemRequest is one free-form item line as the customer described it
type RawItemRequest struct {
	Identifier string `json:"identifier"`
	Quantity   int    `json:"quantity"`
}

// Extras are the optional add-ons a customer can select
type Extras struct {
	// ULEZ adds the ultra-low-emission-zone / congestion charge
	ULEZ bool `json:"ulez"`

	// VAT requests a VAT-inclusive quote
	VAT bool `json:"vat"`
}

// PricingInputs is a complete quote request
type PricingInputs struct {
	DistanceMiles decimal.Decimal  `json:"distanceMiles"`
	Items         []RawItemRequest `json:"items"`

	PickupFloors   int  `json:"pickupFloors"`
	PickupHasLift  bool `json:"pickupHasLift"`
	DropoffFloors  int  `json:"dropoffFloors"`
	DropoffHasLift bool `json:"dropoffHasLift"`

	HelpersCount int    `json:"helpersCount"`
	Extras       Extras `json:"extras"`
	PromoCode    string `json:"promoCode,omitempty"`

	// Condition flags for the flat surcharges
	AdverseWeather          bool `json:"adverseWeather,omitempty"`
	PickupRestrictedAccess  bool `json:"pickupRestrictedAccess,omitempty"`
	DropoffRestrictedAccess bool `json:"dropoffRestrictedAccess,omitempty"`

	// Availability selects the availability multiplier (empty = standard)
	Availability string `json:"availability,omitempty"`

	// QuoteDate (YYYY-MM-DD) fixes the date promo validity is checked against
	QuoteDate string `json:"quoteDate,omitempty"`
}

// AvailabilitySlot returns the availability key, defaulted
func (in *PricingInputs) AvailabilitySlot() string {
	if in.Availability == "" {
		return DefaultAvailability
	}
	return in.Availability
}

// MatchKind records how an item identifier was resolved
type MatchKind string

const (
	MatchExactID       MatchKind = "exact_id"
	MatchCanonicalName MatchKind = "canonical_name"
	MatchSynonym       MatchKind = "synonym"
	MatchFuzzy         MatchKind = "fuzzy"
	MatchUnresolved    MatchKind = "unresolved"
)

// NormalizedItem is a catalog-backed item line. It lives for one computation.
type NormalizedItem struct {
	// CatalogRef is the catalog item id, empty when unresolved
	CatalogRef    string    `json:"catalogRef"`
	CanonicalName string    `json:"canonicalName"`
	Identifier    string    `json:"identifier"`
	Match         MatchKind `json:"match"`
	MatchScore    float64   `json:"matchScore,omitempty"`

	Quantity            int             `json:"quantity"`
	VolumeFactor        decimal.Decimal `json:"volumeFactor"`
	RequiresTwoPerson   bool            `json:"requiresTwoPerson"`
	IsFragile           bool            `json:"isFragile"`
	RequiresDisassembly bool            `json:"requiresDisassembly"`
	BasePriceHint       decimal.Decimal `json:"basePriceHint"`
}

// TotalVolume is volume factor times quantity
func (n NormalizedItem) TotalVolume() decimal.Decimal {
	return n.VolumeFactor.Mul(decimal.NewFromInt(int64(n.Quantity)))
}

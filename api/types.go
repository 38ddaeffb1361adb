// Package api - API types for quote computation
// These types define the HTTP contract. Money amounts are decimal strings.
package api

import (
	"time"

	"move-quote/core/types"
	qerrors "move-quote/internal/errors"
)

// QuoteRequest is the input to POST /v1/quotes
type QuoteRequest = types.PricingInputs

// QuoteResponse is the output of POST /v1/quotes
type QuoteResponse struct {
	RequestID string `json:"requestId"`

	// InputHash is the SHA-256 of the canonical request JSON
	InputHash string `json:"inputHash"`

	// Status is "ok", or "estimated" when some items were not in the catalog
	Status string `json:"status"`

	Breakdown *types.Breakdown `json:"breakdown"`
}

// Quote statuses
const (
	StatusOK        = "ok"
	StatusEstimated = "estimated"
)

// ErrorResponse wraps every error reply
type ErrorResponse struct {
	RequestID string      `json:"requestId,omitempty"`
	Error     ErrorDetail `json:"error"`
}

// ErrorDetail describes a failure
type ErrorDetail struct {
	Code    string               `json:"code"`
	Message string               `json:"message"`
	Fields  []qerrors.FieldError `json:"fields,omitempty"`
}

// Error codes not covered by internal/errors types
const (
	CodeInvalidJSON = "INVALID_JSON"
	CodeMissingArg  = "MISSING_PARAMETER"
)

// SettingsResponse describes the settings snapshot in force
type SettingsResponse struct {
	Version  int64     `json:"version"`
	Revision int64     `json:"revision"`
	Source   string    `json:"source"`
	Hash     string    `json:"hash"`
	LoadedAt time.Time `json:"loadedAt"`
	Default  bool      `json:"default"`
	Currency string    `json:"currency"`

	Rates                   map[string]string `json:"rates"`
	CrewMultipliers         map[string]string `json:"crewMultipliers"`
	AvailabilityMultipliers map[string]string `json:"availabilityMultipliers"`
	Promos                  []PromoView       `json:"promos"`
}

// PromoView is a promo code as exposed over the API
type PromoView struct {
	Code        string `json:"code"`
	Kind        string `json:"kind"`
	Value       string `json:"value"`
	ValidFrom   string `json:"validFrom,omitempty"`
	ValidTo     string `json:"validTo,omitempty"`
	MaxDiscount string `json:"maxDiscount,omitempty"`
}

// ResolveResponse is the output of GET /v1/catalog/resolve
type ResolveResponse struct {
	Query string     `json:"query"`
	Found bool       `json:"found"`
	Match *MatchView `json:"match,omitempty"`
}

// MatchView is a resolved catalog item
type MatchView struct {
	ID                  string          `json:"id"`
	CanonicalName       string          `json:"canonicalName"`
	Kind                types.MatchKind `json:"kind"`
	Score               float64         `json:"score"`
	VolumeFactor        string          `json:"volumeFactor"`
	RequiresTwoPerson   bool            `json:"requiresTwoPerson"`
	IsFragile           bool            `json:"isFragile"`
	RequiresDisassembly bool            `json:"requiresDisassembly"`
}

// HealthResponse is the output of GET /health
type HealthResponse struct {
	Status          string `json:"status"`
	Version         string `json:"version"`
	SettingsVersion int64  `json:"settingsVersion"`
	SettingsLoaded  bool   `json:"settingsLoaded"`
	CatalogItems    int    `json:"catalogItems"`
	Time            string `json:"time"`
}

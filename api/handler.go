package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"move-quote/core/catalog"
	"move-quote/core/output"
	"move-quote/core/settings"
	"move-quote/core/types"
	qerrors "move-quote/internal/errors"
)

// MaxRequestBytes bounds a request body
const MaxRequestBytes = 1 << 20

// Quoter computes quotes
type Quoter interface {
	Compute(in types.PricingInputs) (*types.Breakdown, error)
}

// SettingsService exposes the live settings snapshot
type SettingsService interface {
	Current() *settings.Snapshot
	Reload(ctx context.Context) (*settings.Snapshot, error)
}

// Resolver looks up catalog items
type Resolver interface {
	Resolve(identifier string) (catalog.Match, error)
	Len() int
}

// Handler executes API requests. It never performs cost logic itself.
type Handler struct {
	quoter   Quoter
	settings SettingsService
	catalog  Resolver
	version  string
	logger   *zap.Logger
	now      func() time.Time
}

// handleQuote handles POST /v1/quotes
func (h *Handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	requestID := RequestIDFromContext(r.Context())

	var req QuoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, requestID, ErrorDetail{Code: CodeInvalidJSON, Message: err.Error()}, http.StatusBadRequest)
		return
	}

	b, err := h.quoter.Compute(req)
	if err != nil {
		h.writeDomainError(w, requestID, err)
		return
	}

	result, err := output.NewQuoteResult(requestID, &req, b)
	if err != nil {
		h.writeDomainError(w, requestID, qerrors.Internal("hash request", err))
		return
	}

	status := StatusOK
	if b.Estimated {
		status = StatusEstimated
	}
	h.logger.Info("quote computed",
		zap.String("request_id", requestID),
		zap.String("input_hash", result.InputHash),
		zap.String("total", b.Total.StringFixed(2)),
		zap.Int64("settings_version", b.SettingsVersion),
		zap.Int("warnings", len(b.Warnings)),
	)

	writeJSON(w, QuoteResponse{
		RequestID: requestID,
		InputHash: result.InputHash,
		Status:    status,
		Breakdown: b,
	}, http.StatusOK)
}

// handleSettings handles GET /v1/settings
func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, settingsView(h.settings.Current()), http.StatusOK)
}

// handleReload handles POST /v1/settings/reload
func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	requestID := RequestIDFromContext(r.Context())

	snap, err := h.settings.Reload(r.Context())
	if err != nil {
		h.writeDomainError(w, requestID, err)
		return
	}
	writeJSON(w, settingsView(snap), http.StatusOK)
}

// handleResolve handles GET /v1/catalog/resolve?q=
func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	requestID := RequestIDFromContext(r.Context())

	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		writeError(w, requestID, ErrorDetail{Code: CodeMissingArg, Message: "query parameter q is required"}, http.StatusBadRequest)
		return
	}

	m, err := h.catalog.Resolve(query)
	if errors.Is(err, catalog.ErrNotFound) {
		writeJSON(w, ResolveResponse{Query: query}, http.StatusNotFound)
		return
	}
	if err != nil {
		h.writeDomainError(w, requestID, err)
		return
	}

	writeJSON(w, ResolveResponse{
		Query: query,
		Found: true,
		Match: &MatchView{
			ID:                  m.Item.ID,
			CanonicalName:       m.Item.CanonicalName,
			Kind:                m.Kind,
			Score:               m.Score,
			VolumeFactor:        m.Item.VolumeFactor.String(),
			RequiresTwoPerson:   m.Item.RequiresTwoPerson,
			IsFragile:           m.Item.IsFragile,
			RequiresDisassembly: m.Item.RequiresDisassembly,
		},
	}, http.StatusOK)
}

// handleHealth handles GET /health
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := h.settings.Current()
	writeJSON(w, HealthResponse{
		Status:          "healthy",
		Version:         h.version,
		SettingsVersion: snap.Version,
		SettingsLoaded:  !snap.IsDefault(),
		CatalogItems:    h.catalog.Len(),
		Time:            h.now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// handleVersion handles GET /version
func (h *Handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"version":     h.version,
		"engine":      "move-quote",
		"api_version": "v1",
	}, http.StatusOK)
}

// writeDomainError maps an error type to a status code
func (h *Handler) writeDomainError(w http.ResponseWriter, requestID string, err error) {
	var verr *qerrors.ValidationError
	if errors.As(err, &verr) {
		writeError(w, requestID, ErrorDetail{
			Code:    string(qerrors.TypeValidation),
			Message: "request failed validation",
			Fields:  verr.Fields,
		}, http.StatusBadRequest)
		return
	}

	code, status := string(qerrors.TypeInternal), http.StatusInternalServerError
	var derr *qerrors.Error
	if errors.As(err, &derr) {
		code = string(derr.Type)
		switch derr.Type {
		case qerrors.TypeValidation:
			status = http.StatusBadRequest
		case qerrors.TypeNotFound:
			status = http.StatusNotFound
		case qerrors.TypeSettingsLoad, qerrors.TypeStorage:
			status = http.StatusBadGateway
		}
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("request_id", requestID),
			zap.String("code", code),
			zap.Error(err),
		)
	}
	writeError(w, requestID, ErrorDetail{Code: code, Message: err.Error()}, status)
}

// decodeJSON reads exactly one JSON object and rejects unknown fields
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return err
	}
	if dec.More() {
		return fmt.Errorf("request body must contain a single JSON object")
	}
	return nil
}

func settingsView(s *settings.Snapshot) SettingsResponse {
	view := SettingsResponse{
		Version:  s.Version,
		Revision: s.Revision,
		Source:   s.Source,
		Hash:     s.Hash.Hex(),
		LoadedAt: s.LoadedAt,
		Default:  s.IsDefault(),
		Currency: s.Currency,
		Rates: map[string]string{
			settings.KeyRatePerMile:                  s.RatePerMile.String(),
			settings.KeyRatePerVolumeUnit:            s.RatePerVolumeUnit.String(),
			settings.KeyFloorSurchargePerFloorNoLift: s.FloorSurchargePerFloorNoLift.String(),
			settings.KeyHelperRate:                   s.HelperRate.String(),
			settings.KeyULEZSurcharge:                s.ULEZSurcharge.String(),
			settings.KeyVATRate:                      s.VATRate.String(),
			settings.KeyWeatherSurchargeRate:         s.WeatherSurchargeRate.String(),
			settings.KeyAccessSurchargeRate:          s.AccessSurchargeRate.String(),
			settings.KeyFragileItemSurcharge:         s.FragileItemSurcharge.String(),
			settings.KeyDisassemblySurcharge:         s.DisassemblySurcharge.String(),
		},
		CrewMultipliers:         make(map[string]string),
		AvailabilityMultipliers: make(map[string]string),
		Promos:                  []PromoView{},
	}
	for helpers, pct := range s.CrewTable() {
		view.CrewMultipliers[strconv.Itoa(helpers)] = pct.String()
	}
	for slot, pct := range s.AvailabilityTable() {
		view.AvailabilityMultipliers[slot] = pct.String()
	}
	for _, p := range s.Promos() {
		pv := PromoView{Code: p.Code, Kind: string(p.Kind), Value: p.Value.String()}
		if !p.ValidFrom.IsZero() {
			pv.ValidFrom = p.ValidFrom.Format(settings.DateLayout)
		}
		if !p.ValidTo.IsZero() {
			pv.ValidTo = p.ValidTo.Format(settings.DateLayout)
		}
		if p.MaxDiscount.Valid {
			pv.MaxDiscount = p.MaxDiscount.Decimal.String()
		}
		view.Promos = append(view.Promos, pv)
	}
	return view
}

func writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, requestID string, detail ErrorDetail, status int) {
	writeJSON(w, ErrorResponse{RequestID: requestID, Error: detail}, status)
}

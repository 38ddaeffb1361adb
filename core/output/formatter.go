// Package output provides quote output formatting.
// This package produces human and machine-readable outputs.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"

	"move-quote/core/determinism"
	"move-quote/core/types"
	"move-quote/core/ui"
)

// Format represents output format type
type Format string

const (
	// FormatCLI is a human-readable CLI table
	FormatCLI Format = "cli"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"
)

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Render produces output for the given result
	Render(w io.Writer, result *QuoteResult) error
}

// QuoteResult is a computed quote with its request
type QuoteResult struct {
	// RequestID identifies the request in logs
	RequestID string `json:"requestId,omitempty"`

	// InputHash is the SHA-256 of the canonical request JSON
	InputHash string `json:"inputHash"`

	Request   *types.PricingInputs `json:"request,omitempty"`
	Breakdown *types.Breakdown     `json:"breakdown"`
}

// NewQuoteResult pairs a breakdown with its request and input hash
func NewQuoteResult(requestID string, req *types.PricingInputs, b *types.Breakdown) (*QuoteResult, error) {
	hash, err := determinism.HashJSON(req)
	if err != nil {
		return nil, fmt.Errorf("hash request: %w", err)
	}
	return &QuoteResult{
		RequestID: requestID,
		InputHash: hash.Hex(),
		Request:   req,
		Breakdown: b,
	}, nil
}

// Registry holds formatters by format
type Registry struct {
	mu         sync.RWMutex
	formatters map[Format]Formatter
}

// NewRegistry returns a registry with the CLI and JSON formatters
func NewRegistry(noColor bool) *Registry {
	r := &Registry{formatters: make(map[Format]Formatter)}
	_ = r.Register(&CLIFormatter{NoColor: noColor})
	_ = r.Register(&JSONFormatter{Indent: true})
	return r
}

// Register adds a formatter to the registry
func (r *Registry) Register(f Formatter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.formatters[f.Format()]; exists {
		return fmt.Errorf("formatter already registered: %s", f.Format())
	}
	r.formatters[f.Format()] = f
	return nil
}

// Get returns the formatter for a format
func (r *Registry) Get(format Format) (Formatter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.formatters[format]
	return f, ok
}

// Formats lists the registered formats
func (r *Registry) Formats() []Format {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Format, 0, len(r.formatters))
	for f := range r.formatters {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CLIFormatter renders tables for a terminal
type CLIFormatter struct {
	NoColor bool
}

// Format implements Formatter
func (f *CLIFormatter) Format() Format { return FormatCLI }

// Render implements Formatter
func (f *CLIFormatter) Render(w io.Writer, result *QuoteResult) error {
	if result == nil || result.Breakdown == nil {
		return fmt.Errorf("nothing to render")
	}
	ui.NewWriter(w, f.NoColor).NewQuoteView().Render(result.Breakdown)
	return nil
}

// JSONFormatter renders the result as JSON
type JSONFormatter struct {
	Indent bool
}

// Format implements Formatter
func (f *JSONFormatter) Format() Format { return FormatJSON }

// Render implements Formatter
func (f *JSONFormatter) Render(w io.Writer, result *QuoteResult) error {
	enc := json.NewEncoder(w)
	if f.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}

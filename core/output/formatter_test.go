package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"move-quote/core/types"
)

func sampleResult(t *testing.T) *QuoteResult {
	t.Helper()
	req := &types.PricingInputs{
		DistanceMiles: decimal.NewFromInt(15),
		Items:         []types.RawItemRequest{{Identifier: "small-box", Quantity: 2}},
	}
	b := &types.Breakdown{
		Currency:                      "GBP",
		DistanceBase:                  decimal.NewFromInt(30),
		ItemsSurcharge:                decimal.NewFromInt(12),
		Subtotal:                      decimal.NewFromInt(42),
		CrewMultiplierPercent:         decimal.NewFromInt(100),
		AvailabilityMultiplierPercent: decimal.NewFromInt(100),
		Total:                         decimal.NewFromInt(42),
		Lines: []types.LineCost{{
			CatalogRef: "small-box", CanonicalName: "Small box", Quantity: 2,
			Volume: decimal.RequireFromString("0.4"), VolumeCost: decimal.NewFromInt(12), Match: types.MatchExactID,
		}},
		Warnings: []types.Warning{{Code: types.WarningFuzzyMatch, Message: "check the sofa"}},
		PricedOn: "2026-04-15",
	}
	result, err := NewQuoteResult("req-1", req, b)
	if err != nil {
		t.Fatalf("NewQuoteResult: %v", err)
	}
	return result
}

func TestInputHashIsStable(t *testing.T) {
	a := sampleResult(t)
	b := sampleResult(t)
	if a.InputHash == "" || a.InputHash != b.InputHash {
		t.Errorf("expected equal non-empty hashes, got %q and %q", a.InputHash, b.InputHash)
	}
}

func TestCLIFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&CLIFormatter{NoColor: true}).Render(&buf, sampleResult(t)); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Removal Quote", "Small box", "GBP 30.00", "Total: GBP 42.00", "check the sofa", "priced on 2026-04-15"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("expected no color codes")
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONFormatter{}).Render(&buf, sampleResult(t)); err != nil {
		t.Fatalf("Render: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	breakdown := decoded["breakdown"].(map[string]interface{})
	if breakdown["total"] != "42" {
		t.Errorf("expected total \"42\", got %v", breakdown["total"])
	}
	if decoded["requestId"] != "req-1" {
		t.Errorf("expected request id, got %v", decoded["requestId"])
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(true)
	if _, ok := r.Get(FormatJSON); !ok {
		t.Error("expected json formatter")
	}
	if err := r.Register(&JSONFormatter{}); err == nil {
		t.Error("expected duplicate registration to fail")
	}
	if got := r.Formats(); len(got) != 2 || got[0] != FormatCLI {
		t.Errorf("unexpected formats: %v", got)
	}
}

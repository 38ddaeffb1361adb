package items

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"move-quote/core/catalog"
	"move-quote/core/types"
	qerrors "move-quote/internal/errors"
)

func newCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.Item{
		{ID: "small-box", CanonicalName: "Small box", VolumeFactor: decimal.RequireFromString("0.2")},
		{ID: "piano-upright", CanonicalName: "Upright piano", VolumeFactor: decimal.NewFromInt(4), RequiresTwoPerson: true, IsFragile: true, BasePriceHint: decimal.NewFromInt(120), Synonyms: []string{"piano"}},
	})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return c
}

func TestNormalizeResolvedAndUnresolved(t *testing.T) {
	n, err := New(newCatalog(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := n.Normalize([]types.RawItemRequest{
		{Identifier: "small-box", Quantity: 3},
		{Identifier: " Piano ", Quantity: 1},
		{Identifier: "hot tub", Quantity: 2},
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if len(result.Items) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(result.Items))
	}

	box := result.Items[0]
	if box.CatalogRef != "small-box" || box.Quantity != 3 || box.Match != types.MatchExactID {
		t.Errorf("unexpected box line: %+v", box)
	}
	if !box.TotalVolume().Equal(decimal.RequireFromString("0.6")) {
		t.Errorf("expected total volume 0.6, got %s", box.TotalVolume())
	}

	piano := result.Items[1]
	if piano.CatalogRef != "piano-upright" || piano.Match != types.MatchSynonym {
		t.Errorf("unexpected piano line: %+v", piano)
	}
	if piano.Identifier != "Piano" {
		t.Errorf("expected trimmed identifier, got %q", piano.Identifier)
	}
	if !piano.RequiresTwoPerson || !piano.IsFragile || !piano.BasePriceHint.Equal(decimal.NewFromInt(120)) {
		t.Errorf("piano attributes not carried: %+v", piano)
	}

	tub := result.Items[2]
	if tub.CatalogRef != "" || tub.Match != types.MatchUnresolved {
		t.Errorf("expected unresolved line, got %+v", tub)
	}
	if !tub.VolumeFactor.Equal(DefaultFallbackVolume) || tub.Quantity != 2 {
		t.Errorf("expected fallback volume and quantity preserved, got %+v", tub)
	}

	if len(result.Unresolved) != 1 || result.Unresolved[0] != "hot tub" {
		t.Errorf("expected unresolved [hot tub], got %v", result.Unresolved)
	}
}

func TestNormalizeFallbackVolumeOption(t *testing.T) {
	n, err := New(newCatalog(t), WithFallbackVolume(decimal.RequireFromString("2.5")))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := n.Normalize([]types.RawItemRequest{{Identifier: "mystery crate", Quantity: 1}})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !result.Items[0].VolumeFactor.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("expected fallback 2.5, got %s", result.Items[0].VolumeFactor)
	}

	if _, err := New(newCatalog(t), WithFallbackVolume(decimal.Zero)); err == nil {
		t.Error("expected error for zero fallback volume")
	}
}

func TestNormalizeEmpty(t *testing.T) {
	n, _ := New(newCatalog(t))
	result, err := n.Normalize(nil)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(result.Items) != 0 || len(result.Unresolved) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

type brokenResolver struct{}

func (brokenResolver) Resolve(string) (catalog.Match, error) {
	return catalog.Match{}, errors.New("index unavailable")
}

func TestNormalizePropagatesResolverFailure(t *testing.T) {
	n, _ := New(brokenResolver{})
	_, err := n.Normalize([]types.RawItemRequest{{Identifier: "sofa", Quantity: 1}})
	if err == nil {
		t.Fatal("expected error")
	}
	if !qerrors.IsType(err, qerrors.TypeCatalog) {
		t.Errorf("expected catalog error, got %v", err)
	}
}

func TestNewRequiresResolver(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("expected error for nil resolver")
	}
}

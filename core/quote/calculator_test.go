package quote

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"move-quote/core/catalog"
	"move-quote/core/items"
	"move-quote/core/settings"
	"move-quote/core/types"
	qerrors "move-quote/internal/errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var fixedClock = func() time.Time { return time.Date(2026, 4, 15, 9, 30, 0, 0, time.UTC) }

func newCalculator(t *testing.T) (*Calculator, *settings.Provider) {
	t.Helper()
	cat, err := catalog.New([]catalog.Item{
		{ID: "small-box", CanonicalName: "Small box", VolumeFactor: dec("0.2")},
		{ID: "medium-box", CanonicalName: "Medium box", VolumeFactor: dec("0.2"), Synonyms: []string{"box"}},
		{ID: "piano-upright", CanonicalName: "Upright piano", VolumeFactor: dec("4"), RequiresTwoPerson: true, IsFragile: true, BasePriceHint: dec("120"), Synonyms: []string{"piano"}},
	})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	normalizer, err := items.New(cat)
	if err != nil {
		t.Fatalf("items.New: %v", err)
	}

	doc := settings.DefaultDocument()
	doc.Revision = 1
	doc.Promos = []settings.PromoRecord{{Code: "SAVE10", Kind: "fixed", Value: "10"}}
	provider := settings.NewProvider(settings.StaticSource{Label: "test", Doc: doc})
	if _, err := provider.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	calc, err := NewCalculator(normalizer, provider, WithClock(fixedClock))
	if err != nil {
		t.Fatalf("NewCalculator: %v", err)
	}
	return calc, provider
}

func scenario() types.PricingInputs {
	return types.PricingInputs{
		DistanceMiles: dec("15"),
		Items: []types.RawItemRequest{
			{Identifier: "small-box", Quantity: 2},
			{Identifier: "medium-box", Quantity: 1},
		},
		PickupFloors:   2,
		PickupHasLift:  false,
		DropoffFloors:  1,
		DropoffHasLift: true,
		HelpersCount:   2,
		Extras:         types.Extras{ULEZ: true, VAT: true},
	}
}

func TestConcreteScenario(t *testing.T) {
	calc, _ := newCalculator(t)
	b, err := calc.Compute(scenario())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	want := map[string]struct{ got, want decimal.Decimal }{
		"distanceBase":      {b.DistanceBase, dec("30")},
		"totalVolumeFactor": {b.TotalVolumeFactor, dec("0.6")},
		"itemsSurcharge":    {b.ItemsSurcharge, dec("18")},
		"floorsCost":        {b.FloorsCost, dec("30")},
		"helpersCost":       {b.HelpersCost, dec("80")},
		"extrasCost":        {b.ExtrasCost, dec("12.5")},
		"subtotal":          {b.Subtotal, dec("170.5")},
		"crewPercent":       {b.CrewMultiplierPercent, dec("110")},
		"crewAdjustment":    {b.CrewAdjustment, dec("17.05")},
		"availability":      {b.AvailabilityAdjustment, dec("0")},
		"vat":               {b.VAT, dec("37.51")},
		"total":             {b.Total, dec("225.06")},
	}
	for name, c := range want {
		if !c.got.Equal(c.want) {
			t.Errorf("%s: expected %s, got %s", name, c.want, c.got)
		}
	}

	if !b.ComponentSum().Equal(b.Total) {
		t.Errorf("components %s do not sum to total %s", b.ComponentSum(), b.Total)
	}
	if b.SettingsVersion != 1 || b.SettingsHash == "" || b.PricedOn != "2026-04-15" {
		t.Errorf("missing audit annotations: v%d hash %q on %q", b.SettingsVersion, b.SettingsHash, b.PricedOn)
	}
	if len(b.Warnings) != 0 || b.Estimated {
		t.Errorf("expected a clean quote, got warnings %+v", b.Warnings)
	}
}

func TestComputeIsPure(t *testing.T) {
	calc, provider := newCalculator(t)
	in := scenario()
	in.Items = append(in.Items, types.RawItemRequest{Identifier: "garden gnome", Quantity: 4})

	first, err := calc.Compute(in)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	a, _ := json.Marshal(first)

	for i := 0; i < 5; i++ {
		again, err := calc.ComputeWith(in, provider.Current())
		if err != nil {
			t.Fatalf("ComputeWith: %v", err)
		}
		b, _ := json.Marshal(again)
		if string(a) != string(b) {
			t.Fatalf("output differs between runs:\n%s\n%s", a, b)
		}
	}
}

func TestMonotonicity(t *testing.T) {
	calc, _ := newCalculator(t)
	total := func(mutate func(*types.PricingInputs)) decimal.Decimal {
		in := scenario()
		mutate(&in)
		b, err := calc.Compute(in)
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		return b.Total
	}

	tests := []struct {
		name string
		step func(*types.PricingInputs, int)
	}{
		{"distance", func(in *types.PricingInputs, n int) { in.DistanceMiles = decimal.NewFromInt(int64(n * 7)) }},
		{"quantity", func(in *types.PricingInputs, n int) { in.Items[0].Quantity = n + 1 }},
		{"helpers", func(in *types.PricingInputs, n int) { in.HelpersCount = n }},
		{"floors without lift", func(in *types.PricingInputs, n int) { in.PickupFloors = n }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := decimal.Zero
			for n := 0; n < 8; n++ {
				got := total(func(in *types.PricingInputs) { tt.step(in, n) })
				if got.LessThan(prev) {
					t.Fatalf("step %d: total fell from %s to %s", n, prev, got)
				}
				prev = got
			}
		})
	}

	withLift := func(floors int) decimal.Decimal {
		return total(func(in *types.PricingInputs) {
			in.PickupHasLift = true
			in.PickupFloors = floors
		})
	}
	if !withLift(0).Equal(withLift(40)) {
		t.Error("floors should not matter when a lift is available")
	}
}

func TestUnresolvedItemsDegrade(t *testing.T) {
	calc, _ := newCalculator(t)
	in := scenario()
	in.Items = append(in.Items,
		types.RawItemRequest{Identifier: "garden gnome", Quantity: 2},
		types.RawItemRequest{Identifier: "upright pianos", Quantity: 1},
	)

	b, err := calc.Compute(in)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !b.Estimated || len(b.Unresolved) != 1 || b.Unresolved[0] != "garden gnome" {
		t.Errorf("expected garden gnome to be unresolved, got %v", b.Unresolved)
	}
	if !b.HasWarning(types.WarningUnresolvedItem) {
		t.Error("expected unresolved item warning")
	}

	gnome := b.Lines[2]
	if gnome.Match != types.MatchUnresolved || !gnome.Volume.Equal(dec("2")) {
		t.Errorf("expected fallback volume 2 for the gnome line, got %+v", gnome)
	}
	if b.Lines[3].CatalogRef != "piano-upright" {
		t.Errorf("expected plural name to resolve, got %+v", b.Lines[3])
	}
}

func TestPromoAndQuoteDate(t *testing.T) {
	calc, _ := newCalculator(t)
	in := scenario()
	in.PromoCode = "save10"
	in.QuoteDate = "2030-01-01"

	b, err := calc.Compute(in)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !b.PromoDiscount.Equal(dec("10")) || b.PricedOn != "2030-01-01" {
		t.Errorf("unexpected promo %s on %s", b.PromoDiscount, b.PricedOn)
	}
	// (187.55 - 10) x 1.2
	if !b.Total.Equal(dec("213.06")) {
		t.Errorf("expected 213.06, got %s", b.Total)
	}

	in.PromoCode = "BOGUS"
	b, err = calc.Compute(in)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !b.PromoDiscount.IsZero() || !b.HasWarning(types.WarningPromoInvalid) {
		t.Errorf("expected invalid promo warning, got %+v", b.Warnings)
	}
}

func TestDefaultSettingsWarning(t *testing.T) {
	cat, _ := catalog.Default()
	normalizer, _ := items.New(cat)
	calc, err := NewCalculator(normalizer, settings.NewProvider(nil), WithClock(fixedClock))
	if err != nil {
		t.Fatalf("NewCalculator: %v", err)
	}

	b, err := calc.Compute(scenario())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if b.SettingsVersion != 0 || !b.HasWarning(types.WarningDefaultSettings) {
		t.Errorf("expected default settings annotation, got v%d %+v", b.SettingsVersion, b.Warnings)
	}
}

func TestComputeRejectsInvalidInput(t *testing.T) {
	calc, _ := newCalculator(t)
	in := scenario()
	in.DistanceMiles = dec("-1")
	in.HelpersCount = 51
	in.Items[1].Quantity = 0
	in.Items = append(in.Items, types.RawItemRequest{Identifier: "  ", Quantity: 1})
	in.QuoteDate = "15/04/2026"

	_, err := calc.Compute(in)
	if !qerrors.IsType(err, qerrors.TypeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	v := err.(*qerrors.ValidationError)
	for _, field := range []string{"distanceMiles", "helpersCount", "items[1].quantity", "items[2].identifier", "quoteDate"} {
		if !v.HasField(field) {
			t.Errorf("expected %s to be flagged, got %+v", field, v.Fields)
		}
	}
}

func TestValidateBounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.PricingInputs)
		field  string
	}{
		{"distance too far", func(in *types.PricingInputs) { in.DistanceMiles = dec("2000.01") }, "distanceMiles"},
		{"negative floors", func(in *types.PricingInputs) { in.DropoffFloors = -1 }, "dropoffFloors"},
		{"too many floors", func(in *types.PricingInputs) { in.PickupFloors = 201 }, "pickupFloors"},
		{"huge quantity", func(in *types.PricingInputs) { in.Items[0].Quantity = 10001 }, "items[0].quantity"},
		{"long promo", func(in *types.PricingInputs) { in.PromoCode = string(make([]byte, 65)) }, "promoCode"},
		{"too many lines", func(in *types.PricingInputs) {
			in.Items = make([]types.RawItemRequest, MaxItems+1)
			for i := range in.Items {
				in.Items[i] = types.RawItemRequest{Identifier: "box", Quantity: 1}
			}
		}, "items"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := scenario()
			tt.mutate(&in)
			err := Validate(&in)
			v, ok := err.(*qerrors.ValidationError)
			if !ok || !v.HasField(tt.field) {
				t.Errorf("expected %s to be flagged, got %v", tt.field, err)
			}
		})
	}

	in := scenario()
	if err := Validate(&in); err != nil {
		t.Errorf("expected valid scenario, got %v", err)
	}
}

func TestConcurrentComputeDuringReload(t *testing.T) {
	calc, provider := newCalculator(t)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				b, err := calc.Compute(scenario())
				if err != nil {
					t.Errorf("Compute: %v", err)
					return
				}
				if !b.Total.Equal(dec("225.06")) {
					t.Errorf("expected 225.06, got %s", b.Total)
					return
				}
			}
		}()
	}
	for i := 0; i < 20; i++ {
		if _, err := provider.Reload(context.Background()); err != nil {
			t.Errorf("Reload: %v", err)
		}
	}
	wg.Wait()
}

func TestNewCalculatorRequiresDependencies(t *testing.T) {
	if _, err := NewCalculator(nil, settings.NewProvider(nil)); err == nil {
		t.Error("expected error without normalizer")
	}
}

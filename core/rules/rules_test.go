package rules

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"move-quote/core/settings"
	"move-quote/core/types"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func snapshot(t *testing.T, overrides map[string]string, promos ...settings.PromoRecord) *settings.Snapshot {
	t.Helper()
	doc := settings.DefaultDocument()
	for k, v := range overrides {
		doc.Values[k] = v
	}
	doc.Promos = promos
	snap, err := settings.Build(doc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return snap
}

var pricedOn = time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)

func evaluate(snap *settings.Snapshot, req types.PricingInputs, items ...types.NormalizedItem) types.Breakdown {
	return Evaluate(Input{Request: &req, Items: items, Settings: snap, PricedOn: pricedOn})
}

func TestPipelineOrder(t *testing.T) {
	want := []string{"distance", "items", "floors", "helpers", "conditions", "extras", "multipliers", "promo", "vat"}
	if got := Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestMultipliersCompound(t *testing.T) {
	snap := snapshot(t, map[string]string{settings.KeyHelperRate: "0"})
	b := evaluate(snap, types.PricingInputs{
		DistanceMiles: dec("50"),
		HelpersCount:  2,
		Availability:  "high",
	})

	if !b.Subtotal.Equal(dec("100")) {
		t.Fatalf("expected subtotal 100, got %s", b.Subtotal)
	}
	if !b.CrewAdjustment.Equal(dec("10")) {
		t.Errorf("expected crew adjustment 10, got %s", b.CrewAdjustment)
	}
	if !b.AvailabilityAdjustment.Equal(dec("22")) {
		t.Errorf("expected availability adjustment 22, got %s", b.AvailabilityAdjustment)
	}
	if !b.Total.Equal(dec("132")) {
		t.Errorf("expected 132, got %s", b.Total)
	}
}

func TestVATAppliesAfterPromo(t *testing.T) {
	snap := snapshot(t, nil, settings.PromoRecord{Code: "TEN", Kind: "percentage", Value: "10"})
	b := evaluate(snap, types.PricingInputs{
		DistanceMiles: dec("100"),
		Extras:        types.Extras{VAT: true},
		PromoCode:     "ten",
	})

	if !b.PromoDiscount.Equal(dec("20")) {
		t.Errorf("expected discount 20, got %s", b.PromoDiscount)
	}
	if !b.VAT.Equal(dec("36")) {
		t.Errorf("expected VAT 36, got %s", b.VAT)
	}
	if !b.Total.Equal(dec("216")) {
		t.Errorf("expected 216, got %s", b.Total)
	}
	if b.PromoCode != "TEN" {
		t.Errorf("expected applied promo TEN, got %q", b.PromoCode)
	}
}

func TestPromoDiscounts(t *testing.T) {
	snap := snapshot(t, nil,
		settings.PromoRecord{Code: "HUGE", Kind: "fixed", Value: "1000"},
		settings.PromoRecord{Code: "CAPPED", Kind: "percentage", Value: "50", MaxDiscount: "15"},
		settings.PromoRecord{Code: "OLD", Kind: "fixed", Value: "5", ValidTo: "2026-01-31"},
		settings.PromoRecord{Code: "SOON", Kind: "fixed", Value: "5", ValidFrom: "2026-12-01"},
	)

	tests := []struct {
		name         string
		code         string
		wantDiscount string
		wantTotal    string
		wantWarning  bool
	}{
		{"fixed promo clamps at zero", "HUGE", "40", "0", false},
		{"percentage capped by max discount", "CAPPED", "15", "25", false},
		{"expired", "OLD", "0", "40", true},
		{"not yet valid", "SOON", "0", "40", true},
		{"unknown", "NOPE", "0", "40", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := evaluate(snap, types.PricingInputs{DistanceMiles: dec("20"), PromoCode: tt.code})
			if !b.PromoDiscount.Equal(dec(tt.wantDiscount)) {
				t.Errorf("expected discount %s, got %s", tt.wantDiscount, b.PromoDiscount)
			}
			if !b.Total.Equal(dec(tt.wantTotal)) {
				t.Errorf("expected total %s, got %s", tt.wantTotal, b.Total)
			}
			if b.HasWarning(types.WarningPromoInvalid) != tt.wantWarning {
				t.Errorf("unexpected warnings: %+v", b.Warnings)
			}
			if b.Total.IsNegative() {
				t.Errorf("total went negative: %s", b.Total)
			}
		})
	}
}

func TestFloorsRespectLifts(t *testing.T) {
	snap := settings.Default()
	tests := []struct {
		name string
		req  types.PricingInputs
		want string
	}{
		{"no lifts", types.PricingInputs{PickupFloors: 3, DropoffFloors: 2}, "75"},
		{"pickup lift", types.PricingInputs{PickupFloors: 3, PickupHasLift: true, DropoffFloors: 2}, "30"},
		{"both lifts", types.PricingInputs{PickupFloors: 30, PickupHasLift: true, DropoffFloors: 20, DropoffHasLift: true}, "0"},
		{"ground floor", types.PricingInputs{}, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := evaluate(snap, tt.req)
			if !b.FloorsCost.Equal(dec(tt.want)) {
				t.Errorf("expected %s, got %s", tt.want, b.FloorsCost)
			}
		})
	}
}

func TestItemsVolumeAndHandling(t *testing.T) {
	snap := settings.Default()
	piano := types.NormalizedItem{
		CatalogRef: "piano-upright", CanonicalName: "Upright piano", Quantity: 1,
		VolumeFactor: dec("4"), RequiresTwoPerson: true, IsFragile: true, BasePriceHint: dec("120"),
	}
	wardrobe := types.NormalizedItem{
		CatalogRef: "wardrobe-double", CanonicalName: "Double wardrobe", Quantity: 2,
		VolumeFactor: dec("3"), RequiresDisassembly: true,
	}

	b := evaluate(snap, types.PricingInputs{HelpersCount: 0}, piano, wardrobe)

	// piano: 4 x 30 + 120 + 5; wardrobes: 6 x 30 + 2 x 15
	if !b.ItemsSurcharge.Equal(dec("455")) {
		t.Errorf("expected items surcharge 455, got %s", b.ItemsSurcharge)
	}
	if !b.TotalVolumeFactor.Equal(dec("10")) {
		t.Errorf("expected total volume 10, got %s", b.TotalVolumeFactor)
	}
	if len(b.Lines) != 2 || !b.Lines[1].HandlingCost.Equal(dec("30")) || !b.Lines[1].VolumeCost.Equal(dec("180")) {
		t.Errorf("unexpected lines: %+v", b.Lines)
	}
	if !b.HasWarning(types.WarningTwoPersonItem) {
		t.Error("expected two-person warning without helpers")
	}

	withHelper := evaluate(snap, types.PricingInputs{HelpersCount: 1}, piano)
	if withHelper.HasWarning(types.WarningTwoPersonItem) {
		t.Error("no two-person warning expected with a helper booked")
	}
}

func TestConditionsAndExtras(t *testing.T) {
	b := evaluate(settings.Default(), types.PricingInputs{
		AdverseWeather:          true,
		PickupRestrictedAccess:  true,
		DropoffRestrictedAccess: true,
		Extras:                  types.Extras{ULEZ: true},
	})
	if !b.AccessSurcharge.Equal(dec("40")) || !b.WeatherSurcharge.Equal(dec("25")) || !b.ExtrasCost.Equal(dec("12.5")) {
		t.Errorf("unexpected surcharges: access %s weather %s extras %s", b.AccessSurcharge, b.WeatherSurcharge, b.ExtrasCost)
	}
	if !b.Subtotal.Equal(dec("77.5")) {
		t.Errorf("expected subtotal 77.5, got %s", b.Subtotal)
	}
}

func TestUnknownAvailabilityFallsBackTo100(t *testing.T) {
	b := evaluate(settings.Default(), types.PricingInputs{DistanceMiles: dec("10"), Availability: "midnight"})
	if !b.AvailabilityMultiplierPercent.Equal(dec("100")) || !b.AvailabilityAdjustment.IsZero() {
		t.Errorf("expected neutral availability, got %s / %s", b.AvailabilityMultiplierPercent, b.AvailabilityAdjustment)
	}
	if !b.HasWarning(types.WarningUnknownAvailability) {
		t.Error("expected unknown availability warning")
	}
}

func TestTotalIsSumOfComponents(t *testing.T) {
	snap := snapshot(t, map[string]string{settings.KeyRatePerMile: "1.37"},
		settings.PromoRecord{Code: "SEVEN", Kind: "percentage", Value: "7.5"})
	b := evaluate(snap, types.PricingInputs{
		DistanceMiles: dec("13.3"),
		PickupFloors:  1,
		HelpersCount:  3,
		Availability:  "weekend",
		PromoCode:     "SEVEN",
		Extras:        types.Extras{ULEZ: true, VAT: true},
	}, types.NormalizedItem{CatalogRef: "lamp", Quantity: 3, VolumeFactor: dec("0.33")})

	if !b.AdditiveSum().Equal(b.Subtotal) {
		t.Errorf("subtotal %s != additive sum %s", b.Subtotal, b.AdditiveSum())
	}
	if !b.ComponentSum().Equal(b.Total) {
		t.Errorf("total %s != component sum %s", b.Total, b.ComponentSum())
	}
	for name, v := range map[string]decimal.Decimal{
		"distance": b.DistanceBase, "crew": b.CrewAdjustment, "availability": b.AvailabilityAdjustment,
		"promo": b.PromoDiscount, "vat": b.VAT, "total": b.Total,
	} {
		if v.Exponent() < -2 && !v.Equal(v.Round(2)) {
			t.Errorf("%s not rounded to pence: %s", name, v)
		}
	}
}

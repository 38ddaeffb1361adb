package settings

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"move-quote/core/determinism"
)

// Value keys of the settings document
const (
	KeyRatePerMile                  = "rate_per_mile"
	KeyRatePerVolumeUnit            = "rate_per_volume_unit"
	KeyFloorSurchargePerFloorNoLift = "floor_surcharge_per_floor_no_lift"
	KeyHelperRate                   = "helper_rate"
	KeyULEZSurcharge                = "ulez_surcharge"
	KeyVATRate                      = "vat_rate"
	KeyWeatherSurchargeRate         = "weather_surcharge_rate"
	KeyAccessSurchargeRate          = "access_surcharge_rate"
	KeyFragileItemSurcharge         = "fragile_item_surcharge"
	KeyDisassemblySurcharge         = "disassembly_surcharge"
	KeyCurrency                     = "currency"

	CrewMultiplierPrefix         = "crew_multiplier."
	AvailabilityMultiplierPrefix = "availability_multiplier."
)

// DefaultCurrency is used when a document names none
const DefaultCurrency = "GBP"

// RequiredKeys must be present in every document
var RequiredKeys = []string{
	KeyRatePerMile,
	KeyRatePerVolumeUnit,
	KeyFloorSurchargePerFloorNoLift,
	KeyHelperRate,
	KeyULEZSurcharge,
	KeyVATRate,
	KeyWeatherSurchargeRate,
	KeyAccessSurchargeRate,
}

// Document is the wire form of a settings snapshot: a flat key/value set,
// the upstream revision counter and the promo table.
type Document struct {
	Revision int64             `json:"revision"`
	Values   map[string]string `json:"values"`
	Promos   []PromoRecord     `json:"promos,omitempty"`
}

// PromoRecord is the wire form of a promo code
type PromoRecord struct {
	Code        string `json:"code"`
	Kind        string `json:"kind"`
	Value       string `json:"value"`
	ValidFrom   string `json:"validFrom,omitempty"`
	ValidTo     string `json:"validTo,omitempty"`
	MaxDiscount string `json:"maxDiscount,omitempty"`
}

func (d Document) clone() Document {
	c := Document{Revision: d.Revision, Values: make(map[string]string, len(d.Values))}
	for k, v := range d.Values {
		c.Values[k] = v
	}
	c.Promos = append([]PromoRecord(nil), d.Promos...)
	return c
}

// Build validates a document and builds an unpublished snapshot (version
// 0). Every problem found is reported, combined with multierr.
func Build(doc Document) (*Snapshot, error) {
	b := &builder{
		snap: &Snapshot{
			Revision:     doc.Revision,
			Currency:     DefaultCurrency,
			crew:         make(map[int]decimal.Decimal),
			availability: make(map[string]decimal.Decimal),
			promos:       make(map[string]Promo),
		},
	}

	if doc.Revision < 0 {
		b.fail("revision must be >= 0, got %d", doc.Revision)
	}

	rates := map[string]*decimal.Decimal{
		KeyRatePerMile:                  &b.snap.RatePerMile,
		KeyRatePerVolumeUnit:            &b.snap.RatePerVolumeUnit,
		KeyFloorSurchargePerFloorNoLift: &b.snap.FloorSurchargePerFloorNoLift,
		KeyHelperRate:                   &b.snap.HelperRate,
		KeyULEZSurcharge:                &b.snap.ULEZSurcharge,
		KeyVATRate:                      &b.snap.VATRate,
		KeyWeatherSurchargeRate:         &b.snap.WeatherSurchargeRate,
		KeyAccessSurchargeRate:          &b.snap.AccessSurchargeRate,
		KeyFragileItemSurcharge:         &b.snap.FragileItemSurcharge,
		KeyDisassemblySurcharge:         &b.snap.DisassemblySurcharge,
	}

	for _, key := range RequiredKeys {
		if _, ok := doc.Values[key]; !ok {
			b.fail("missing required key %q", key)
		}
	}

	for _, key := range determinism.SortedKeys(doc.Values) {
		raw := doc.Values[key]
		switch {
		case key == KeyCurrency:
			b.currency(raw)
		case rates[key] != nil:
			if v, ok := b.amount(key, raw); ok {
				*rates[key] = v
			}
		case strings.HasPrefix(key, CrewMultiplierPrefix):
			b.crewEntry(key, raw)
		case strings.HasPrefix(key, AvailabilityMultiplierPrefix):
			b.availabilityEntry(key, raw)
		default:
			b.fail("unknown key %q", key)
		}
	}

	if b.snap.VATRate.GreaterThan(decimal.NewFromInt(1)) {
		b.fail("%s must be a fraction <= 1, got %s", KeyVATRate, b.snap.VATRate)
	}

	for i, rec := range doc.Promos {
		b.promo(i, rec)
	}

	if b.err != nil {
		return nil, b.err
	}

	for k := range b.snap.crew {
		b.snap.crewKeys = append(b.snap.crewKeys, k)
	}
	sort.Ints(b.snap.crewKeys)

	b.snap.doc = doc.clone()
	hash, err := determinism.HashJSON(struct {
		Values map[string]string `json:"values"`
		Promos []PromoRecord     `json:"promos"`
	}{b.snap.doc.Values, b.snap.doc.Promos})
	if err != nil {
		return nil, fmt.Errorf("hash settings: %w", err)
	}
	b.snap.Hash = hash
	return b.snap, nil
}

type builder struct {
	snap *Snapshot
	err  error
}

func (b *builder) fail(format string, args ...interface{}) {
	b.err = multierr.Append(b.err, fmt.Errorf(format, args...))
}

func (b *builder) amount(key, raw string) (decimal.Decimal, bool) {
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		b.fail("%s: not a number: %q", key, raw)
		return decimal.Zero, false
	}
	if v.IsNegative() {
		b.fail("%s: must be >= 0, got %s", key, v)
		return decimal.Zero, false
	}
	return v, true
}

func (b *builder) percent(key, raw string) (decimal.Decimal, bool) {
	v, ok := b.amount(key, raw)
	if ok && !v.IsPositive() {
		b.fail("%s: multiplier percent must be > 0", key)
		return decimal.Zero, false
	}
	return v, ok
}

func (b *builder) currency(raw string) {
	c := strings.ToUpper(strings.TrimSpace(raw))
	if len(c) != 3 {
		b.fail("%s: expected a 3-letter code, got %q", KeyCurrency, raw)
		return
	}
	b.snap.Currency = c
}

func (b *builder) crewEntry(key, raw string) {
	helpers, err := strconv.Atoi(strings.TrimPrefix(key, CrewMultiplierPrefix))
	if err != nil || helpers < 0 {
		b.fail("%s: helper count must be a non-negative integer", key)
		return
	}
	if v, ok := b.percent(key, raw); ok {
		b.snap.crew[helpers] = v
	}
}

func (b *builder) availabilityEntry(key, raw string) {
	slot := strings.TrimPrefix(key, AvailabilityMultiplierPrefix)
	if slot == "" || slot != strings.ToLower(strings.TrimSpace(slot)) {
		b.fail("%s: slot must be a lowercase name", key)
		return
	}
	if v, ok := b.percent(key, raw); ok {
		b.snap.availability[slot] = v
	}
}

func (b *builder) promo(i int, rec PromoRecord) {
	field := fmt.Sprintf("promos[%d]", i)
	p := Promo{Code: promoKey(rec.Code), Kind: PromoKind(strings.ToLower(strings.TrimSpace(rec.Kind)))}
	ok := true

	if p.Code == "" {
		b.fail("%s: code is required", field)
		ok = false
	} else if _, dup := b.snap.promos[p.Code]; dup {
		b.fail("%s: duplicate code %q", field, p.Code)
		ok = false
	}

	if p.Kind != PromoPercentage && p.Kind != PromoFixed {
		b.fail("%s: kind must be percentage or fixed, got %q", field, rec.Kind)
		ok = false
	}

	if v, valid := b.amount(field+".value", rec.Value); valid {
		if p.Kind == PromoPercentage && v.GreaterThan(hundred) {
			b.fail("%s.value: percentage must be <= 100, got %s", field, v)
			ok = false
		}
		p.Value = v
	} else {
		ok = false
	}

	var err error
	if p.ValidFrom, err = parseDate(rec.ValidFrom); err != nil {
		b.fail("%s.validFrom: %v", field, err)
		ok = false
	}
	if p.ValidTo, err = parseDate(rec.ValidTo); err != nil {
		b.fail("%s.validTo: %v", field, err)
		ok = false
	}
	if !p.ValidFrom.IsZero() && !p.ValidTo.IsZero() && p.ValidTo.Before(p.ValidFrom) {
		b.fail("%s: validTo is before validFrom", field)
		ok = false
	}

	if s := strings.TrimSpace(rec.MaxDiscount); s != "" {
		if v, valid := b.amount(field+".maxDiscount", s); valid {
			p.MaxDiscount = decimal.NullDecimal{Decimal: v, Valid: true}
		} else {
			ok = false
		}
	}

	if ok {
		b.snap.promos[p.Code] = p
	}
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, s)
}

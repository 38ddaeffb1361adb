// Package settings - Versioned pricing settings
// Snapshots are immutable once built. A reload builds a new snapshot and
// publishes it; it never mutates one already handed out.
package settings

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"move-quote/core/determinism"
)

// DateLayout is the layout of promo validity dates and quote dates
const DateLayout = "2006-01-02"

var hundred = decimal.NewFromInt(100)

// PromoKind is how a promo discount is computed
type PromoKind string

const (
	PromoPercentage PromoKind = "percentage"
	PromoFixed      PromoKind = "fixed"
)

// Promo is a validated promo code
type Promo struct {
	Code  string
	Kind  PromoKind
	Value decimal.Decimal

	// ValidFrom and ValidTo are inclusive calendar days; zero means open
	ValidFrom time.Time
	ValidTo   time.Time

	MaxDiscount decimal.NullDecimal
}

// ActiveOn reports whether the promo is valid on day
func (p Promo) ActiveOn(day time.Time) bool {
	d := truncateDay(day)
	if !p.ValidFrom.IsZero() && d.Before(p.ValidFrom) {
		return false
	}
	if !p.ValidTo.IsZero() && d.After(p.ValidTo) {
		return false
	}
	return true
}

// NotYetValid reports whether day falls before the validity window
func (p Promo) NotYetValid(day time.Time) bool {
	return !p.ValidFrom.IsZero() && truncateDay(day).Before(p.ValidFrom)
}

// Snapshot is one immutable, versioned set of pricing rates
type Snapshot struct {
	// Version is assigned by the provider on publication, starting at 1.
	// The compiled-in default is version 0.
	Version int64

	// Revision is the upstream source's own counter
	Revision int64

	// Source names where the snapshot came from
	Source   string
	LoadedAt time.Time

	// Hash covers the rates, tables and promos, not the version
	Hash determinism.ContentHash

	Currency string

	RatePerMile                  decimal.Decimal
	RatePerVolumeUnit            decimal.Decimal
	FloorSurchargePerFloorNoLift decimal.Decimal
	HelperRate                   decimal.Decimal
	ULEZSurcharge                decimal.Decimal
	VATRate                      decimal.Decimal
	WeatherSurchargeRate         decimal.Decimal
	AccessSurchargeRate          decimal.Decimal
	FragileItemSurcharge         decimal.Decimal
	DisassemblySurcharge         decimal.Decimal

	crew         map[int]decimal.Decimal
	crewKeys     []int
	availability map[string]decimal.Decimal
	promos       map[string]Promo

	doc Document
}

// CrewMultiplier returns the crew percent for helpers: the entry with the
// greatest key not above helpers, or 100 when there is none.
func (s *Snapshot) CrewMultiplier(helpers int) decimal.Decimal {
	i := sort.SearchInts(s.crewKeys, helpers+1)
	if i == 0 {
		return hundred
	}
	return s.crew[s.crewKeys[i-1]]
}

// AvailabilityMultiplier returns the percent for slot
func (s *Snapshot) AvailabilityMultiplier(slot string) (decimal.Decimal, bool) {
	p, ok := s.availability[strings.ToLower(strings.TrimSpace(slot))]
	return p, ok
}

// Promo looks up a promo code, case-insensitively
func (s *Snapshot) Promo(code string) (Promo, bool) {
	p, ok := s.promos[promoKey(code)]
	return p, ok
}

// CrewTable returns a copy of the crew multiplier table
func (s *Snapshot) CrewTable() map[int]decimal.Decimal {
	out := make(map[int]decimal.Decimal, len(s.crew))
	for k, v := range s.crew {
		out[k] = v
	}
	return out
}

// AvailabilityTable returns a copy of the availability multiplier table
func (s *Snapshot) AvailabilityTable() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(s.availability))
	for k, v := range s.availability {
		out[k] = v
	}
	return out
}

// Promos returns every promo ordered by code
func (s *Snapshot) Promos() []Promo {
	out := make([]Promo, 0, len(s.promos))
	for _, k := range determinism.SortedKeys(s.promos) {
		out = append(out, s.promos[k])
	}
	return out
}

// Document returns the document the snapshot was built from
func (s *Snapshot) Document() Document {
	return s.doc.clone()
}

// IsDefault reports whether this is the compiled-in fallback
func (s *Snapshot) IsDefault() bool {
	return s.Version == 0
}

// publish returns a copy stamped with version and provenance. Tables are
// shared: they are never written after Build.
func (s *Snapshot) publish(version int64, source string, at time.Time) *Snapshot {
	c := *s
	c.Version = version
	c.Source = source
	c.LoadedAt = at
	return &c
}

func promoKey(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

package rules

import (
	"fmt"

	"github.com/shopspring/decimal"

	"move-quote/core/determinism"
	"move-quote/core/settings"
	"move-quote/core/types"
)

var hundred = decimal.NewFromInt(100)

// applyMultipliers applies the crew percent and then the availability
// percent to the result; each adjustment is rounded on its own
func applyMultipliers(e *Evaluation) {
	b := &e.Breakdown

	crew := e.Settings.CrewMultiplier(e.Request.HelpersCount)
	afterCrew := determinism.Percent(b.Subtotal, crew)
	b.CrewMultiplierPercent = crew
	b.CrewAdjustment = afterCrew.Sub(b.Subtotal)

	slot := e.Request.AvailabilitySlot()
	availability, ok := e.Settings.AvailabilityMultiplier(slot)
	if !ok {
		availability = hundred
		e.warn(types.WarningUnknownAvailability, slot,
			fmt.Sprintf("availability %q is not priced; no availability multiplier applied", slot))
	}
	afterAvailability := determinism.Percent(afterCrew, availability)
	b.AvailabilityMultiplierPercent = availability
	b.AvailabilityAdjustment = afterAvailability.Sub(afterCrew)

	e.postMultiplier = afterAvailability
}

// applyPromo discounts the post-multiplier subtotal. An unusable code only
// produces a warning.
func applyPromo(e *Evaluation) {
	b := &e.Breakdown
	b.PromoDiscount = decimal.Zero
	e.postDiscount = e.postMultiplier

	if e.Request.PromoCode == "" {
		return
	}
	promo, ok := e.Settings.Promo(e.Request.PromoCode)
	if !ok {
		e.warn(types.WarningPromoInvalid, e.Request.PromoCode, "promo code is not recognised")
		return
	}
	if !promo.ActiveOn(e.PricedOn) {
		reason := "promo code has expired"
		if promo.NotYetValid(e.PricedOn) {
			reason = "promo code is not valid yet"
		}
		e.warn(types.WarningPromoInvalid, promo.Code, reason)
		return
	}

	discount := promoDiscount(promo, e.postMultiplier)
	b.PromoCode = promo.Code
	b.PromoDiscount = discount
	e.postDiscount = e.postMultiplier.Sub(discount)
}

// promoDiscount is capped by MaxDiscount and never exceeds base
func promoDiscount(p settings.Promo, base decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch p.Kind {
	case settings.PromoPercentage:
		discount = determinism.Percent(base, p.Value)
	default:
		discount = money(p.Value)
	}
	if p.MaxDiscount.Valid && discount.GreaterThan(p.MaxDiscount.Decimal) {
		discount = money(p.MaxDiscount.Decimal)
	}
	if discount.GreaterThan(base) {
		discount = base
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount
}

// applyVAT taxes the post-discount subtotal and sets the total
func applyVAT(e *Evaluation) {
	b := &e.Breakdown
	b.VAT = decimal.Zero
	if e.Request.Extras.VAT {
		b.VAT = money(e.postDiscount.Mul(e.Settings.VATRate))
	}
	b.Total = e.postDiscount.Add(b.VAT)
}

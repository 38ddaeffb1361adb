// Package ui - Quote display
package ui

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"move-quote/core/types"
)

// QuoteView renders a quote breakdown for the terminal
type QuoteView struct {
	w *Writer
}

// NewQuoteView creates a quote view
func (w *Writer) NewQuoteView() *QuoteView {
	return &QuoteView{w: w}
}

// Render prints the lines, the ordered components and the total
func (v *QuoteView) Render(b *types.Breakdown) {
	w := v.w
	cur := b.Currency

	w.Header("Removal Quote")

	if len(b.Lines) > 0 {
		w.SubHeader("Items")
		table := w.NewTable("Item", "Qty", "Volume", "Volume cost", "Handling", "Match").AlignRight(1, 2, 3, 4)
		for _, l := range b.Lines {
			name := l.CanonicalName
			if l.CatalogRef == "" {
				name = l.Identifier + " (unlisted)"
			}
			table.AddRow(name, fmt.Sprintf("%d", l.Quantity), l.Volume.String(),
				amount(cur, l.VolumeCost), amount(cur, l.HandlingCost), string(l.Match))
		}
		table.Render()
		w.Println("")
	}

	w.SubHeader("Breakdown")
	table := w.NewTable("Component", "Amount").AlignRight(1)
	table.AddRow("Distance", amount(cur, b.DistanceBase))
	table.AddRow("Items", amount(cur, b.ItemsSurcharge))
	table.AddRow("Floors", amount(cur, b.FloorsCost))
	table.AddRow("Helpers", amount(cur, b.HelpersCost))
	table.AddRow("Access", amount(cur, b.AccessSurcharge))
	table.AddRow("Weather", amount(cur, b.WeatherSurcharge))
	table.AddRow("Extras", amount(cur, b.ExtrasCost))
	table.AddRow("Subtotal", amount(cur, b.Subtotal))
	table.AddRow(fmt.Sprintf("Crew (%s%%)", b.CrewMultiplierPercent), signed(cur, b.CrewAdjustment))
	table.AddRow(fmt.Sprintf("Availability (%s%%)", b.AvailabilityMultiplierPercent), signed(cur, b.AvailabilityAdjustment))
	if b.PromoCode != "" {
		table.AddRow("Promo "+b.PromoCode, signed(cur, b.PromoDiscount.Neg()))
	}
	table.AddRow("VAT", amount(cur, b.VAT))
	table.Render()

	w.Println("")
	label := "Total"
	if b.Estimated {
		label = "Estimated total"
	}
	w.Println("%s", w.color(Bold+Green, fmt.Sprintf("%s: %s", label, amount(cur, b.Total))))

	for _, warn := range b.Warnings {
		w.Warning("%s", warn.Message)
	}

	w.Println("%s", w.color(Dim, fmt.Sprintf("settings v%d (revision %d, %s), priced on %s",
		b.SettingsVersion, b.SettingsRevision, shortHash(b.SettingsHash), b.PricedOn)))
}

func amount(currency string, d decimal.Decimal) string {
	return currency + " " + d.StringFixed(2)
}

func signed(currency string, d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + amount(currency, d.Abs())
	}
	return "+" + amount(currency, d)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return strings.TrimSpace(h)
}

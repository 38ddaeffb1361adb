package rules

import (
	"fmt"

	"github.com/shopspring/decimal"

	"move-quote/core/types"
)

func applyDistance(e *Evaluation) {
	e.Breakdown.DistanceBase = money(e.Request.DistanceMiles.Mul(e.Settings.RatePerMile))
}

// applyItems prices volume and handling per line. The items surcharge is
// the sum of the rounded lines so the lines always add up.
func applyItems(e *Evaluation) {
	s := e.Settings
	totalVolume := decimal.Zero
	surcharge := decimal.Zero
	needsTwo := false

	for _, item := range e.Items {
		volume := item.TotalVolume()
		perUnit := item.BasePriceHint
		if item.IsFragile {
			perUnit = perUnit.Add(s.FragileItemSurcharge)
		}
		if item.RequiresDisassembly {
			perUnit = perUnit.Add(s.DisassemblySurcharge)
		}

		line := types.LineCost{
			CatalogRef:    item.CatalogRef,
			CanonicalName: item.CanonicalName,
			Identifier:    item.Identifier,
			Match:         item.Match,
			Quantity:      item.Quantity,
			Volume:        volume,
			VolumeCost:    money(volume.Mul(s.RatePerVolumeUnit)),
			HandlingCost:  money(perUnit.Mul(count(item.Quantity))),
		}
		e.Breakdown.Lines = append(e.Breakdown.Lines, line)

		totalVolume = totalVolume.Add(volume)
		surcharge = surcharge.Add(line.VolumeCost).Add(line.HandlingCost)

		if item.RequiresTwoPerson && e.Request.HelpersCount == 0 && !needsTwo {
			needsTwo = true
			e.warn(types.WarningTwoPersonItem, item.CatalogRef,
				fmt.Sprintf("%s needs two people to carry but no helpers are booked", item.CanonicalName))
		}
	}

	e.Breakdown.TotalVolumeFactor = totalVolume
	e.Breakdown.ItemsSurcharge = surcharge
}

// applyFloors charges per floor on each side without a lift
func applyFloors(e *Evaluation) {
	floors := 0
	if !e.Request.PickupHasLift {
		floors += e.Request.PickupFloors
	}
	if !e.Request.DropoffHasLift {
		floors += e.Request.DropoffFloors
	}
	e.Breakdown.FloorsCost = money(e.Settings.FloorSurchargePerFloorNoLift.Mul(count(floors)))
}

func applyHelpers(e *Evaluation) {
	e.Breakdown.HelpersCost = money(e.Settings.HelperRate.Mul(count(e.Request.HelpersCount)))
}

// applyConditions adds the flat access and weather surcharges
func applyConditions(e *Evaluation) {
	sides := 0
	if e.Request.PickupRestrictedAccess {
		sides++
	}
	if e.Request.DropoffRestrictedAccess {
		sides++
	}
	e.Breakdown.AccessSurcharge = money(e.Settings.AccessSurchargeRate.Mul(count(sides)))

	e.Breakdown.WeatherSurcharge = decimal.Zero
	if e.Request.AdverseWeather {
		e.Breakdown.WeatherSurcharge = money(e.Settings.WeatherSurchargeRate)
	}
}

// applyExtras adds the selected add-ons and closes the additive stages
func applyExtras(e *Evaluation) {
	e.Breakdown.ExtrasCost = decimal.Zero
	if e.Request.Extras.ULEZ {
		e.Breakdown.ExtrasCost = money(e.Settings.ULEZSurcharge)
	}
	e.Breakdown.Subtotal = e.Breakdown.AdditiveSum()
}

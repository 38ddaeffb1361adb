package settings

// DefaultSourceName labels the compiled-in snapshot
const DefaultSourceName = "default"

// DefaultDocument returns the compiled-in settings used until the first
// successful reload
func DefaultDocument() Document {
	return Document{
		Revision: 0,
		Values: map[string]string{
			KeyCurrency:                     DefaultCurrency,
			KeyRatePerMile:                  "2.00",
			KeyRatePerVolumeUnit:            "30.00",
			KeyFloorSurchargePerFloorNoLift: "15.00",
			KeyHelperRate:                   "40.00",
			KeyULEZSurcharge:                "12.50",
			KeyVATRate:                      "0.20",
			KeyWeatherSurchargeRate:         "25.00",
			KeyAccessSurchargeRate:          "20.00",
			KeyFragileItemSurcharge:         "5.00",
			KeyDisassemblySurcharge:         "15.00",

			CrewMultiplierPrefix + "0": "100",
			CrewMultiplierPrefix + "1": "100",
			CrewMultiplierPrefix + "2": "110",
			CrewMultiplierPrefix + "3": "115",
			CrewMultiplierPrefix + "4": "120",

			AvailabilityMultiplierPrefix + "standard": "100",
			AvailabilityMultiplierPrefix + "high":     "120",
			AvailabilityMultiplierPrefix + "weekend":  "110",
			AvailabilityMultiplierPrefix + "low":      "95",
		},
	}
}

var defaultSnapshot = mustDefault()

func mustDefault() *Snapshot {
	snap, err := Build(DefaultDocument())
	if err != nil {
		panic("settings: invalid default document: " + err.Error())
	}
	return snap.publish(0, DefaultSourceName, snap.LoadedAt)
}

// Default returns the compiled-in snapshot (version 0)
func Default() *Snapshot {
	return defaultSnapshot
}

package quote

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"move-quote/core/settings"
	"move-quote/core/types"
	qerrors "move-quote/internal/errors"
)

// Input bounds
const (
	MaxDistanceMiles    = 2000
	MaxFloors           = 200
	MaxHelpers          = 50
	MaxQuantity         = 10000
	MaxItems            = 500
	MaxIdentifierLength = 200
	MaxPromoCodeLength  = 64
	MaxAvailabilityLen  = 64
)

var maxDistance = decimal.NewFromInt(MaxDistanceMiles)

// Validate checks every input range and reports all offending fields at
// once. It runs before any pricing rule.
func Validate(in *types.PricingInputs) error {
	v := &qerrors.ValidationError{}

	switch {
	case in.DistanceMiles.IsNegative():
		v.Add("distanceMiles", "must be >= 0")
	case in.DistanceMiles.GreaterThan(maxDistance):
		v.Add("distanceMiles", "must be <= %d", MaxDistanceMiles)
	}

	checkRange(v, "pickupFloors", in.PickupFloors, 0, MaxFloors)
	checkRange(v, "dropoffFloors", in.DropoffFloors, 0, MaxFloors)
	checkRange(v, "helpersCount", in.HelpersCount, 0, MaxHelpers)

	if len(in.Items) > MaxItems {
		v.Add("items", "at most %d item lines are allowed, got %d", MaxItems, len(in.Items))
	}
	for i, item := range in.Items {
		field := fmt.Sprintf("items[%d]", i)
		id := strings.TrimSpace(item.Identifier)
		switch {
		case id == "":
			v.Add(field+".identifier", "is required")
		case utf8.RuneCountInString(id) > MaxIdentifierLength:
			v.Add(field+".identifier", "must be at most %d characters", MaxIdentifierLength)
		}
		checkRange(v, field+".quantity", item.Quantity, 1, MaxQuantity)
	}

	if utf8.RuneCountInString(in.PromoCode) > MaxPromoCodeLength {
		v.Add("promoCode", "must be at most %d characters", MaxPromoCodeLength)
	}
	if utf8.RuneCountInString(in.Availability) > MaxAvailabilityLen {
		v.Add("availability", "must be at most %d characters", MaxAvailabilityLen)
	}
	if in.QuoteDate != "" {
		if _, err := time.Parse(settings.DateLayout, in.QuoteDate); err != nil {
			v.Add("quoteDate", "must be a date in YYYY-MM-DD form")
		}
	}

	return v.OrNil()
}

func checkRange(v *qerrors.ValidationError, field string, n, min, max int) {
	switch {
	case n < min:
		v.Add(field, "must be >= %d", min)
	case n > max:
		v.Add(field, "must be <= %d", max)
	}
}

// Package catalog - Catalog validation
// Ensures catalog integrity and enforces invariants.
package catalog

import (
	"fmt"
	"strings"
)

// ValidationRule is a catalog validation rule
type ValidationRule func(Item) error

// DefaultValidationRules returns the standard validation rules
func DefaultValidationRules() []ValidationRule {
	return []ValidationRule{
		validateIdentity,
		validateVolume,
		validatePriceHint,
	}
}

// Validate checks items against validation rules
func Validate(items []Item, rules []ValidationRule) []error {
	var errs []error
	for i, item := range items {
		for _, rule := range rules {
			if err := rule(item); err != nil {
				errs = append(errs, fmt.Errorf("item %d (%s): %w", i, item.ID, err))
			}
		}
	}
	return errs
}

func validateIdentity(item Item) error {
	if strings.TrimSpace(item.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(item.CanonicalName) == "" {
		return fmt.Errorf("canonical name is required")
	}
	return nil
}

// validateVolume ensures every item occupies space
func validateVolume(item Item) error {
	if !item.VolumeFactor.IsPositive() {
		return fmt.Errorf("volume factor must be > 0, got %s", item.VolumeFactor)
	}
	return nil
}

func validatePriceHint(item Item) error {
	if item.BasePriceHint.IsNegative() {
		return fmt.Errorf("base price hint must be >= 0, got %s", item.BasePriceHint)
	}
	return nil
}

/*
tier.go - Sliding-scale tier resolution and validation

PURPOSE:
  Sliding-scale plans replace the flat split percentage with a ladder of
  tiers keyed by YTD company dollar. An agent who has already generated
  $50,000 of company dollar this cycle earns the split of the highest
  tier whose threshold they have reached.

RESOLUTION:
  Tiers are sorted by threshold ascending and the engine keeps the last
  tier whose threshold <= YTD. With a mandatory zero-threshold base tier
  there is always a match.

VALIDATION:
  A sliding scale must have at least one tier, a zero-threshold base
  tier, strictly increasing thresholds, splits within [0,100], and
  non-empty unique descriptions. Problems are collected into a single
  ValidationResult rather than reported one at a time.

SEE ALSO:
  - plan.go: CommissionTier definition
  - engine.go: Validates every sliding plan before the run starts
*/
package commission

import (
	"fmt"
	"sort"
)

// =============================================================================
// TIER RESOLUTION
// =============================================================================

// SortTiers returns a copy of tiers ordered by threshold ascending.
// The input slice is never modified.
func SortTiers(tiers []CommissionTier) []CommissionTier {
	sorted := make([]CommissionTier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Threshold.LessThan(sorted[j].Threshold)
	})
	return sorted
}

// ResolveTier returns the index (into the sorted ladder) and tier that
// applies at the given YTD company dollar. ok is false for plans that do
// not use a sliding scale or have no tiers.
func ResolveTier(plan CommissionPlan, ytd Money) (int, CommissionTier, bool) {
	if !plan.UseSliding || len(plan.Tiers) == 0 {
		return -1, CommissionTier{}, false
	}

	sorted := SortTiers(plan.Tiers)
	idx := 0
	for i, tier := range sorted {
		if tier.Threshold.LessThanOrEqual(ytd) {
			idx = i
		}
	}
	return idx, sorted[idx], true
}

// ResolveSplit returns the agent's split percentage at the given YTD
// company dollar: the matching tier's split for sliding plans, the flat
// SplitPercentage otherwise.
func ResolveSplit(plan CommissionPlan, ytd Money) float64 {
	if _, tier, ok := ResolveTier(plan, ytd); ok {
		return tier.SplitPercentage
	}
	return plan.SplitPercentage
}

// =============================================================================
// TIER VALIDATION
// =============================================================================

// ValidationResult collects every problem found in a sliding scale.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// ValidateTiers checks a plan's sliding scale and reports all violations
// at once. Plans that do not use a sliding scale are always valid.
func ValidateTiers(plan CommissionPlan) ValidationResult {
	if !plan.UseSliding {
		return ValidationResult{Valid: true}
	}

	var errs []string
	if len(plan.Tiers) == 0 {
		return ValidationResult{Valid: false, Errors: []string{"sliding scale has no tiers"}}
	}

	sorted := SortTiers(plan.Tiers)

	if !sorted[0].Threshold.IsZero() {
		errs = append(errs, fmt.Sprintf("lowest tier threshold must be 0, got %s", sorted[0].Threshold))
	}

	seenDesc := make(map[string]bool, len(sorted))
	for i, tier := range sorted {
		if i > 0 && tier.Threshold.Equal(sorted[i-1].Threshold) {
			errs = append(errs, fmt.Sprintf("duplicate tier threshold %s", tier.Threshold))
		}
		if tier.Threshold.IsNegative() {
			errs = append(errs, fmt.Sprintf("tier threshold %s is negative", tier.Threshold))
		}
		if tier.SplitPercentage < 0 || tier.SplitPercentage > 100 {
			errs = append(errs, fmt.Sprintf("tier %q split percentage %v out of range [0,100]", tier.Description, tier.SplitPercentage))
		}
		if tier.Description == "" {
			errs = append(errs, fmt.Sprintf("tier at threshold %s has no description", tier.Threshold))
		} else if seenDesc[tier.Description] {
			errs = append(errs, fmt.Sprintf("duplicate tier description %q", tier.Description))
		}
		seenDesc[tier.Description] = true
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

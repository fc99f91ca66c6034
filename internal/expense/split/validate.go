package split

import (
	"github.com/shopspring/decimal"

	"github.com/fkhayef/splitledger/pkg/money"
)

var hundred = decimal.NewFromInt(100)

// Validate checks a computed set of shares against the rules of policy.
// Any failure is a *ValidationError.
//
// Percentage shares are checked as amounts here. The percent values
// themselves are checked once, before conversion, by ValidatePercentages.
func Validate(shares []Share, total money.Money, policy Policy) error {
	if len(shares) == 0 {
		return invalid("At least one split is required")
	}

	seen := make(map[int64]struct{}, len(shares))
	for _, s := range shares {
		if _, dup := seen[s.ParticipantID]; dup {
			return invalid("Duplicate users in splits")
		}
		seen[s.ParticipantID] = struct{}{}
	}

	for _, s := range shares {
		if !s.Amount.IsPositive() {
			return invalid("Invalid split amount %s for user %d", s.Amount, s.ParticipantID)
		}
	}

	switch policy {
	case PolicyEqual:
		// unrounded per-head amount
		expected := total.Decimal().Div(decimal.NewFromInt(int64(len(shares))))
		for _, s := range shares {
			if !s.Amount.WithinTolerance(expected) {
				return invalid("Equal splits must have equal amounts")
			}
		}
	case PolicyExact, PolicyPercentage:
		sum := money.Zero
		for _, s := range shares {
			sum = sum.Add(s.Amount)
		}
		if !sum.WithinTolerance(total.Decimal()) {
			return invalid("Split amounts (%s) must equal total amount (%s)", sum, total)
		}
	default:
		return invalidInput("unknown split policy " + string(policy))
	}
	return nil
}

// ValidatePercentages checks raw percentages before they are converted:
// no duplicates, each in (0, 100], and a sum of 100 within 0.01.
func ValidatePercentages(entries []PercentShare) error {
	if len(entries) == 0 {
		return invalid("At least one split is required")
	}

	seen := make(map[int64]struct{}, len(entries))
	sum := decimal.Zero
	for _, e := range entries {
		if _, dup := seen[e.ParticipantID]; dup {
			return invalid("Duplicate users in splits")
		}
		seen[e.ParticipantID] = struct{}{}

		if money.CheckRange(e.Percent) != nil || !e.Percent.IsPositive() || e.Percent.GreaterThan(hundred) {
			return invalid("Percentage %s for user %d must be between 0 and 100", e.Percent, e.ParticipantID)
		}
		sum = sum.Add(e.Percent)
	}

	if sum.Sub(hundred).Abs().GreaterThan(money.Tolerance) {
		return invalid("Percentage splits must total 100%% (got %s%%)", sum)
	}
	return nil
}

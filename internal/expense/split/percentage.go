package split

import "github.com/fkhayef/splitledger/pkg/money"

// =============================================================================
// PERCENTAGE SPLIT STRATEGY
// Divides the expense based on specified percentages for each participant
// =============================================================================

// PercentageStrategy implements the Strategy interface for percentage-based splits
type PercentageStrategy struct{}

// Type returns the split type identifier
func (s *PercentageStrategy) Type() Policy {
	return PolicyPercentage
}

// Validate checks if the inputs are valid for a percentage split. The
// percentages must sum to 100 before anything is converted.
func (s *PercentageStrategy) Validate(total money.Money, inputs []Input) error {
	if err := checkCommon(total, inputs); err != nil {
		return err
	}
	for _, in := range inputs {
		if in.Percentage == nil {
			return invalidInput("percentage value required for all participants")
		}
		if money.CheckRange(*in.Percentage) != nil {
			return invalidInput("percentage out of range")
		}
	}
	return ValidatePercentages(percentShares(inputs))
}

// Calculate converts each percentage to an amount. The last participant
// takes whatever is left so the shares add up to total.
func (s *PercentageStrategy) Calculate(total money.Money, inputs []Input) ([]Share, error) {
	if err := s.Validate(total, inputs); err != nil {
		return nil, err
	}

	shares, err := ConvertPercentagesToAmounts(total, percentShares(inputs))
	if err != nil {
		return nil, err
	}
	if err := Validate(shares, total, PolicyPercentage); err != nil {
		return nil, err
	}
	return shares, nil
}

func percentShares(inputs []Input) []PercentShare {
	out := make([]PercentShare, len(inputs))
	for i, in := range inputs {
		out[i] = PercentShare{ParticipantID: in.UserID, Percent: *in.Percentage}
	}
	return out
}

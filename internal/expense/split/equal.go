package split

import "github.com/fkhayef/splitledger/pkg/money"

// =============================================================================
// EQUAL SPLIT STRATEGY
// Divides the expense equally among all participants, payer included
// =============================================================================

// EqualStrategy implements the Strategy interface for equal splits
type EqualStrategy struct{}

// Type returns the split type identifier
func (s *EqualStrategy) Type() Policy {
	return PolicyEqual
}

// Validate checks if the inputs are valid for an equal split
func (s *EqualStrategy) Validate(total money.Money, inputs []Input) error {
	return checkCommon(total, inputs)
}

// Calculate divides total between the inputs in request order. The last
// participant absorbs the rounding remainder.
func (s *EqualStrategy) Calculate(total money.Money, inputs []Input) ([]Share, error) {
	if err := s.Validate(total, inputs); err != nil {
		return nil, err
	}

	ids := make([]int64, len(inputs))
	for i, in := range inputs {
		ids[i] = in.UserID
	}

	shares, err := ComputeEqualSplits(total, ids)
	if err != nil {
		return nil, err
	}
	if err := Validate(shares, total, PolicyEqual); err != nil {
		return nil, err
	}
	return shares, nil
}

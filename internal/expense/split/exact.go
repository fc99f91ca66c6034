package split

import "github.com/fkhayef/splitledger/pkg/money"

// =============================================================================
// EXACT SPLIT STRATEGY
// Each participant owes a specific exact amount (must sum to total)
// =============================================================================

// ExactStrategy implements the Strategy interface for exact amount splits
type ExactStrategy struct{}

// Type returns the split type identifier
func (s *ExactStrategy) Type() Policy {
	return PolicyExact
}

// Validate checks if the inputs are valid for an exact split
func (s *ExactStrategy) Validate(total money.Money, inputs []Input) error {
	if err := checkCommon(total, inputs); err != nil {
		return err
	}
	for _, in := range inputs {
		if in.Amount == nil {
			return invalidInput("exact amount required for all participants")
		}
	}
	return nil
}

// Calculate returns the amounts given by the client, once they are shown
// to add up to total.
func (s *ExactStrategy) Calculate(total money.Money, inputs []Input) ([]Share, error) {
	if err := s.Validate(total, inputs); err != nil {
		return nil, err
	}

	shares := make([]Share, len(inputs))
	for i, in := range inputs {
		shares[i] = Share{ParticipantID: in.UserID, Amount: *in.Amount}
	}

	if err := Validate(shares, total, PolicyExact); err != nil {
		return nil, err
	}
	return shares, nil
}

package split

import "github.com/fkhayef/splitledger/pkg/money"

// ComputeEqualSplits gives every participant round(total/n, 2) except the
// last one, who receives total minus everything before it. The returned
// shares always sum to total exactly.
func ComputeEqualSplits(total money.Money, participants []int64) ([]Share, error) {
	if len(participants) == 0 {
		return nil, invalidInput("at least one participant is required")
	}

	per := total.DivInt(len(participants))
	shares := make([]Share, len(participants))
	assigned := money.Zero
	last := len(participants) - 1
	for i, id := range participants {
		amount := per
		if i == last {
			amount = total.Sub(assigned)
		}
		shares[i] = Share{ParticipantID: id, Amount: amount}
		assigned = assigned.Add(amount)
	}
	return shares, nil
}

// ConvertPercentagesToAmounts converts each percent into round(total*pct/100, 2),
// with the last entry taking the residual.
func ConvertPercentagesToAmounts(total money.Money, entries []PercentShare) ([]Share, error) {
	if len(entries) == 0 {
		return nil, invalidInput("at least one participant is required")
	}

	shares := make([]Share, len(entries))
	assigned := money.Zero
	last := len(entries) - 1
	for i, e := range entries {
		amount := total.Percent(e.Percent)
		if i == last {
			amount = total.Sub(assigned)
		}
		shares[i] = Share{ParticipantID: e.ParticipantID, Amount: amount}
		assigned = assigned.Add(amount)
	}
	return shares, nil
}

package split

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/splitledger/pkg/money"
)

// Policy names the rule used to divide an expense total.
type Policy string

const (
	PolicyEqual      Policy = "equal"
	PolicyExact      Policy = "exact"
	PolicyPercentage Policy = "percentage"
)

// ParsePolicy accepts any letter case. "even" is kept as an alias of equal.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyEqual, PolicyExact, PolicyPercentage:
		return p, nil
	case "even":
		return PolicyEqual, nil
	default:
		return "", invalidInput("unknown split policy " + s)
	}
}

// Input is one participant as submitted by a client. Percentage is read by
// the percentage policy, Amount by the exact policy.
type Input struct {
	UserID     int64            `json:"user_id"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
	Amount     *money.Money     `json:"amount,omitempty"`
}

// Share is one participant's portion of an expense total.
type Share struct {
	ParticipantID int64       `json:"user_id"`
	Amount        money.Money `json:"amount"`
}

// PercentShare is a participant and the percent of the total they carry.
type PercentShare struct {
	ParticipantID int64           `json:"user_id"`
	Percent       decimal.Decimal `json:"percentage"`
}

// Strategy is implemented by every split policy.
type Strategy interface {
	// Calculate turns client inputs into shares that sum to total and pass Validate.
	Calculate(total money.Money, inputs []Input) ([]Share, error)

	// Type returns the policy this strategy implements.
	Type() Policy

	// Validate checks inputs before any amount is computed.
	Validate(total money.Money, inputs []Input) error
}

// Factory creates split strategies based on the requested policy.
type Factory struct{}

// NewSplitStrategyFactory creates a new factory instance
func NewSplitStrategyFactory() *Factory {
	return &Factory{}
}

// Create returns the strategy for policy.
func (f *Factory) Create(policy Policy) (Strategy, error) {
	switch policy {
	case PolicyEqual:
		return &EqualStrategy{}, nil
	case PolicyPercentage:
		return &PercentageStrategy{}, nil
	case PolicyExact:
		return &ExactStrategy{}, nil
	default:
		return nil, invalidInput("unknown split policy " + string(policy))
	}
}

// CreateFromString creates a strategy from a request string.
func (f *Factory) CreateFromString(policy string) (Strategy, error) {
	p, err := ParsePolicy(policy)
	if err != nil {
		return nil, err
	}
	return f.Create(p)
}

// checkCommon rejects an empty participant list, a non-positive total and
// repeated user ids.
func checkCommon(total money.Money, inputs []Input) error {
	if len(inputs) == 0 {
		return invalidInput("at least one participant is required")
	}
	if !total.IsPositive() {
		return invalidInput("total amount must be positive")
	}
	seen := make(map[int64]struct{}, len(inputs))
	for _, in := range inputs {
		if _, dup := seen[in.UserID]; dup {
			return invalid("Duplicate users in splits")
		}
		seen[in.UserID] = struct{}{}
	}
	return nil
}

package split

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/splitledger/pkg/money"
)

func m(s string) money.Money { return money.MustParse(s) }

func pct(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func amt(s string) *money.Money {
	v := m(s)
	return &v
}

func amounts(shares []Share) []string {
	out := make([]string, len(shares))
	for i, s := range shares {
		out[i] = s.Amount.String()
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestComputeEqualSplits(t *testing.T) {
	tests := []struct {
		name         string
		total        string
		participants []int64
		want         []string
	}{
		{"three ways with no remainder", "9.99", []int64{1, 2, 3}, []string{"3.33", "3.33", "3.33"}},
		{"last absorbs the extra cent", "10.00", []int64{1, 2, 3}, []string{"3.33", "3.33", "3.34"}},
		{"single participant", "0.01", []int64{7}, []string{"0.01"}},
		{"order decides who absorbs", "10.00", []int64{3, 2, 1}, []string{"3.33", "3.33", "3.34"}},
		{"remainder can be negative", "0.05", []int64{1, 2, 3, 4, 5, 6}, []string{"0.01", "0.01", "0.01", "0.01", "0.01", "0.00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := ComputeEqualSplits(m(tt.total), tt.participants)
			if err != nil {
				t.Fatalf("ComputeEqualSplits() error = %v", err)
			}
			if got := amounts(shares); !equalStrings(got, tt.want) {
				t.Errorf("shares = %v, want %v", got, tt.want)
			}
			for i, s := range shares {
				if s.ParticipantID != tt.participants[i] {
					t.Errorf("share %d participant = %d, want %d", i, s.ParticipantID, tt.participants[i])
				}
			}
		})
	}
}

func TestComputeEqualSplitsSumsExactly(t *testing.T) {
	ids := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	for cents := int64(1); cents <= 2500; cents += 7 {
		total := money.FromCents(cents)
		for n := 1; n <= len(ids); n++ {
			shares, err := ComputeEqualSplits(total, ids[:n])
			if err != nil {
				t.Fatalf("ComputeEqualSplits(%s, %d) error = %v", total, n, err)
			}
			sum := money.Zero
			for _, s := range shares {
				sum = sum.Add(s.Amount)
			}
			if !sum.Equal(total) {
				t.Fatalf("ComputeEqualSplits(%s, %d) sums to %s", total, n, sum)
			}
		}
	}
}

func TestComputeEqualSplitsEmpty(t *testing.T) {
	if _, err := ComputeEqualSplits(m("10"), nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}

func TestConvertPercentagesToAmounts(t *testing.T) {
	tests := []struct {
		name    string
		total   string
		entries []PercentShare
		want    []string
	}{
		{
			name:  "fifty fifty",
			total: "10.00",
			entries: []PercentShare{
				{ParticipantID: 1, Percent: decimal.NewFromInt(50)},
				{ParticipantID: 2, Percent: decimal.NewFromInt(50)},
			},
			want: []string{"5.00", "5.00"},
		},
		{
			name:  "last takes residual",
			total: "10.00",
			entries: []PercentShare{
				{ParticipantID: 1, Percent: decimal.RequireFromString("33.33")},
				{ParticipantID: 2, Percent: decimal.RequireFromString("33.33")},
				{ParticipantID: 3, Percent: decimal.RequireFromString("33.34")},
			},
			want: []string{"3.33", "3.33", "3.34"},
		},
		{
			name:  "uneven",
			total: "87.50",
			entries: []PercentShare{
				{ParticipantID: 1, Percent: decimal.NewFromInt(70)},
				{ParticipantID: 2, Percent: decimal.NewFromInt(30)},
			},
			want: []string{"61.25", "26.25"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := ConvertPercentagesToAmounts(m(tt.total), tt.entries)
			if err != nil {
				t.Fatalf("ConvertPercentagesToAmounts() error = %v", err)
			}
			if got := amounts(shares); !equalStrings(got, tt.want) {
				t.Errorf("shares = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := ConvertPercentagesToAmounts(m("10"), nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty entries error = %v, want ErrInvalidInput", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		shares  []Share
		total   string
		policy  Policy
		wantErr error
		reason  string
	}{
		{
			name:   "equal ok",
			shares: []Share{{1, m("3.33")}, {2, m("3.33")}, {3, m("3.34")}},
			total:  "10.00",
			policy: PolicyEqual,
		},
		{
			name:    "equal mismatch",
			shares:  []Share{{1, m("4.00")}, {2, m("6.00")}},
			total:   "10.00",
			policy:  PolicyEqual,
			wantErr: ErrValidationFailed,
			reason:  "Equal splits must have equal amounts",
		},
		{
			name:   "exact ok within tolerance",
			shares: []Share{{1, m("4.00")}, {2, m("5.99")}},
			total:  "10.00",
			policy: PolicyExact,
		},
		{
			name:    "exact sum mismatch",
			shares:  []Share{{1, m("4.00")}, {2, m("5.00")}},
			total:   "10.00",
			policy:  PolicyExact,
			wantErr: ErrValidationFailed,
			reason:  "Split amounts (9.00) must equal total amount (10.00)",
		},
		{
			name:    "empty",
			total:   "10.00",
			policy:  PolicyExact,
			wantErr: ErrValidationFailed,
			reason:  "At least one split is required",
		},
		{
			name:    "zero share",
			shares:  []Share{{1, m("10.00")}, {2, m("0")}},
			total:   "10.00",
			policy:  PolicyExact,
			wantErr: ErrValidationFailed,
		},
		{
			name:    "negative share",
			shares:  []Share{{1, m("11.00")}, {2, m("-1")}},
			total:   "10.00",
			policy:  PolicyExact,
			wantErr: ErrValidationFailed,
		},
		{
			name:    "unknown policy",
			shares:  []Share{{1, m("10.00")}},
			total:   "10.00",
			policy:  Policy("shares"),
			wantErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.shares, m(tt.total), tt.policy)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if tt.reason != "" && err.Error() != tt.reason {
				t.Errorf("reason = %q, want %q", err.Error(), tt.reason)
			}
		})
	}
}

func TestValidateRejectsDuplicatesForEveryPolicy(t *testing.T) {
	shares := []Share{{1, m("5.00")}, {1, m("5.00")}}
	for _, p := range []Policy{PolicyEqual, PolicyExact, PolicyPercentage} {
		err := Validate(shares, m("10.00"), p)
		if !errors.Is(err, ErrValidationFailed) {
			t.Errorf("%s: error = %v, want ErrValidationFailed", p, err)
		}
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Reason != "Duplicate users in splits" {
			t.Errorf("%s: unexpected reason %v", p, err)
		}
	}
}

func TestValidatePercentages(t *testing.T) {
	tests := []struct {
		name    string
		entries []PercentShare
		wantErr bool
	}{
		{"sums to 100", []PercentShare{{1, decimal.RequireFromString("33.33")}, {2, decimal.RequireFromString("33.33")}, {3, decimal.RequireFromString("33.34")}}, false},
		{"within tolerance", []PercentShare{{1, decimal.RequireFromString("50")}, {2, decimal.RequireFromString("49.995")}}, false},
		{"short of 100", []PercentShare{{1, decimal.NewFromInt(50)}, {2, decimal.NewFromInt(49)}}, true},
		{"over 100", []PercentShare{{1, decimal.NewFromInt(60)}, {2, decimal.NewFromInt(50)}}, true},
		{"zero percent", []PercentShare{{1, decimal.NewFromInt(100)}, {2, decimal.Zero}}, true},
		{"duplicate", []PercentShare{{1, decimal.NewFromInt(50)}, {1, decimal.NewFromInt(50)}}, true},
		{"huge exponent", []PercentShare{{1, decimal.RequireFromString("1e1000000000")}, {2, decimal.NewFromInt(50)}}, true},
		{"tiny exponent", []PercentShare{{1, decimal.NewFromInt(100)}, {2, decimal.RequireFromString("1e-1000000000")}}, true},
		{"empty", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePercentages(tt.entries)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidatePercentages() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidationFailed) {
				t.Errorf("error = %v, want ErrValidationFailed", err)
			}
		})
	}
}

func TestFactory(t *testing.T) {
	f := NewSplitStrategyFactory()

	tests := []struct {
		in   string
		want Policy
	}{
		{"equal", PolicyEqual},
		{"EQUAL", PolicyEqual},
		{"EVEN", PolicyEqual},
		{"Exact", PolicyExact},
		{"percentage", PolicyPercentage},
	}
	for _, tt := range tests {
		s, err := f.CreateFromString(tt.in)
		if err != nil {
			t.Fatalf("CreateFromString(%q) error = %v", tt.in, err)
		}
		if s.Type() != tt.want {
			t.Errorf("CreateFromString(%q).Type() = %s, want %s", tt.in, s.Type(), tt.want)
		}
	}

	if _, err := f.CreateFromString("shares"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("unknown policy error = %v, want ErrInvalidInput", err)
	}
}

func TestStrategies(t *testing.T) {
	f := NewSplitStrategyFactory()

	tests := []struct {
		name    string
		policy  Policy
		total   string
		inputs  []Input
		want    []string
		wantErr error
	}{
		{
			name:   "equal includes the payer",
			policy: PolicyEqual,
			total:  "30.00",
			inputs: []Input{{UserID: 1}, {UserID: 2}, {UserID: 3}},
			want:   []string{"10.00", "10.00", "10.00"},
		},
		{
			name:    "equal with duplicate user",
			policy:  PolicyEqual,
			total:   "30.00",
			inputs:  []Input{{UserID: 1}, {UserID: 1}},
			wantErr: ErrValidationFailed,
		},
		{
			name:    "equal with drift beyond a cent",
			policy:  PolicyEqual,
			total:   "1.00",
			inputs:  []Input{{UserID: 1}, {UserID: 2}, {UserID: 3}, {UserID: 4}, {UserID: 5}, {UserID: 6}, {UserID: 7}},
			wantErr: ErrValidationFailed,
		},
		{
			name:    "no participants",
			policy:  PolicyEqual,
			total:   "30.00",
			wantErr: ErrInvalidInput,
		},
		{
			name:    "zero total",
			policy:  PolicyEqual,
			total:   "0",
			inputs:  []Input{{UserID: 1}},
			wantErr: ErrInvalidInput,
		},
		{
			name:   "exact",
			policy: PolicyExact,
			total:  "25.00",
			inputs: []Input{{UserID: 1, Amount: amt("5")}, {UserID: 2, Amount: amt("20")}},
			want:   []string{"5.00", "20.00"},
		},
		{
			name:    "exact missing amount",
			policy:  PolicyExact,
			total:   "25.00",
			inputs:  []Input{{UserID: 1, Amount: amt("5")}, {UserID: 2}},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "exact does not add up",
			policy:  PolicyExact,
			total:   "25.00",
			inputs:  []Input{{UserID: 1, Amount: amt("5")}, {UserID: 2, Amount: amt("19")}},
			wantErr: ErrValidationFailed,
		},
		{
			name:   "percentage",
			policy: PolicyPercentage,
			total:  "10.00",
			inputs: []Input{{UserID: 1, Percentage: pct("50")}, {UserID: 2, Percentage: pct("50")}},
			want:   []string{"5.00", "5.00"},
		},
		{
			name:    "percentage not summing to 100",
			policy:  PolicyPercentage,
			total:   "10.00",
			inputs:  []Input{{UserID: 1, Percentage: pct("60")}, {UserID: 2, Percentage: pct("30")}},
			wantErr: ErrValidationFailed,
		},
		{
			name:    "percentage with huge exponent",
			policy:  PolicyPercentage,
			total:   "10.00",
			inputs:  []Input{{UserID: 1, Percentage: pct("1e1000000000")}, {UserID: 2, Percentage: pct("-1e1000000000")}},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "percentage missing value",
			policy:  PolicyPercentage,
			total:   "10.00",
			inputs:  []Input{{UserID: 1, Percentage: pct("100")}, {UserID: 2}},
			wantErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := f.Create(tt.policy)
			if err != nil {
				t.Fatalf("Create(%s) error = %v", tt.policy, err)
			}
			shares, err := s.Calculate(m(tt.total), tt.inputs)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Calculate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Calculate() error = %v", err)
			}
			if got := amounts(shares); !equalStrings(got, tt.want) {
				t.Errorf("shares = %v, want %v", got, tt.want)
			}
		})
	}
}

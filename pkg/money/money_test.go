package money

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseRoundsHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10", "10.00"},
		{"0.005", "0.01"},
		{"-0.005", "-0.01"},
		{"2.675", "2.68"},
		{"-2.675", "-2.68"},
		{"33.333333", "33.33"},
		{"0.004", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.in, err)
			}
			if got.String() != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse("abc"); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "9999999999.99", want: "9999999999.99"},
		{in: "-9999999999.99", want: "-9999999999.99"},
		{in: "1e3", want: "1000.00"},
		{in: "0.001", want: "0.00"},
		{in: "0e1000000000", want: "0.00"},
		{in: "10000000000", wantErr: true},
		{in: "9999999999.995", wantErr: true},
		{in: "1e10", wantErr: true},
		{in: "1e1000000000", wantErr: true},
		{in: "-1e1000000000", wantErr: true},
		{in: "1e-1000000000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalid) || !errors.Is(err, ErrOutOfRange) {
					t.Fatalf("Parse(%q) error = %v, want ErrInvalid and ErrOutOfRange", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.in, err)
			}
			if got.String() != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestUnmarshalRejectsHugeExponent(t *testing.T) {
	var m Money
	start := time.Now()
	if err := json.Unmarshal([]byte(`1e1000000000`), &m); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("error = %v, want ErrOutOfRange", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("rejecting took %s", elapsed)
	}
}

func TestArithmeticStaysAtTwoPlaces(t *testing.T) {
	total := Zero
	for i := 0; i < 10; i++ {
		total = total.Add(MustParse("0.10"))
	}
	if !total.Equal(MustParse("1.00")) {
		t.Errorf("ten dimes = %s, want 1.00", total)
	}

	if got := MustParse("100").DivInt(3); got.String() != "33.33" {
		t.Errorf("100/3 = %s, want 33.33", got)
	}
	if got := MustParse("0.05").DivInt(2); got.String() != "0.03" {
		t.Errorf("0.05/2 = %s, want 0.03", got)
	}
	if got := MustParse("10").Percent(decimal.NewFromFloat(33.33)); got.String() != "3.33" {
		t.Errorf("33.33%% of 10 = %s, want 3.33", got)
	}
	if got := MustParse("1.5").Mul(3); got.String() != "4.50" {
		t.Errorf("1.5*3 = %s, want 4.50", got)
	}
	if got := Sum(MustParse("1"), MustParse("2.5"), MustParse("-0.5")); got.String() != "3.00" {
		t.Errorf("Sum = %s, want 3.00", got)
	}
	if got := Min(MustParse("4"), MustParse("3")); got.String() != "3.00" {
		t.Errorf("Min = %s, want 3.00", got)
	}
}

func TestWithinTolerance(t *testing.T) {
	share := MustParse("33.33")
	exact := decimal.NewFromInt(100).Div(decimal.NewFromInt(3))
	if !share.WithinTolerance(exact) {
		t.Errorf("33.33 should be within tolerance of 100/3")
	}
	if MustParse("33.35").WithinTolerance(exact) {
		t.Errorf("33.35 should not be within tolerance of 100/3")
	}
}

func TestJSON(t *testing.T) {
	type payload struct {
		Amount Money `json:"amount"`
	}

	out, err := json.Marshal(payload{Amount: MustParse("10")})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(out) != `{"amount":10.00}` {
		t.Errorf("Marshal = %s", out)
	}

	for _, in := range []string{`{"amount":12.345}`, `{"amount":"12.345"}`} {
		var p payload
		if err := json.Unmarshal([]byte(in), &p); err != nil {
			t.Fatalf("Unmarshal(%s) failed: %v", in, err)
		}
		if p.Amount.String() != "12.35" {
			t.Errorf("Unmarshal(%s) = %s, want 12.35", in, p.Amount)
		}
	}

	var p payload
	if err := json.Unmarshal([]byte(`{"amount":"ten"}`), &p); err == nil {
		t.Error("expected error for non-numeric amount")
	}
}

func TestScanAndValue(t *testing.T) {
	var m Money
	if err := m.Scan([]byte("42.5")); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if m.String() != "42.50" {
		t.Errorf("Scan = %s, want 42.50", m)
	}

	v, err := m.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v != "42.50" {
		t.Errorf("Value = %v, want 42.50", v)
	}
}

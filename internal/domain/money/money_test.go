package money

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Amount
		wantErr bool
	}{
		{"200", 20000, false},
		{"200.5", 20050, false},
		{"200.50", 20050, false},
		{"0.01", 1, false},
		{".5", 50, false},
		{"-12.25", -1225, false},
		{"1.230", 123, false},
		{"1.234", 0, true},
		{"", 0, true},
		{"abc", 0, true},
		{"1.2.3", 0, true},
		{"99999999.99", MaxAmount, false},
		{"92233720368547758.07", math.MaxInt64, false},
		{"92233720368547758.08", 0, true},
		{"92233720368547759", 0, true},
		{"-92233720368547758.07", -math.MaxInt64, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) expected error, got %d", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	if got := FromCents(-5).String(); got != "-0.05" {
		t.Errorf("got %q, want -0.05", got)
	}
	if got := FromUnits(250).String(); got != "250.00" {
		t.Errorf("got %q, want 250.00", got)
	}
}

func TestJSON(t *testing.T) {
	var v struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a": 199.99, "b": "50"}`), &v); err != nil {
		t.Fatal(err)
	}
	if v.A != 19999 || v.B != 5000 {
		t.Fatalf("got a=%d b=%d", v.A, v.B)
	}

	out, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"a":199.99,"b":50.00}` {
		t.Fatalf("unexpected encoding %s", out)
	}
}

func TestJSONRejectsSubCent(t *testing.T) {
	var a Amount
	if err := json.Unmarshal([]byte(`10.005`), &a); err == nil {
		t.Fatal("expected precision error")
	}
}

func TestJSONOverflowIsRejected(t *testing.T) {
	var v struct {
		A Amount `json:"total_amount"`
	}
	err := json.Unmarshal([]byte(`{"total_amount":"92233720368547759"}`), &v)
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v (amount %s)", err, v.A)
	}
}

func TestAddSub(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Amount
		op      func(a, b Amount) (Amount, error)
		want    Amount
		wantErr bool
	}{
		{"add", 150, 250, Add, 400, false},
		{"add negative", 150, -250, Add, -100, false},
		{"add at max", math.MaxInt64 - 1, 1, Add, math.MaxInt64, false},
		{"add past max", math.MaxInt64, 1, Add, 0, true},
		{"add past min", math.MinInt64, -1, Add, 0, true},
		{"sub", 100, 250, Sub, -150, false},
		{"sub past min", math.MinInt64 + 1, 2, Sub, 0, true},
		{"sub past max", math.MaxInt64, -1, Sub, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op(tt.a, tt.b)
			if tt.wantErr {
				if !errors.Is(err, ErrOverflow) {
					t.Fatalf("expected ErrOverflow, got %d, %v", got, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("got %d, %v; want %d", got, err, tt.want)
			}
		})
	}
}

func TestSum(t *testing.T) {
	got, err := Sum(MaxAmount, MaxAmount, MaxAmount)
	if err != nil || got != 3*MaxAmount {
		t.Fatalf("Sum = %s, %v", got, err)
	}
	if _, err := Sum(math.MaxInt64/2+1, math.MaxInt64/2+1); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

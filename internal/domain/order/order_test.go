package order

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/Strob0t/CaterTrack/internal/domain/money"
)

func ev(units int64) Event     { return Event{Amount: money.FromUnits(units)} }
func pay(units int64) Payment { return Payment{Amount: money.FromUnits(units)} }

func TestFold(t *testing.T) {
	tests := []struct {
		name     string
		events   []Event
		payments []Payment
		want     Totals
		state    State
	}{
		{
			name:  "empty order",
			want:  Totals{PaidStatus: StatusPaid},
			state: StateCreated,
		},
		{
			name:   "priced",
			events: []Event{ev(200)},
			want:   Totals{GrandTotal: 20000, Due: 20000, PaidStatus: StatusUnpaid, EventCount: 1},
			state:  StatePriced,
		},
		{
			name:     "partially paid",
			events:   []Event{ev(200), ev(100)},
			payments: []Payment{pay(50)},
			want:     Totals{GrandTotal: 30000, PaidTillNow: 5000, Due: 25000, PaidStatus: StatusUnpaid, EventCount: 2, PaymentCount: 1},
			state:    StateUnpaid,
		},
		{
			name:     "exactly paid",
			events:   []Event{ev(200)},
			payments: []Payment{pay(200)},
			want:     Totals{GrandTotal: 20000, PaidTillNow: 20000, Due: 0, PaidStatus: StatusPaid, EventCount: 1, PaymentCount: 1},
			state:    StatePaid,
		},
		{
			name:     "overpaid without events",
			payments: []Payment{pay(200), pay(50)},
			want:     Totals{PaidTillNow: 25000, Due: -25000, PaidStatus: StatusPaid, PaymentCount: 2},
			state:    StatePaid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Fold(tt.events, tt.payments)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("Fold = %+v, want %+v", got, tt.want)
			}
			if !got.Consistent() {
				t.Fatalf("snapshot %+v is not consistent", got)
			}
			if s := got.State(); s != tt.state {
				t.Fatalf("State = %s, want %s", s, tt.state)
			}
		})
	}
}

func TestFold_Idempotent(t *testing.T) {
	events := []Event{ev(120), ev(80)}
	payments := []Payment{pay(75)}
	first, err1 := Fold(events, payments)
	second, err2 := Fold(events, payments)
	if err1 != nil || err2 != nil || first != second {
		t.Fatal("fold over identical inputs must be identical")
	}
}

func TestFold_Overflow(t *testing.T) {
	huge := Event{Amount: money.FromUnits(50_000_000_000_000_000)}
	_, err := Fold([]Event{huge, huge}, nil)
	if !errors.Is(err, ErrTotalOverflow) {
		t.Fatalf("expected ErrTotalOverflow for grand_total, got %v", err)
	}

	hugePay := Payment{Amount: huge.Amount}
	_, err = Fold(nil, []Payment{hugePay, hugePay})
	if !errors.Is(err, ErrTotalOverflow) {
		t.Fatalf("expected ErrTotalOverflow for paid_till_now, got %v", err)
	}

	// each sum fits, their difference does not
	_, err = Fold([]Event{{Amount: math.MaxInt64}}, []Payment{{Amount: -1}})
	if !errors.Is(err, ErrTotalOverflow) {
		t.Fatalf("expected ErrTotalOverflow for due, got %v", err)
	}

	capped := make([]Event, 10)
	for i := range capped {
		capped[i].Amount = money.MaxAmount
	}
	got, err := Fold(capped, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.GrandTotal != 10*money.MaxAmount || got.PaidStatus != StatusUnpaid || !got.Consistent() {
		t.Fatalf("unexpected totals %+v", got)
	}
}

func TestTotals_Consistent(t *testing.T) {
	bad := Totals{GrandTotal: 100, PaidTillNow: 0, Due: 100, PaidStatus: StatusPaid}
	if bad.Consistent() {
		t.Fatal("PAID with positive due must be inconsistent")
	}
}

func TestEventInput_Validate(t *testing.T) {
	valid := EventInput{EventType: "lunch", EventDate: time.Now(), Amount: 0}
	if err := valid.Validate(); err != nil {
		t.Fatalf("zero amount must be accepted: %v", err)
	}

	neg := valid
	neg.Amount = -1
	if err := neg.Validate(); err == nil {
		t.Fatal("negative amount must be rejected")
	}

	top := valid
	top.Amount = money.MaxAmount
	if err := top.Validate(); err != nil {
		t.Fatalf("largest amount must be accepted: %v", err)
	}
	top.Amount++
	if err := top.Validate(); err == nil {
		t.Fatal("amount above the cap must be rejected")
	}

	err := ValidateEvents([]EventInput{valid, {EventDate: time.Now()}})
	if err == nil || !strings.HasPrefix(err.Error(), "events[1]") {
		t.Fatalf("expected indexed error, got %v", err)
	}
}

func TestEventUpdate(t *testing.T) {
	var empty EventUpdate
	if err := empty.Validate(); err == nil || err.Error() != "no fields to update" {
		t.Fatalf("expected empty update error, got %v", err)
	}

	amt := money.FromUnits(90)
	venue := "Hall B"
	u := EventUpdate{Amount: &amt, Venue: &venue}
	if err := u.Validate(); err != nil {
		t.Fatal(err)
	}

	over := money.MaxAmount + 1
	if err := (&EventUpdate{Amount: &over}).Validate(); err == nil {
		t.Fatal("amount above the cap must be rejected")
	}

	e := Event{EventType: "dinner", Venue: "Hall A", Amount: money.FromUnits(10)}
	now := time.Now()
	u.Apply(&e, now)
	if e.Amount != amt || e.Venue != "Hall B" || e.EventType != "dinner" || !e.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected event after apply: %+v", e)
	}
}

func TestPaymentInput_Validate(t *testing.T) {
	for _, amt := range []money.Amount{0, -100, money.MaxAmount + 1} {
		in := PaymentInput{Amount: amt, Type: "cash"}
		if err := in.Validate(); err == nil {
			t.Fatalf("amount %s must be rejected", amt)
		}
	}
	for _, amt := range []money.Amount{1, money.MaxAmount} {
		in := PaymentInput{Amount: amt, Type: "upi"}
		if err := in.Validate(); err != nil {
			t.Fatalf("amount %s: %v", amt, err)
		}
	}
}

func TestDetailJSON(t *testing.T) {
	totals, err := Fold(nil, []Payment{pay(10)})
	if err != nil {
		t.Fatal(err)
	}
	o := Order{ID: "o1", CustomerID: "c1", Totals: totals}
	data, err := json.Marshal(NewDetail(o, nil, nil))
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m["overpaid"] != true || m["paid_status"] != "PAID" || m["due"] != -10.0 {
		t.Fatalf("unexpected detail json: %s", data)
	}
	if evs, ok := m["events"].([]any); !ok || len(evs) != 0 {
		t.Fatalf("events must encode as empty list: %s", data)
	}
}

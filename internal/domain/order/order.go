// Package order defines orders, their billable events and the payments made against them.
//
// An order's aggregate fields are always derived from its events and payments
// through Fold; nothing else writes them.
package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/Strob0t/CaterTrack/internal/domain/customer"
	"github.com/Strob0t/CaterTrack/internal/domain/money"
)

// PaidStatus is PAID exactly when nothing is due.
type PaidStatus string

const (
	StatusPaid   PaidStatus = "PAID"
	StatusUnpaid PaidStatus = "UNPAID"
)

// State is the lifecycle position of an order, derived from its counts and totals.
type State string

const (
	StateCreated State = "CREATED" // no events, no payments
	StatePriced  State = "PRICED"  // amount outstanding, no payment recorded
	StateUnpaid  State = "UNPAID"  // amount outstanding, at least one payment recorded
	StatePaid    State = "PAID"    // nothing outstanding
)

// Totals is the derived aggregate snapshot of an order.
type Totals struct {
	GrandTotal   money.Amount `json:"grand_total"`
	PaidTillNow  money.Amount `json:"paid_till_now"`
	Due          money.Amount `json:"due"`
	PaidStatus   PaidStatus   `json:"paid_status"`
	EventCount   int          `json:"event_count"`
	PaymentCount int          `json:"payment_count"`
}

// Order is the authoritative relational record of an order.
type Order struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"-"`
	CustomerID string    `json:"customer_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Totals
}

// ErrTotalOverflow is returned by Fold when a sum does not fit in an Amount.
var ErrTotalOverflow = errors.New("order totals out of range")

// NewTotals is the snapshot of an order with no events and no payments.
func NewTotals() Totals { return Totals{PaidStatus: StatusPaid} }

// Fold derives the aggregate snapshot from the full set of an order's events and payments.
// Due is signed: an overpaid order carries a negative due and stays PAID.
// Sums that leave the Amount range fail with ErrTotalOverflow.
func Fold(events []Event, payments []Payment) (Totals, error) {
	var (
		t   Totals
		err error
	)
	for i := range events {
		if t.GrandTotal, err = money.Add(t.GrandTotal, events[i].Amount); err != nil {
			return Totals{}, fmt.Errorf("%w: grand_total", ErrTotalOverflow)
		}
	}
	for i := range payments {
		if t.PaidTillNow, err = money.Add(t.PaidTillNow, payments[i].Amount); err != nil {
			return Totals{}, fmt.Errorf("%w: paid_till_now", ErrTotalOverflow)
		}
	}
	if t.Due, err = money.Sub(t.GrandTotal, t.PaidTillNow); err != nil {
		return Totals{}, fmt.Errorf("%w: due", ErrTotalOverflow)
	}
	t.PaidStatus = StatusUnpaid
	if t.Due <= 0 {
		t.PaidStatus = StatusPaid
	}
	t.EventCount = len(events)
	t.PaymentCount = len(payments)
	return t, nil
}

// Overpaid reports whether more has been paid than billed.
func (t Totals) Overpaid() bool { return t.Due.IsNegative() }

// State derives the lifecycle position.
func (t Totals) State() State {
	switch {
	case t.EventCount == 0 && t.PaymentCount == 0:
		return StateCreated
	case t.PaidStatus == StatusPaid:
		return StatePaid
	case t.PaymentCount == 0:
		return StatePriced
	default:
		return StateUnpaid
	}
}

// Consistent reports whether the snapshot obeys the aggregate rules on its own fields.
func (t Totals) Consistent() bool {
	if t.Due != t.GrandTotal-t.PaidTillNow {
		return false
	}
	return (t.PaidStatus == StatusPaid) == (t.Due <= 0)
}

// Detail is the API view of an order with its customer and events.
type Detail struct {
	Order
	Customer *customer.Customer `json:"customer,omitempty"`
	Events   []Event            `json:"events"`
	Overpaid bool               `json:"overpaid"`
	State    State              `json:"state"`
}

// NewDetail assembles the API view.
func NewDetail(o Order, c *customer.Customer, events []Event) Detail {
	if events == nil {
		events = []Event{}
	}
	return Detail{
		Order:    o,
		Customer: c,
		Events:   events,
		Overpaid: o.Overpaid(),
		State:    o.State(),
	}
}

// CreateRequest places an order for an existing customer.
type CreateRequest struct {
	CustomerID string       `json:"customer_id"`
	Events     []EventInput `json:"events"`
}

// Validate checks the request and every initial event.
func (r *CreateRequest) Validate() error {
	if r.CustomerID == "" {
		return errors.New("customer_id is required")
	}
	return ValidateEvents(r.Events)
}

// CreateWithCustomerRequest places an order keyed by customer phone,
// creating the customer when the phone is unknown.
type CreateWithCustomerRequest struct {
	Phone  string       `json:"phone"`
	Name   string       `json:"name,omitempty"`
	Email  string       `json:"email,omitempty"`
	Events []EventInput `json:"events"`
}

// Validate checks the request and every initial event.
func (r *CreateWithCustomerRequest) Validate() error {
	if r.Phone == "" {
		return errors.New("phone is required")
	}
	return ValidateEvents(r.Events)
}

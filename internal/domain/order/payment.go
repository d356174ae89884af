package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Strob0t/CaterTrack/internal/domain/money"
)

// Payment is an append-only record of money received against an order.
type Payment struct {
	ID        string       `json:"id"`
	OrderID   string       `json:"order_id"`
	TenantID  string       `json:"-"`
	Amount    money.Amount `json:"amount"`
	PaidAt    time.Time    `json:"datetime"`
	Type      string       `json:"type"`
	Notes     string       `json:"notes,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// PaymentInput is the payload for recording a payment.
type PaymentInput struct {
	Amount money.Amount `json:"amount"`
	PaidAt time.Time    `json:"datetime"`
	Type   string       `json:"type"`
	Notes  string       `json:"notes,omitempty"`
}

// Validate checks the payment payload.
func (in *PaymentInput) Validate() error {
	if !in.Amount.IsPositive() {
		return errors.New("amount must be > 0")
	}
	if in.Amount > money.MaxAmount {
		return fmt.Errorf("amount must be <= %s", money.MaxAmount)
	}
	if strings.TrimSpace(in.Type) == "" {
		return errors.New("type is required")
	}
	return nil
}

// NewPayment materializes an input into a stored payment. A zero PaidAt defaults to now.
func NewPayment(id, tenantID, orderID string, in PaymentInput, now time.Time) Payment {
	paidAt := in.PaidAt
	if paidAt.IsZero() {
		paidAt = now
	}
	return Payment{
		ID:        id,
		OrderID:   orderID,
		TenantID:  tenantID,
		Amount:    in.Amount,
		PaidAt:    paidAt.UTC(),
		Type:      strings.TrimSpace(in.Type),
		Notes:     in.Notes,
		CreatedAt: now,
	}
}

package messagequeue

import "time"

// OrderUpdatedPayload is the schema for orders.updated messages.
type OrderUpdatedPayload struct {
	TenantID     string    `json:"tenant_id"`
	OrderID      string    `json:"order_id"`
	Cause        string    `json:"cause"` // event.added, event.updated, event.deleted, payment.added, order.created, recompute
	GrandTotal   string    `json:"grand_total"`
	PaidTillNow  string    `json:"paid_till_now"`
	Due          string    `json:"due"`
	PaidStatus   string    `json:"paid_status"`
	EventCount   int       `json:"event_count"`
	PaymentCount int       `json:"payment_count"`
	At           time.Time `json:"at"`
}

// EmailPayload is the schema for notify.email messages.
type EmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Kind    string `json:"kind"` // invite, password_reset
}

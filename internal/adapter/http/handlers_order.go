package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/CaterTrack/internal/domain/order"
)

// orderSummary is the aggregate view returned after a mutation.
type orderSummary struct {
	order.Order
	Overpaid bool        `json:"overpaid"`
	State    order.State `json:"state"`
}

func summarize(o *order.Order) orderSummary {
	return orderSummary{Order: *o, Overpaid: o.Overpaid(), State: o.State()}
}

type eventsResponse struct {
	Events []order.Event `json:"events"`
	Order  orderSummary  `json:"order"`
}

type eventResponse struct {
	Event *order.Event `json:"event"`
	Order orderSummary `json:"order"`
}

type paymentResponse struct {
	Payment *order.Payment `json:"payment"`
	Order   orderSummary   `json:"order"`
}

// ListOrders handles GET /api/v1/caterers/{cid}/orders
func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	handleList(h.Orders.List)(w, r)
}

// GetOrder handles GET /api/v1/caterers/{cid}/orders/{id}
func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Orders.Get, "order not found")(w, r)
}

// CreateOrder handles POST /api/v1/caterers/{cid}/orders
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.Limits.BodyLimit, h.Orders.Create, "customer not found")(w, r)
}

// CreateOrderWithCustomer handles POST /api/v1/caterers/{cid}/orders/with-customer
func (h *Handlers) CreateOrderWithCustomer(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.Limits.BodyLimit, h.Orders.CreateWithCustomer, "not found")(w, r)
}

// AddEvents handles POST /api/v1/caterers/{cid}/orders/{id}/events.
// The body is a JSON array of events.
func (h *Handlers) AddEvents(w http.ResponseWriter, r *http.Request) {
	in, ok := readJSON[[]order.EventInput](w, r, h.Limits.BodyLimit)
	if !ok {
		return
	}
	events, o, err := h.Ledger.AddEvents(r.Context(), tenantID(r), chi.URLParam(r, "id"), in)
	if err != nil {
		writeDomainError(w, err, "order not found")
		return
	}
	writeJSON(w, http.StatusCreated, eventsResponse{Events: events, Order: summarize(o)})
}

// UpdateEvent handles PUT /api/v1/caterers/{cid}/orders/{id}/events/{eid}
func (h *Handlers) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	upd, ok := readJSON[order.EventUpdate](w, r, h.Limits.BodyLimit)
	if !ok {
		return
	}
	e, o, err := h.Ledger.UpdateEvent(r.Context(), tenantID(r), chi.URLParam(r, "id"), chi.URLParam(r, "eid"), &upd)
	if err != nil {
		writeDomainError(w, err, "order or event not found")
		return
	}
	writeJSON(w, http.StatusOK, eventResponse{Event: e, Order: summarize(o)})
}

// DeleteEvent handles DELETE /api/v1/caterers/{cid}/orders/{id}/events/{eid}
func (h *Handlers) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Ledger.DeleteEvent(r.Context(), tenantID(r), chi.URLParam(r, "id"), chi.URLParam(r, "eid")); err != nil {
		writeDomainError(w, err, "order or event not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListPayments handles GET /api/v1/caterers/{cid}/orders/{id}/payments
func (h *Handlers) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Ledger.ListPayments(r.Context(), tenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "order not found")
		return
	}
	if payments == nil {
		payments = []order.Payment{}
	}
	writeJSON(w, http.StatusOK, payments)
}

// AddPayment handles POST /api/v1/caterers/{cid}/orders/{id}/payments
func (h *Handlers) AddPayment(w http.ResponseWriter, r *http.Request) {
	in, ok := readJSON[order.PaymentInput](w, r, h.Limits.BodyLimit)
	if !ok {
		return
	}
	p, o, err := h.Ledger.AddPayment(r.Context(), tenantID(r), chi.URLParam(r, "id"), &in)
	if err != nil {
		writeDomainError(w, err, "order not found")
		return
	}
	writeJSON(w, http.StatusCreated, paymentResponse{Payment: p, Order: summarize(o)})
}

// RecomputeOrder handles POST /api/v1/caterers/{cid}/orders/{id}/recompute.
// It refolds the order from its events and payments, repairing a snapshot
// left stale by a failed commit.
func (h *Handlers) RecomputeOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Ledger.Recompute(r.Context(), tenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, summarize(o))
}

package http

import (
	"net/http"

	"github.com/Strob0t/CaterTrack/internal/domain/customer"
)

// ListCustomers handles GET /api/v1/caterers/{cid}/customers
func (h *Handlers) ListCustomers(w http.ResponseWriter, r *http.Request) {
	q := customer.ListQuery{
		SortBy:  r.URL.Query().Get("sort_by"),
		SortDir: r.URL.Query().Get("sort_dir"),
	}
	var err error
	if q.Skip, err = queryInt(r, "skip"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if q.Limit, err = queryInt(r, "limit"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.Customers.List(r.Context(), tenantID(r), q)
	if err != nil {
		writeDomainError(w, err, "not found")
		return
	}
	if list == nil {
		list = []customer.Customer{}
	}
	writeJSON(w, http.StatusOK, list)
}

// SearchCustomer handles GET /api/v1/caterers/{cid}/customers/search?phone=
func (h *Handlers) SearchCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.Customers.FindByPhone(r.Context(), tenantID(r), r.URL.Query().Get("phone"))
	if err != nil {
		writeDomainError(w, err, "customer not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// GetCustomer handles GET /api/v1/caterers/{cid}/customers/{id}
func (h *Handlers) GetCustomer(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Customers.Get, "customer not found")(w, r)
}

// CreateCustomer handles POST /api/v1/caterers/{cid}/customers
func (h *Handlers) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.Limits.BodyLimit, h.Customers.Create, "not found")(w, r)
}

// UpdateCustomer handles PUT /api/v1/caterers/{cid}/customers/{id}
func (h *Handlers) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.Limits.BodyLimit, h.Customers.Update, "customer not found")(w, r)
}

// DeleteCustomer handles DELETE /api/v1/caterers/{cid}/customers/{id}
func (h *Handlers) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Customers.Delete, "customer not found")(w, r)
}

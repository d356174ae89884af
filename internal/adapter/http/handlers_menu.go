package http

import (
	"errors"
	"net/http"

	"github.com/Strob0t/CaterTrack/internal/domain/menu"
	"github.com/Strob0t/CaterTrack/internal/service"
)

const importFormField = "file"

// ListCategories handles GET /api/v1/caterers/{cid}/menu/categories
func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	handleList(h.Menu.ListCategories)(w, r)
}

// CreateCategory handles POST /api/v1/caterers/{cid}/menu/categories
func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.Limits.BodyLimit, h.Menu.CreateCategory, "not found")(w, r)
}

// DeleteCategory handles DELETE /api/v1/caterers/{cid}/menu/categories/{id}.
// Items of the category are removed with it.
func (h *Handlers) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Menu.DeleteCategory, "category not found")(w, r)
}

// ListItems handles GET /api/v1/caterers/{cid}/menu/items[?category_id=]
func (h *Handlers) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Menu.ListItems(r.Context(), tenantID(r), r.URL.Query().Get("category_id"))
	if err != nil {
		writeDomainError(w, err, "category not found")
		return
	}
	if items == nil {
		items = []menu.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

// CreateItem handles POST /api/v1/caterers/{cid}/menu/items
func (h *Handlers) CreateItem(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.Limits.BodyLimit, h.Menu.CreateItem, "category not found")(w, r)
}

// DeleteItem handles DELETE /api/v1/caterers/{cid}/menu/items/{id}
func (h *Handlers) DeleteItem(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Menu.DeleteItem, "item not found")(w, r)
}

// ListPackages handles GET /api/v1/caterers/{cid}/menu/packages
func (h *Handlers) ListPackages(w http.ResponseWriter, r *http.Request) {
	handleList(h.Menu.ListPackages)(w, r)
}

// CreatePackage handles POST /api/v1/caterers/{cid}/menu/packages
func (h *Handlers) CreatePackage(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.Limits.BodyLimit, h.Menu.CreatePackage, "not found")(w, r)
}

// FullMenu handles GET /api/v1/caterers/{cid}/menu/full
func (h *Handlers) FullMenu(w http.ResponseWriter, r *http.Request) {
	handleList(h.Menu.FullMenu)(w, r)
}

// ImportMenu handles POST /api/v1/caterers/{cid}/menu/import. The CSV is
// sent as the multipart field "file", or as the raw body with
// Content-Type text/csv.
func (h *Handlers) ImportMenu(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.Limits.UploadLimit)

	src := r.Body
	if r.Header.Get("Content-Type") != "text/csv" {
		f, _, err := r.FormFile(importFormField)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
				return
			}
			writeError(w, http.StatusBadRequest, "multipart field \"file\" with a CSV is required")
			return
		}
		defer func() { _ = f.Close() }()
		src = f
	}

	rows, err := service.ParseMenuCSV(src)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeDomainError(w, err, "not found")
		return
	}
	res, err := h.Menu.ImportMenu(r.Context(), tenantID(r), rows)
	if err != nil {
		writeDomainError(w, err, "not found")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

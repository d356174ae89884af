// Package customer defines the customer directory of a caterer.
package customer

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Customer is a client of one caterer. Phone numbers are unique per caterer.
type Customer struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"-"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultName is used when an order is placed for an unknown phone number without a name.
const DefaultName = "Unnamed"

// CreateRequest is the input for adding a customer.
type CreateRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Phone == "" {
		return errors.New("phone is required")
	}
	return validateOptionalEmail(r.Email)
}

// UpdateRequest is a partial update; nil fields are left unchanged.
type UpdateRequest struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
	Email *string `json:"email,omitempty"`
}

// Validate rejects updates that would blank required fields.
func (r *UpdateRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return errors.New("name must not be empty")
	}
	if r.Phone != nil && strings.TrimSpace(*r.Phone) == "" {
		return errors.New("phone must not be empty")
	}
	if r.Email != nil {
		return validateOptionalEmail(*r.Email)
	}
	return nil
}

// Apply copies the non-nil fields of r onto c.
func (r *UpdateRequest) Apply(c *Customer) {
	if r.Name != nil {
		c.Name = strings.TrimSpace(*r.Name)
	}
	if r.Phone != nil {
		c.Phone = strings.TrimSpace(*r.Phone)
	}
	if r.Email != nil {
		c.Email = *r.Email
	}
}

// Sort columns accepted by ListQuery.
const (
	SortByName      = "name"
	SortByCreatedAt = "created_at"
)

// Paging bounds for ListQuery.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ListQuery controls pagination and ordering of customer listings.
type ListQuery struct {
	Skip    int    `json:"skip"`
	Limit   int    `json:"limit"`
	SortBy  string `json:"sort_by"`
	SortDir string `json:"sort_dir"`
}

// Normalize fills defaults and validates bounds.
func (q *ListQuery) Normalize() error {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.SortBy == "" {
		q.SortBy = SortByName
	}
	if q.SortDir == "" {
		q.SortDir = "asc"
	}
	if q.Skip < 0 {
		return errors.New("skip must be >= 0")
	}
	if q.Limit < 1 || q.Limit > MaxLimit {
		return fmt.Errorf("limit must be between 1 and %d", MaxLimit)
	}
	if q.SortBy != SortByName && q.SortBy != SortByCreatedAt {
		return errors.New("sort_by must be name or created_at")
	}
	if q.SortDir != "asc" && q.SortDir != "desc" {
		return errors.New("sort_dir must be asc or desc")
	}
	return nil
}

func validateOptionalEmail(email string) error {
	if email == "" {
		return nil
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("invalid email format")
	}
	return nil
}

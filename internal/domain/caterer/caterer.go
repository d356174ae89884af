// Package caterer defines the tenant model. Every other entity belongs to exactly one caterer.
package caterer

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// Caterer is a tenant of the system.
type Caterer struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Contact         string    `json:"contact"`
	Address         string    `json:"address,omitempty"`
	City            string    `json:"city,omitempty"`
	State           string    `json:"state,omitempty"`
	PostalCode      string    `json:"postal_code,omitempty"`
	Description     string    `json:"description,omitempty"`
	ProfileImageURL string    `json:"profile_image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// UpdateRequest carries a partial profile update. Nil fields are left unchanged.
type UpdateRequest struct {
	Name            *string `json:"name,omitempty"`
	Contact         *string `json:"contact,omitempty"`
	Address         *string `json:"address,omitempty"`
	City            *string `json:"city,omitempty"`
	State           *string `json:"state,omitempty"`
	PostalCode      *string `json:"postal_code,omitempty"`
	Description     *string `json:"description,omitempty"`
	ProfileImageURL *string `json:"profile_image_url,omitempty"`
}

// Validate rejects updates that would blank required fields.
func (r *UpdateRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return errors.New("name must not be empty")
	}
	if r.Contact != nil && strings.TrimSpace(*r.Contact) == "" {
		return errors.New("contact must not be empty")
	}
	return nil
}

// Apply copies the non-nil fields of r onto c.
func (r *UpdateRequest) Apply(c *Caterer) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&c.Name, r.Name)
	set(&c.Contact, r.Contact)
	set(&c.Address, r.Address)
	set(&c.City, r.City)
	set(&c.State, r.State)
	set(&c.PostalCode, r.PostalCode)
	set(&c.Description, r.Description)
	set(&c.ProfileImageURL, r.ProfileImageURL)
}

// ValidateEmail checks the tenant contact address.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("invalid email format")
	}
	return nil
}

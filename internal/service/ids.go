// Package service implements the CaterTrack business logic on top of ports.
package service

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Strob0t/CaterTrack/internal/domain"
)

// newID returns a random UUID string for entities and single-use tokens.
func newID() string { return uuid.NewString() }

// validationErr tags a request validation failure with domain.ErrValidation.
// The HTTP layer strips the sentinel prefix and returns the detail.
func validationErr(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrValidation, err)
}

// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist within the caller's tenant.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a uniqueness or referential conflict (duplicate phone,
// customer still referenced by orders, and similar).
var ErrConflict = errors.New("conflict")

// ErrValidation indicates the caller supplied invalid input.
// Wrap it as fmt.Errorf("%w: detail", ErrValidation) so the HTTP layer can
// strip the prefix and surface the detail.
var ErrValidation = errors.New("validation error")

// ErrStorage indicates a backing store failed while serving an otherwise valid request.
var ErrStorage = errors.New("storage unavailable")

// ErrForbidden indicates the caller is authenticated but not allowed to act on the resource.
var ErrForbidden = errors.New("forbidden")

// Package notifier defines the outbound notification port (interface).
package notifier

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when a notifier is not properly configured.
var ErrNotConfigured = errors.New("notifier: not configured")

// Notification is a message addressed to one recipient.
type Notification struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"` // HTML
	Kind    string `json:"kind"` // e.g. "invite", "password_reset"
}

// Notifier is the port interface for sending notifications.
type Notifier interface {
	// Name returns the unique identifier for this notifier (e.g. "email").
	Name() string

	// Send delivers a notification.
	Send(ctx context.Context, n Notification) error
}

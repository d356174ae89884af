// Package broadcast defines the port for pushing real-time events to a caterer's connected clients.
package broadcast

import "context"

// Broadcaster sends real-time events to the connected clients of one tenant.
type Broadcaster interface {
	// BroadcastEvent sends a typed event to every client of tenantID.
	BroadcastEvent(ctx context.Context, tenantID, eventType string, payload any)
}

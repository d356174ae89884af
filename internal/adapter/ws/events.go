package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Strob0t/CaterTrack/internal/port/broadcast"
	"github.com/Strob0t/CaterTrack/internal/port/messagequeue"
)

// EventOrderUpdated is pushed after every committed order mutation.
const EventOrderUpdated = "order.updated"

var _ broadcast.Broadcaster = (*Hub)(nil)

// BroadcastEvent marshals a typed event and sends it to one tenant's clients.
func (h *Hub) BroadcastEvent(ctx context.Context, tenantID, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.BroadcastToTenant(ctx, tenantID, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}

// ForwardOrderUpdates relays orders.updated messages from the queue to the
// tenant's connected clients. Each process keeps its own subscription so every
// dashboard is reached regardless of which process holds its socket.
func (h *Hub) ForwardOrderUpdates(ctx context.Context, q messagequeue.Queue) (func(), error) {
	return q.Subscribe(ctx, messagequeue.SubjectOrderUpdated, h.handleOrderUpdated)
}

func (h *Hub) handleOrderUpdated(ctx context.Context, _ string, data []byte) error {
	var p messagequeue.OrderUpdatedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode order update: %w", err)
	}
	h.BroadcastToTenant(ctx, p.TenantID, Message{Type: EventOrderUpdated, Payload: json.RawMessage(data)})
	return nil
}

// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Handler processes a message received from the queue.
// The context carries request-scoped values such as the request ID.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to messages.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// SubscribeDurable registers a handler on a named, shared consumer.
	// Processes using the same durable name split the messages between them.
	SubscribeDurable(ctx context.Context, subject, durable string, handler Handler) (cancel func(), err error)

	// Drain gracefully drains all subscriptions before closing.
	// Pending messages are processed; no new messages are accepted.
	Drain() error

	// Close shuts down the queue connection immediately.
	Close() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Subjects published and consumed by the service.
const (
	SubjectOrderUpdated = "orders.updated" // ledger → ws fan-out, after every committed order mutation
	SubjectNotifyEmail  = "notify.email"   // auth → email sender (invites, password resets)
)

// StreamSubjects are the wildcard subjects captured by the JetStream stream.
var StreamSubjects = []string{"orders.>", "notify.>"}

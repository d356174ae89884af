package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Strob0t/CaterTrack/internal/port/messagequeue"
	"github.com/Strob0t/CaterTrack/internal/port/notifier"
)

const (
	emailConsumer    = "catertrack-email"
	inlineSendBudget = 30 * time.Second
)

// NotificationService queues outbound email on notify.email and delivers it
// from a durable consumer. Delivery is fire-and-forget for the caller: send
// failures are logged and retried by the queue, never returned to a request.
type NotificationService struct {
	queue    messagequeue.Queue
	notifier notifier.Notifier
}

// NewNotificationService creates the service. queue may be nil, in which
// case Enqueue delivers directly in the background.
func NewNotificationService(q messagequeue.Queue, n notifier.Notifier) *NotificationService {
	return &NotificationService{queue: q, notifier: n}
}

// Enqueue schedules an email.
func (s *NotificationService) Enqueue(ctx context.Context, p messagequeue.EmailPayload) error {
	if s.queue == nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), inlineSendBudget)
			defer cancel()
			if err := s.deliver(ctx, p); err != nil {
				slog.Warn("email delivery failed", "kind", p.Kind, "error", err)
			}
		}()
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}
	return s.queue.Publish(ctx, messagequeue.SubjectNotifyEmail, data)
}

// Start subscribes the email consumer. The returned func cancels it.
func (s *NotificationService) Start(ctx context.Context) (func(), error) {
	if s.queue == nil {
		return func() {}, nil
	}
	return s.queue.SubscribeDurable(ctx, messagequeue.SubjectNotifyEmail, emailConsumer, s.handle)
}

func (s *NotificationService) handle(ctx context.Context, _ string, data []byte) error {
	var p messagequeue.EmailPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("unmarshal email: %w", err)
	}
	err := s.deliver(ctx, p)
	if errors.Is(err, notifier.ErrNotConfigured) {
		slog.Warn("email dropped, notifier not configured", "kind", p.Kind)
		return nil
	}
	if err != nil {
		slog.Warn("email delivery failed", "kind", p.Kind, "error", err)
		return err
	}
	slog.Debug("email sent", "kind", p.Kind, "notifier", s.notifier.Name())
	return nil
}

func (s *NotificationService) deliver(ctx context.Context, p messagequeue.EmailPayload) error {
	if s.notifier == nil {
		return notifier.ErrNotConfigured
	}
	return s.notifier.Send(ctx, notifier.Notification{
		To:      p.To,
		Subject: p.Subject,
		Body:    p.HTML,
		Kind:    p.Kind,
	})
}

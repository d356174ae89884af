package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/CaterTrack/internal/port/messagequeue"
	"github.com/Strob0t/CaterTrack/internal/port/notifier"
	"github.com/Strob0t/CaterTrack/internal/service/servicetest"
)

type mockNotifier struct {
	mu    sync.Mutex
	name  string
	err   error
	sent  []notifier.Notification
	calls chan struct{}
}

func newMockNotifier(err error) *mockNotifier {
	return &mockNotifier{name: "mock", err: err, calls: make(chan struct{}, 8)}
}

func (m *mockNotifier) Name() string { return m.name }
func (m *mockNotifier) Send(_ context.Context, n notifier.Notification) error {
	m.mu.Lock()
	m.sent = append(m.sent, n)
	m.mu.Unlock()
	m.calls <- struct{}{}
	return m.err
}

func TestNotificationService_QueueRoundTrip(t *testing.T) {
	q := &servicetest.Queue{}
	n := newMockNotifier(nil)
	svc := NewNotificationService(q, n)
	ctx := context.Background()

	cancel, err := svc.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer cancel()

	p := messagequeue.EmailPayload{To: "a@example.com", Subject: "Hi", HTML: "<p>x</p>", Kind: "invite"}
	if err := svc.Enqueue(ctx, p); err != nil {
		t.Fatal(err)
	}

	msgs := q.BySubject(messagequeue.SubjectNotifyEmail)
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}
	var got messagequeue.EmailPayload
	if err := json.Unmarshal(msgs[0], &got); err != nil || got != p {
		t.Fatalf("payload = %+v, %v", got, err)
	}
	if len(n.sent) != 1 || n.sent[0].To != "a@example.com" || n.sent[0].Body != "<p>x</p>" {
		t.Fatalf("notifier got %+v", n.sent)
	}
}

func TestNotificationService_HandleErrors(t *testing.T) {
	ctx := context.Background()
	data, _ := json.Marshal(messagequeue.EmailPayload{To: "a@example.com"})

	failing := NewNotificationService(nil, newMockNotifier(errors.New("smtp down")))
	if err := failing.handle(ctx, messagequeue.SubjectNotifyEmail, data); err == nil {
		t.Fatal("send failure must be returned so the queue retries")
	}

	unconfigured := NewNotificationService(nil, newMockNotifier(notifier.ErrNotConfigured))
	if err := unconfigured.handle(ctx, messagequeue.SubjectNotifyEmail, data); err != nil {
		t.Fatalf("unconfigured notifier must not be retried: %v", err)
	}

	if err := unconfigured.handle(ctx, messagequeue.SubjectNotifyEmail, []byte("{")); err == nil {
		t.Fatal("malformed payload must fail")
	}
}

func TestNotificationService_InlineWithoutQueue(t *testing.T) {
	n := newMockNotifier(nil)
	svc := NewNotificationService(nil, n)

	cancel, err := svc.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	cancel()

	if err := svc.Enqueue(context.Background(), messagequeue.EmailPayload{To: "b@example.com"}); err != nil {
		t.Fatal(err)
	}
	select {
	case <-n.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("inline delivery did not happen")
	}
}

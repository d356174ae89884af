package nats

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Strob0t/CaterTrack/internal/config"
	"github.com/Strob0t/CaterTrack/internal/logger"
	"github.com/Strob0t/CaterTrack/internal/port/messagequeue"
)

// testConnect connects to NATS or skips the test if NATS_URL is not set.
func testConnect(t *testing.T) *Queue {
	t.Helper()

	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("requires NATS_URL")
	}

	q, err := Connect(context.Background(), config.NATS{URL: url, Stream: "CATERTRACK_TEST"})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() {
		if err := q.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return q
}

// uniqueID keeps tests from matching messages left in the stream by earlier runs.
func uniqueID(t *testing.T) string {
	t.Helper()
	return strings.ReplaceAll(t.Name(), "/", "-") + "-" + time.Now().Format("150405.000000000")
}

func await[T any](t *testing.T, ch <-chan T, within time.Duration) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(within):
		t.Fatal("timed out waiting for message")
	}
	var zero T
	return zero
}

// watchDLQ consumes <subject>.dlq directly, bypassing schema validation, and
// forwards the payloads that contain marker.
func watchDLQ(t *testing.T, q *Queue, subject string, marker []byte) <-chan jetstream.Msg {
	t.Helper()
	ctx := context.Background()
	consumer, err := q.js.CreateOrUpdateConsumer(ctx, q.stream, jetstream.ConsumerConfig{
		FilterSubject: subject + dlqSuffix,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		t.Fatalf("create DLQ consumer: %v", err)
	}
	out := make(chan jetstream.Msg, 1)
	sub, err := consumer.Consume(func(msg jetstream.Msg) {
		_ = msg.Ack()
		if bytes.Contains(msg.Data(), marker) {
			select {
			case out <- msg:
			default:
			}
		}
	})
	if err != nil {
		t.Fatalf("consume DLQ: %v", err)
	}
	t.Cleanup(sub.Stop)
	return out
}

func TestQueue_OrderUpdatedCarriesRequestID(t *testing.T) {
	q := testConnect(t)
	tenant := uniqueID(t)

	type delivery struct {
		payload   messagequeue.OrderUpdatedPayload
		requestID string
	}
	got := make(chan delivery, 1)
	stop, err := q.Subscribe(context.Background(), messagequeue.SubjectOrderUpdated, func(ctx context.Context, _ string, data []byte) error {
		var p messagequeue.OrderUpdatedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		if p.TenantID == tenant {
			got <- delivery{payload: p, requestID: logger.RequestID(ctx)}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer stop()

	data, err := json.Marshal(messagequeue.OrderUpdatedPayload{
		TenantID:   tenant,
		OrderID:    "o-1",
		Cause:      "payment.added",
		GrandTotal: "200.00",
		Due:        "0.00",
		PaidStatus: "PAID",
	})
	if err != nil {
		t.Fatal(err)
	}
	ctx := logger.WithRequestID(context.Background(), "req-payment-1")
	if err := q.Publish(ctx, messagequeue.SubjectOrderUpdated, data); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	d := await(t, got, 5*time.Second)
	if d.payload.OrderID != "o-1" || d.payload.PaidStatus != "PAID" {
		t.Errorf("payload = %+v", d.payload)
	}
	if d.requestID != "req-payment-1" {
		t.Errorf("request ID = %q, want req-payment-1", d.requestID)
	}
}

func TestQueue_SchemaViolationGoesToDLQ(t *testing.T) {
	q := testConnect(t)
	ctx := context.Background()
	marker := []byte(uniqueID(t))

	dlq := watchDLQ(t, q, messagequeue.SubjectOrderUpdated, marker)
	stop, err := q.Subscribe(ctx, messagequeue.SubjectOrderUpdated, func(context.Context, string, []byte) error {
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer stop()

	// Valid JSON without the required ids.
	body, _ := json.Marshal(map[string]string{"cause": string(marker)})
	if err := q.Publish(ctx, messagequeue.SubjectOrderUpdated, body); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	msg := await(t, dlq, 10*time.Second)
	if !strings.Contains(msg.Headers().Get(headerDLQReason), "tenant_id and order_id are required") {
		t.Errorf("DLQ reason = %q", msg.Headers().Get(headerDLQReason))
	}
}

func TestQueue_EmailRetryExhaustionGoesToDLQ(t *testing.T) {
	q := testConnect(t)
	ctx := context.Background()
	id := uniqueID(t)
	to := id + "@example.com"

	dlq := watchDLQ(t, q, messagequeue.SubjectNotifyEmail, []byte(to))
	stop, err := q.SubscribeDurable(ctx, messagequeue.SubjectNotifyEmail, "email-"+strings.ReplaceAll(id, ".", "-"),
		func(context.Context, string, []byte) error { return errSMTPDown })
	if err != nil {
		t.Fatalf("SubscribeDurable: %v", err)
	}
	defer stop()

	// Published with the retry budget already spent, so the first failure parks it.
	data, _ := json.Marshal(messagequeue.EmailPayload{To: to, Subject: "Reset", HTML: "<p>x</p>", Kind: "password_reset"})
	msg := &nats.Msg{Subject: messagequeue.SubjectNotifyEmail, Data: data, Header: nats.Header{}}
	msg.Header.Set(headerRetryCount, "3")
	if _, err := q.js.PublishMsg(ctx, msg); err != nil {
		t.Fatalf("PublishMsg: %v", err)
	}

	parked := await(t, dlq, 10*time.Second)
	if parked.Headers().Get(headerDLQReason) != errSMTPDown.Error() {
		t.Errorf("DLQ reason = %q", parked.Headers().Get(headerDLQReason))
	}
}

func TestQueue_IdempotencyBucketClaims(t *testing.T) {
	q := testConnect(t)
	ctx := context.Background()

	kv, err := q.KeyValue(ctx, "CATERTRACK_TEST_IDEMPOTENCY", time.Minute)
	if err != nil {
		t.Fatalf("KeyValue: %v", err)
	}
	key := strings.NewReplacer(".", "_", "-", "_").Replace(uniqueID(t))

	if _, err := kv.Create(ctx, key, []byte("pending")); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := kv.Create(ctx, key, []byte("pending")); !errors.Is(err, jetstream.ErrKeyExists) {
		t.Fatalf("second Create = %v, want ErrKeyExists", err)
	}

	if _, err := kv.Put(ctx, key, []byte(`{"status":201}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	entry, err := kv.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(entry.Value()) != `{"status":201}` {
		t.Errorf("value = %q", entry.Value())
	}

	// A released claim can be taken again.
	if err := kv.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := kv.Create(ctx, key, []byte("pending")); err != nil {
		t.Fatalf("Create after Delete: %v", err)
	}
}

func TestQueue_IsConnected(t *testing.T) {
	q := testConnect(t)

	if !q.IsConnected() {
		t.Error("IsConnected() = false after Connect, want true")
	}
}

var errSMTPDown = errors.New("smtp unavailable")

func TestRetryCount(t *testing.T) {
	h := nats.Header{}
	if got := retryCount(h); got != 0 {
		t.Errorf("missing header: got %d, want 0", got)
	}
	h.Set(headerRetryCount, "2")
	if got := retryCount(h); got != 2 {
		t.Errorf("got %d, want 2", got)
	}
	h.Set(headerRetryCount, "garbage")
	if got := retryCount(h); got != 0 {
		t.Errorf("invalid header: got %d, want 0", got)
	}
	h.Set(headerRetryCount, "-4")
	if got := retryCount(h); got != 0 {
		t.Errorf("negative header: got %d, want 0", got)
	}
}

func TestCopyHeader(t *testing.T) {
	h := nats.Header{}
	h.Set(headerRequestID, "r1")
	c := copyHeader(h)
	c.Set(headerRequestID, "r2")
	if h.Get(headerRequestID) != "r1" {
		t.Error("copy must not alias the original header")
	}
}

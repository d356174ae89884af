package otel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Strob0t/CaterTrack/internal/config"
)

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(context.Background(), config.OTEL{Enabled: false})
	if err != nil {
		t.Fatal(err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown returned %v", err)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.RecordMutation(context.Background(), "payment.added", time.Now(), nil)
	m.RecordPayment(context.Background(), 100, "cash")
	m.RecordDrift(context.Background())
}

func TestMetricsRecord(t *testing.T) {
	m, err := NewMetrics()
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	m.RecordMutation(ctx, "event.added", time.Now(), nil)
	m.RecordMutation(ctx, "event.added", time.Now(), errors.New("boom"))
	m.RecordPayment(ctx, 5000, "upi")
	m.RecordDrift(ctx)
}

func TestSpans(t *testing.T) {
	ctx, span := StartOrderMutationSpan(context.Background(), "t1", "o1", "recompute")
	if ctx == nil || span == nil {
		t.Fatal("expected span")
	}
	span.End()
	_, span = StartReconcileSpan(context.Background(), "t1")
	span.End()
	_, span = StartImportSpan(context.Background(), "t1", 3)
	span.End()
}

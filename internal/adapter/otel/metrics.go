package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "catertrack"

// Metrics holds the ledger's instruments.
type Metrics struct {
	Recomputations   metric.Int64Counter
	MutationFailures metric.Int64Counter
	PaymentsRecorded metric.Int64Counter
	PaymentCents     metric.Int64Counter
	MutationDuration metric.Float64Histogram
	ReconcileDrift   metric.Int64Counter
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Recomputations, err = meter.Int64Counter("catertrack.order.recomputations",
		metric.WithDescription("Order aggregate recomputations committed"))
	if err != nil {
		return nil, err
	}

	m.MutationFailures, err = meter.Int64Counter("catertrack.order.mutation_failures",
		metric.WithDescription("Order mutations that rolled back"))
	if err != nil {
		return nil, err
	}

	m.PaymentsRecorded, err = meter.Int64Counter("catertrack.payments.recorded",
		metric.WithDescription("Payments appended"))
	if err != nil {
		return nil, err
	}

	m.PaymentCents, err = meter.Int64Counter("catertrack.payments.amount_cents",
		metric.WithDescription("Sum of recorded payments in minor units"))
	if err != nil {
		return nil, err
	}

	m.MutationDuration, err = meter.Float64Histogram("catertrack.order.mutation.duration_seconds",
		metric.WithDescription("Time spent holding the order lock"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	m.ReconcileDrift, err = meter.Int64Counter("catertrack.order.reconcile_drift",
		metric.WithDescription("Orders whose stored totals differed from their documents during reconcile"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordMutation records one finished order mutation. Safe on a nil receiver.
func (m *Metrics) RecordMutation(ctx context.Context, cause string, started time.Time, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("cause", cause))
	m.MutationDuration.Record(ctx, time.Since(started).Seconds(), attrs)
	if err != nil {
		m.MutationFailures.Add(ctx, 1, attrs)
		return
	}
	m.Recomputations.Add(ctx, 1, attrs)
}

// RecordPayment counts one committed payment. Safe on a nil receiver.
func (m *Metrics) RecordPayment(ctx context.Context, cents int64, paymentType string) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("type", paymentType))
	m.PaymentsRecorded.Add(ctx, 1, attrs)
	m.PaymentCents.Add(ctx, cents, attrs)
}

// RecordDrift counts one order corrected by reconcile. Safe on a nil receiver.
func (m *Metrics) RecordDrift(ctx context.Context) {
	if m == nil {
		return
	}
	m.ReconcileDrift.Add(ctx, 1)
}

package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "catertrack"

// StartOrderMutationSpan starts a span covering one locked order mutation.
func StartOrderMutationSpan(ctx context.Context, tenantID, orderID, cause string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "order.mutate",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("order.id", orderID),
			attribute.String("order.cause", cause),
		),
	)
}

// StartReconcileSpan starts a span for a tenant-wide reconcile pass.
func StartReconcileSpan(ctx context.Context, tenantID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "order.reconcile",
		trace.WithAttributes(attribute.String("tenant.id", tenantID)),
	)
}

// StartImportSpan starts a span for a menu CSV import.
func StartImportSpan(ctx context.Context, tenantID string, rows int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "menu.import",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.Int("menu.rows", rows),
		),
	)
}

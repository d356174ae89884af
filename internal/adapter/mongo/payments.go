package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Strob0t/CaterTrack/internal/domain/order"
)

// Payments are append-only: there is no update or delete path.

func (t *tenantDocs) InsertPayment(ctx context.Context, p *order.Payment) error {
	p.TenantID = t.tenantID
	if _, err := t.payments.InsertOne(ctx, toPaymentDoc(p)); err != nil {
		return docErr(err, "insert payment %s", p.ID)
	}
	return nil
}

func (t *tenantDocs) ListPayments(ctx context.Context, orderID string) ([]order.Payment, error) {
	cur, err := t.payments.Find(ctx,
		t.scope(bson.E{Key: "order_id", Value: orderID}),
		options.Find().SetSort(bson.D{{Key: "paid_at", Value: 1}, {Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, docErr(err, "list payments of order %s", orderID)
	}
	docs, err := decodeAll[paymentDoc](ctx, cur, "list payments")
	if err != nil {
		return nil, err
	}
	out := make([]order.Payment, len(docs))
	for i := range docs {
		out[i] = docs[i].toDomain()
	}
	return out, nil
}

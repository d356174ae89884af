package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Strob0t/CaterTrack/internal/domain"
	"github.com/Strob0t/CaterTrack/internal/domain/order"
)

func (t *tenantDocs) InsertEvents(ctx context.Context, events []order.Event) error {
	if len(events) == 0 {
		return nil
	}
	docs := make([]any, len(events))
	for i := range events {
		events[i].TenantID = t.tenantID
		docs[i] = toEventDoc(&events[i])
	}
	if _, err := t.events.InsertMany(ctx, docs); err != nil {
		return docErr(err, "insert %d events", len(events))
	}
	return nil
}

func (t *tenantDocs) GetEvent(ctx context.Context, orderID, eventID string) (*order.Event, error) {
	var d eventDoc
	err := t.events.FindOne(ctx, t.scope(
		bson.E{Key: "_id", Value: eventID},
		bson.E{Key: "order_id", Value: orderID},
	)).Decode(&d)
	if err != nil {
		return nil, docErr(err, "get event %s", eventID)
	}
	e := d.toDomain()
	return &e, nil
}

func (t *tenantDocs) ReplaceEvent(ctx context.Context, e *order.Event) error {
	e.TenantID = t.tenantID
	res, err := t.events.ReplaceOne(ctx, t.scope(
		bson.E{Key: "_id", Value: e.ID},
		bson.E{Key: "order_id", Value: e.OrderID},
	), toEventDoc(e))
	if err != nil {
		return docErr(err, "replace event %s", e.ID)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("replace event %s: %w", e.ID, domain.ErrNotFound)
	}
	return nil
}

func (t *tenantDocs) DeleteEvent(ctx context.Context, orderID, eventID string) error {
	res, err := t.events.DeleteOne(ctx, t.scope(
		bson.E{Key: "_id", Value: eventID},
		bson.E{Key: "order_id", Value: orderID},
	))
	if err != nil {
		return docErr(err, "delete event %s", eventID)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete event %s: %w", eventID, domain.ErrNotFound)
	}
	return nil
}

func (t *tenantDocs) ListEvents(ctx context.Context, orderID string) ([]order.Event, error) {
	cur, err := t.events.Find(ctx,
		t.scope(bson.E{Key: "order_id", Value: orderID}),
		options.Find().SetSort(bson.D{{Key: "event_date", Value: 1}, {Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, docErr(err, "list events of order %s", orderID)
	}
	docs, err := decodeAll[eventDoc](ctx, cur, "list events")
	if err != nil {
		return nil, err
	}
	out := make([]order.Event, len(docs))
	for i := range docs {
		out[i] = docs[i].toDomain()
	}
	return out, nil
}

func (t *tenantDocs) ListEventsByOrders(ctx context.Context, orderIDs []string) (map[string][]order.Event, error) {
	out := make(map[string][]order.Event, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	cur, err := t.events.Find(ctx,
		t.scope(bson.E{Key: "order_id", Value: bson.M{"$in": orderIDs}}),
		options.Find().SetSort(bson.D{{Key: "event_date", Value: 1}, {Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, docErr(err, "list events of %d orders", len(orderIDs))
	}
	docs, err := decodeAll[eventDoc](ctx, cur, "list events")
	if err != nil {
		return nil, err
	}
	for i := range docs {
		e := docs[i].toDomain()
		out[e.OrderID] = append(out[e.OrderID], e)
	}
	return out, nil
}

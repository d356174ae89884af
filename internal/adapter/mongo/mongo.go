// Package mongo implements the document store for events, payments and the
// menu catalog on MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Strob0t/CaterTrack/internal/config"
	"github.com/Strob0t/CaterTrack/internal/domain"
	"github.com/Strob0t/CaterTrack/internal/port/docstore"
)

// Collection names.
const (
	collEvents     = "events"
	collPayments   = "payments"
	collCategories = "menu_categories"
	collItems      = "menu_items"
	collPackages   = "packages"
)

// Store implements docstore.Store.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ docstore.Store = (*Store)(nil)

// Connect opens a client, verifies the primary is reachable and returns a Store.
func Connect(ctx context.Context, cfg config.Mongo) (*Store, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return New(client, cfg.Database), nil
}

// New wraps an existing client.
func New(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database)}
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping reports whether the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates the lookup and uniqueness indexes. It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		collEvents: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "order_id", Value: 1}}},
		},
		collPayments: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "order_id", Value: 1}, {Key: "paid_at", Value: 1}}},
		},
		collCategories: {
			{
				Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		collItems: {
			{
				Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "category_id", Value: 1}, {Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		collPackages: {
			{
				Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}
	for coll, models := range specs {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// Tenant returns document access restricted to one caterer.
func (s *Store) Tenant(tenantID string) docstore.TenantDocs {
	return &tenantDocs{
		tenantID:   tenantID,
		events:     s.db.Collection(collEvents),
		payments:   s.db.Collection(collPayments),
		categories: s.db.Collection(collCategories),
		items:      s.db.Collection(collItems),
		packages:   s.db.Collection(collPackages),
	}
}

type tenantDocs struct {
	tenantID   string
	events     *mongo.Collection
	payments   *mongo.Collection
	categories *mongo.Collection
	items      *mongo.Collection
	packages   *mongo.Collection
}

// scope returns a filter pinned to the caterer plus any extra conditions.
func (t *tenantDocs) scope(extra ...bson.E) bson.D {
	f := bson.D{{Key: "tenant_id", Value: t.tenantID}}
	return append(f, extra...)
}

// docErr classifies a driver error the same way the relational store does.
func docErr(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", msg, domain.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", msg, domain.ErrConflict)
	default:
		return fmt.Errorf("%s: %w: %w", msg, domain.ErrStorage, err)
	}
}

// decodeAll drains a cursor into out, closing it afterwards.
func decodeAll[T any](ctx context.Context, cur *mongo.Cursor, op string) ([]T, error) {
	defer func() { _ = cur.Close(ctx) }()
	var out []T
	if err := cur.All(ctx, &out); err != nil {
		return nil, docErr(err, "%s", op)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

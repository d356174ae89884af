package mongo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Strob0t/CaterTrack/internal/config"
	"github.com/Strob0t/CaterTrack/internal/domain"
	"github.com/Strob0t/CaterTrack/internal/domain/menu"
	"github.com/Strob0t/CaterTrack/internal/domain/money"
	"github.com/Strob0t/CaterTrack/internal/domain/order"
)

func TestDocErr(t *testing.T) {
	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no documents", mongo.ErrNoDocuments, domain.ErrNotFound},
		{"duplicate key", dup, domain.ErrConflict},
		{"network", errors.New("connection reset"), domain.ErrStorage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := docErr(tt.err, "op"); !errors.Is(got, tt.want) {
				t.Fatalf("docErr(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestEventDocKeepsMinorUnits(t *testing.T) {
	e := order.Event{ID: "e1", OrderID: "o1", EventType: "lunch", Amount: money.FromCents(19999)}
	d := toEventDoc(&e)
	if d.AmountCents != 19999 {
		t.Fatalf("expected 19999 cents, got %d", d.AmountCents)
	}
	if back := d.toDomain(); back.Amount != e.Amount {
		t.Fatalf("amount changed: %s", back.Amount)
	}
}

// setupStore connects to MONGO_URI and uses a throwaway database.
func setupStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("requires MONGO_URI")
	}
	ctx := context.Background()
	s, err := Connect(ctx, config.Mongo{
		URI:            uri,
		Database:       "catertrack_test_" + uuid.NewString()[:8],
		ConnectTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		t.Fatalf("indexes: %v", err)
	}
	t.Cleanup(func() {
		_ = s.db.Drop(context.Background())
		_ = s.Close(context.Background())
	})
	return s
}

func TestTenantDocs_Events(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	docs := s.Tenant("cat-a")
	now := time.Now().UTC().Truncate(time.Millisecond)

	events := []order.Event{
		{ID: uuid.NewString(), OrderID: "o1", EventType: "lunch", EventDate: now, Amount: money.FromUnits(200),
			Menu: map[string]any{"starter": "soup"}, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.NewString(), OrderID: "o2", EventType: "dinner", EventDate: now, Amount: money.FromUnits(50), CreatedAt: now, UpdatedAt: now},
	}
	if err := docs.InsertEvents(ctx, events); err != nil {
		t.Fatalf("InsertEvents: %v", err)
	}

	got, err := docs.ListEvents(ctx, "o1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Amount != money.FromUnits(200) || got[0].Menu["starter"] != "soup" {
		t.Fatalf("unexpected events %+v", got)
	}

	byOrder, err := docs.ListEventsByOrders(ctx, []string{"o1", "o2"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byOrder["o1"]) != 1 || len(byOrder["o2"]) != 1 {
		t.Fatalf("unexpected grouping %+v", byOrder)
	}

	// Another caterer sees nothing and cannot delete.
	other := s.Tenant("cat-b")
	if list, _ := other.ListEvents(ctx, "o1"); len(list) != 0 {
		t.Fatalf("cross-tenant list returned %d events", len(list))
	}
	if err := other.DeleteEvent(ctx, "o1", events[0].ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("cross-tenant delete: expected ErrNotFound, got %v", err)
	}

	e := got[0]
	e.Amount = money.FromUnits(120)
	if err := docs.ReplaceEvent(ctx, &e); err != nil {
		t.Fatalf("ReplaceEvent: %v", err)
	}
	fetched, err := docs.GetEvent(ctx, "o1", e.ID)
	if err != nil || fetched.Amount != money.FromUnits(120) {
		t.Fatalf("GetEvent after replace: %+v, %v", fetched, err)
	}

	if err := docs.DeleteEvent(ctx, "o1", e.ID); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	if _, err := docs.GetEvent(ctx, "o1", e.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestTenantDocs_Payments(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	docs := s.Tenant("cat-a")
	now := time.Now().UTC()

	p := order.Payment{ID: uuid.NewString(), OrderID: "o1", Amount: money.FromUnits(75), PaidAt: now, Type: "cash", CreatedAt: now}
	if err := docs.InsertPayment(ctx, &p); err != nil {
		t.Fatalf("InsertPayment: %v", err)
	}
	if err := docs.InsertPayment(ctx, &p); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("duplicate payment id: expected ErrConflict, got %v", err)
	}
	list, err := docs.ListPayments(ctx, "o1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Amount != money.FromUnits(75) {
		t.Fatalf("unexpected payments %+v", list)
	}
}

func TestTenantDocs_MenuCascade(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	docs := s.Tenant("cat-a")

	cat := menu.Category{ID: uuid.NewString(), Name: "Starters"}
	if err := docs.CreateCategory(ctx, &cat); err != nil {
		t.Fatal(err)
	}
	dup := menu.Category{ID: uuid.NewString(), Name: "Starters"}
	if err := docs.CreateCategory(ctx, &dup); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("duplicate category: expected ErrConflict, got %v", err)
	}

	for _, name := range []string{"Soup", "Salad"} {
		it := menu.Item{ID: uuid.NewString(), CategoryID: cat.ID, Name: name}
		if err := docs.CreateItem(ctx, &it); err != nil {
			t.Fatal(err)
		}
	}
	items, _ := docs.ListItems(ctx, cat.ID)
	if len(items) != 2 || items[0].Name != "Salad" {
		t.Fatalf("expected 2 items sorted by name, got %+v", items)
	}

	if err := docs.DeleteCategory(ctx, cat.ID); err != nil {
		t.Fatal(err)
	}
	if items, _ := docs.ListItems(ctx, ""); len(items) != 0 {
		t.Fatalf("items must be removed with their category, got %d", len(items))
	}
	if err := docs.DeleteCategory(ctx, cat.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

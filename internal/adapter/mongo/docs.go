package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/Strob0t/CaterTrack/internal/domain/menu"
	"github.com/Strob0t/CaterTrack/internal/domain/money"
	"github.com/Strob0t/CaterTrack/internal/domain/order"
)

// Stored document shapes. Money is kept in minor units.

type eventDoc struct {
	ID            string    `bson:"_id"`
	TenantID      string    `bson:"tenant_id"`
	OrderID       string    `bson:"order_id"`
	EventType     string    `bson:"event_type"`
	EventDate     time.Time `bson:"event_date"`
	StartTime     string    `bson:"start_time,omitempty"`
	EndTime       string    `bson:"end_time,omitempty"`
	Venue         string    `bson:"venue,omitempty"`
	NoOfGuests    int       `bson:"no_of_guests"`
	ExtraServices bson.M    `bson:"extra_services,omitempty"`
	Menu          bson.M    `bson:"menu,omitempty"`
	AmountCents   int64     `bson:"amount_cents"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func toEventDoc(e *order.Event) eventDoc {
	return eventDoc{
		ID:            e.ID,
		TenantID:      e.TenantID,
		OrderID:       e.OrderID,
		EventType:     e.EventType,
		EventDate:     e.EventDate,
		StartTime:     e.StartTime,
		EndTime:       e.EndTime,
		Venue:         e.Venue,
		NoOfGuests:    e.NoOfGuests,
		ExtraServices: e.ExtraServices,
		Menu:          e.Menu,
		AmountCents:   e.Amount.Cents(),
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func (d *eventDoc) toDomain() order.Event {
	return order.Event{
		ID:            d.ID,
		TenantID:      d.TenantID,
		OrderID:       d.OrderID,
		EventType:     d.EventType,
		EventDate:     d.EventDate.UTC(),
		StartTime:     d.StartTime,
		EndTime:       d.EndTime,
		Venue:         d.Venue,
		NoOfGuests:    d.NoOfGuests,
		ExtraServices: d.ExtraServices,
		Menu:          d.Menu,
		Amount:        money.FromCents(d.AmountCents),
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

type paymentDoc struct {
	ID          string    `bson:"_id"`
	TenantID    string    `bson:"tenant_id"`
	OrderID     string    `bson:"order_id"`
	AmountCents int64     `bson:"amount_cents"`
	PaidAt      time.Time `bson:"paid_at"`
	Type        string    `bson:"type"`
	Notes       string    `bson:"notes,omitempty"`
	CreatedAt   time.Time `bson:"created_at"`
}

func toPaymentDoc(p *order.Payment) paymentDoc {
	return paymentDoc{
		ID:          p.ID,
		TenantID:    p.TenantID,
		OrderID:     p.OrderID,
		AmountCents: p.Amount.Cents(),
		PaidAt:      p.PaidAt,
		Type:        p.Type,
		Notes:       p.Notes,
		CreatedAt:   p.CreatedAt,
	}
}

func (d *paymentDoc) toDomain() order.Payment {
	return order.Payment{
		ID:        d.ID,
		TenantID:  d.TenantID,
		OrderID:   d.OrderID,
		Amount:    money.FromCents(d.AmountCents),
		PaidAt:    d.PaidAt.UTC(),
		Type:      d.Type,
		Notes:     d.Notes,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

type categoryDoc struct {
	ID        string    `bson:"_id"`
	TenantID  string    `bson:"tenant_id"`
	Name      string    `bson:"name"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d *categoryDoc) toDomain() menu.Category {
	return menu.Category{ID: d.ID, TenantID: d.TenantID, Name: d.Name, CreatedAt: d.CreatedAt.UTC(), UpdatedAt: d.UpdatedAt.UTC()}
}

type itemDoc struct {
	ID          string    `bson:"_id"`
	TenantID    string    `bson:"tenant_id"`
	CategoryID  string    `bson:"category_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description,omitempty"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func (d *itemDoc) toDomain() menu.Item {
	return menu.Item{
		ID:          d.ID,
		TenantID:    d.TenantID,
		CategoryID:  d.CategoryID,
		Name:        d.Name,
		Description: d.Description,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

type packageEntryDoc struct {
	CategoryID string `bson:"category_id"`
	ItemID     string `bson:"item_id"`
	Quantity   int    `bson:"quantity"`
}

type packageDoc struct {
	ID          string            `bson:"_id"`
	TenantID    string            `bson:"tenant_id"`
	Name        string            `bson:"name"`
	PriceCents  int64             `bson:"price_cents"`
	Description string            `bson:"description,omitempty"`
	Menu        []packageEntryDoc `bson:"menu"`
	CreatedAt   time.Time         `bson:"created_at"`
	UpdatedAt   time.Time         `bson:"updated_at"`
}

func toPackageDoc(p *menu.Package) packageDoc {
	entries := make([]packageEntryDoc, len(p.Menu))
	for i, e := range p.Menu {
		entries[i] = packageEntryDoc(e)
	}
	return packageDoc{
		ID:          p.ID,
		TenantID:    p.TenantID,
		Name:        p.Name,
		PriceCents:  p.Price.Cents(),
		Description: p.Description,
		Menu:        entries,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (d *packageDoc) toDomain() menu.Package {
	entries := make([]menu.PackageEntry, len(d.Menu))
	for i, e := range d.Menu {
		entries[i] = menu.PackageEntry(e)
	}
	return menu.Package{
		ID:          d.ID,
		TenantID:    d.TenantID,
		Name:        d.Name,
		Price:       money.FromCents(d.PriceCents),
		Description: d.Description,
		Menu:        entries,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

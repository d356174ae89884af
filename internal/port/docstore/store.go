// Package docstore defines the document store port for events, payments and the menu catalog.
package docstore

import (
	"context"

	"github.com/Strob0t/CaterTrack/internal/domain/menu"
	"github.com/Strob0t/CaterTrack/internal/domain/order"
)

// Store hands out tenant-bound document access.
type Store interface {
	Tenant(tenantID string) TenantDocs
}

// TenantDocs is bound to one caterer; every filter it builds includes the tenant id.
type TenantDocs interface {
	// Events
	InsertEvents(ctx context.Context, events []order.Event) error
	GetEvent(ctx context.Context, orderID, eventID string) (*order.Event, error)
	ReplaceEvent(ctx context.Context, e *order.Event) error
	DeleteEvent(ctx context.Context, orderID, eventID string) error
	ListEvents(ctx context.Context, orderID string) ([]order.Event, error)
	ListEventsByOrders(ctx context.Context, orderIDs []string) (map[string][]order.Event, error)

	// Payments (append-only)
	InsertPayment(ctx context.Context, p *order.Payment) error
	ListPayments(ctx context.Context, orderID string) ([]order.Payment, error)

	// Menu categories
	CreateCategory(ctx context.Context, c *menu.Category) error
	GetCategory(ctx context.Context, id string) (*menu.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*menu.Category, error)
	ListCategories(ctx context.Context) ([]menu.Category, error)
	// DeleteCategory removes the category and all of its items.
	DeleteCategory(ctx context.Context, id string) error

	// Menu items
	CreateItem(ctx context.Context, it *menu.Item) error
	GetItemByName(ctx context.Context, categoryID, name string) (*menu.Item, error)
	// ListItems returns all items, or only those of categoryID when it is non-empty.
	ListItems(ctx context.Context, categoryID string) ([]menu.Item, error)
	DeleteItem(ctx context.Context, id string) error

	// Packages
	CreatePackage(ctx context.Context, p *menu.Package) error
	ListPackages(ctx context.Context) ([]menu.Package, error)
}

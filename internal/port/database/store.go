// Package database defines the relational store port (interface).
package database

import (
	"context"
	"time"

	"github.com/Strob0t/CaterTrack/internal/domain/caterer"
	"github.com/Strob0t/CaterTrack/internal/domain/customer"
	"github.com/Strob0t/CaterTrack/internal/domain/order"
	"github.com/Strob0t/CaterTrack/internal/domain/user"
)

// Store is the port interface for relational operations that are not scoped
// to a single caterer (registration, login, token redemption) plus the
// factory for tenant-bound access.
type Store interface {
	// Caterers
	CreateCatererWithOwner(ctx context.Context, c *caterer.Caterer, owner *user.User) error
	GetCaterer(ctx context.Context, id string) (*caterer.Caterer, error)
	UpdateCaterer(ctx context.Context, c *caterer.Caterer) error
	ListCatererIDs(ctx context.Context) ([]string, error)

	// Users
	CreateUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, id string) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	ListUsers(ctx context.Context, catererID string) ([]user.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error

	// Invites
	CreateInvite(ctx context.Context, inv *user.Invite) error
	// AcceptInvite locks the unused invite, creates u from it and marks it used.
	// CatererID, Email and Role of u are taken from the invite.
	AcceptInvite(ctx context.Context, token string, u *user.User) error

	// Password resets
	CreatePasswordReset(ctx context.Context, pr *user.PasswordReset) error
	// ConsumePasswordReset locks an unused, unexpired reset token, stores the
	// new hash for its user, marks it used and returns the user.
	ConsumePasswordReset(ctx context.Context, token, passwordHash string, now time.Time) (*user.User, error)

	// Tenant returns a capability restricted to one caterer's rows.
	Tenant(tenantID string) TenantStore
}

// OrderMutation runs while the order row is locked. It performs the document
// writes for the mutation and returns the freshly folded totals, which the
// store persists before committing.
type OrderMutation func(ctx context.Context, o *order.Order) (order.Totals, error)

// TenantStore is bound to one caterer. Every query it issues is filtered by
// that caterer; there is no method that accepts a different tenant.
type TenantStore interface {
	TenantID() string

	// Customers
	ListCustomers(ctx context.Context, q customer.ListQuery) ([]customer.Customer, error)
	GetCustomer(ctx context.Context, id string) (*customer.Customer, error)
	GetCustomerByPhone(ctx context.Context, phone string) (*customer.Customer, error)
	GetCustomersByIDs(ctx context.Context, ids []string) (map[string]customer.Customer, error)
	CreateCustomer(ctx context.Context, c *customer.Customer) error
	UpdateCustomer(ctx context.Context, c *customer.Customer) error
	DeleteCustomer(ctx context.Context, id string) error

	// Orders
	ListOrders(ctx context.Context) ([]order.Order, error)
	GetOrder(ctx context.Context, id string) (*order.Order, error)
	// CreateOrder inserts o, runs apply and stores the returned totals in one transaction.
	CreateOrder(ctx context.Context, o *order.Order, apply OrderMutation) error
	// MutateOrder locks the order row (SELECT ... FOR UPDATE), runs apply and
	// stores the returned totals in one transaction.
	MutateOrder(ctx context.Context, orderID string, apply OrderMutation) (*order.Order, error)
}

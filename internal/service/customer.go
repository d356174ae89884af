package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Strob0t/CaterTrack/internal/domain"
	"github.com/Strob0t/CaterTrack/internal/domain/customer"
	"github.com/Strob0t/CaterTrack/internal/port/database"
)

// CustomerService manages a caterer's customer directory.
type CustomerService struct {
	store database.Store
	now   func() time.Time
	newID func() string
}

// NewCustomerService creates a customer service.
func NewCustomerService(store database.Store) *CustomerService {
	return &CustomerService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: newID,
	}
}

// List returns one page of customers.
func (s *CustomerService) List(ctx context.Context, tenantID string, q customer.ListQuery) ([]customer.Customer, error) {
	if err := q.Normalize(); err != nil {
		return nil, validationErr(err)
	}
	return s.store.Tenant(tenantID).ListCustomers(ctx, q)
}

// Get returns a customer of the tenant.
func (s *CustomerService) Get(ctx context.Context, tenantID, id string) (*customer.Customer, error) {
	return s.store.Tenant(tenantID).GetCustomer(ctx, id)
}

// FindByPhone looks a customer up by exact phone number.
func (s *CustomerService) FindByPhone(ctx context.Context, tenantID, phone string) (*customer.Customer, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, validationErr(errors.New("phone is required"))
	}
	return s.store.Tenant(tenantID).GetCustomerByPhone(ctx, phone)
}

// Create adds a customer. A phone already used within the tenant is a conflict.
func (s *CustomerService) Create(ctx context.Context, tenantID string, req *customer.CreateRequest) (*customer.Customer, error) {
	if err := req.Validate(); err != nil {
		return nil, validationErr(err)
	}
	now := s.now()
	c := &customer.Customer{
		ID:        s.newID(),
		TenantID:  tenantID,
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Tenant(tenantID).CreateCustomer(ctx, c); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return c, nil
}

// Update applies a partial update.
func (s *CustomerService) Update(ctx context.Context, tenantID, id string, req customer.UpdateRequest) (*customer.Customer, error) {
	if err := req.Validate(); err != nil {
		return nil, validationErr(err)
	}
	ts := s.store.Tenant(tenantID)
	c, err := ts.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(c)
	c.UpdatedAt = s.now()
	if err := ts.UpdateCustomer(ctx, c); err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return c, nil
}

// Delete removes a customer. Customers that still have orders cannot be
// deleted; the store reports that as a conflict.
func (s *CustomerService) Delete(ctx context.Context, tenantID, id string) error {
	return s.store.Tenant(tenantID).DeleteCustomer(ctx, id)
}

// FindOrCreate returns the tenant's customer with the given phone, creating
// it when absent. An empty name falls back to customer.DefaultName.
func (s *CustomerService) FindOrCreate(ctx context.Context, tenantID, phone, name, email string) (*customer.Customer, error) {
	c, err := s.FindByPhone(ctx, tenantID, phone)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		name = customer.DefaultName
	}
	c, err = s.Create(ctx, tenantID, &customer.CreateRequest{Name: name, Phone: phone, Email: email})
	if errors.Is(err, domain.ErrConflict) {
		// lost a race with a concurrent create for the same phone
		return s.FindByPhone(ctx, tenantID, phone)
	}
	return c, err
}

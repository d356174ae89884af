package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/CaterTrack/internal/domain/customer"
	"github.com/Strob0t/CaterTrack/internal/domain/order"
	"github.com/Strob0t/CaterTrack/internal/port/database"
	"github.com/Strob0t/CaterTrack/internal/port/docstore"
)

// OrderService serves order reads and the order-creation entry points.
// Everything that changes an aggregate goes through the Ledger.
type OrderService struct {
	store     database.Store
	docs      docstore.Store
	ledger    *Ledger
	customers *CustomerService
}

// NewOrderService creates an order service.
func NewOrderService(store database.Store, docs docstore.Store, ledger *Ledger, customers *CustomerService) *OrderService {
	return &OrderService{store: store, docs: docs, ledger: ledger, customers: customers}
}

// List returns every order of the tenant, newest first, with its customer
// and events. Events and customers are fetched in bulk.
func (s *OrderService) List(ctx context.Context, tenantID string) ([]order.Detail, error) {
	ts := s.store.Tenant(tenantID)
	orders, err := ts.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if len(orders) == 0 {
		return []order.Detail{}, nil
	}

	orderIDs := make([]string, 0, len(orders))
	custIDs := make([]string, 0, len(orders))
	seen := make(map[string]bool, len(orders))
	for i := range orders {
		orderIDs = append(orderIDs, orders[i].ID)
		if !seen[orders[i].CustomerID] {
			seen[orders[i].CustomerID] = true
			custIDs = append(custIDs, orders[i].CustomerID)
		}
	}

	var (
		events    map[string][]order.Event
		customers map[string]customer.Customer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = s.docs.Tenant(tenantID).ListEventsByOrders(gctx, orderIDs)
		return err
	})
	g.Go(func() error {
		var err error
		customers, err = ts.GetCustomersByIDs(gctx, custIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load order details: %w", err)
	}

	out := make([]order.Detail, 0, len(orders))
	for i := range orders {
		var cust *customer.Customer
		if c, ok := customers[orders[i].CustomerID]; ok {
			cust = &c
		}
		out = append(out, order.NewDetail(orders[i], cust, events[orders[i].ID]))
	}
	return out, nil
}

// Get returns one order with its customer and events.
func (s *OrderService) Get(ctx context.Context, tenantID, id string) (*order.Detail, error) {
	ts := s.store.Tenant(tenantID)
	o, err := ts.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		events []order.Event
		cust   *customer.Customer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = s.docs.Tenant(tenantID).ListEvents(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		cust, err = ts.GetCustomer(gctx, o.CustomerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load order %s: %w", id, err)
	}

	d := order.NewDetail(*o, cust, events)
	return &d, nil
}

// Create places an order for an existing customer of the tenant.
func (s *OrderService) Create(ctx context.Context, tenantID string, req *order.CreateRequest) (*order.Detail, error) {
	d, err := s.ledger.CreateOrder(ctx, tenantID, req)
	if err != nil {
		return nil, err
	}
	if c, err := s.customers.Get(ctx, tenantID, d.CustomerID); err == nil {
		d.Customer = c
	}
	return d, nil
}

// CreateWithCustomer places an order keyed by phone, creating the customer
// when the tenant does not know the number yet.
func (s *OrderService) CreateWithCustomer(ctx context.Context, tenantID string, req *order.CreateWithCustomerRequest) (*order.Detail, error) {
	if err := req.Validate(); err != nil {
		return nil, validationErr(err)
	}
	c, err := s.customers.FindOrCreate(ctx, tenantID, req.Phone, req.Name, req.Email)
	if err != nil {
		return nil, fmt.Errorf("resolve customer: %w", err)
	}
	d, err := s.ledger.CreateOrder(ctx, tenantID, &order.CreateRequest{CustomerID: c.ID, Events: req.Events})
	if err != nil {
		return nil, err
	}
	d.Customer = c
	return d, nil
}

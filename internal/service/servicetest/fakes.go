// Package servicetest provides in-memory implementations of the storage,
// queue and cache ports for service and handler tests.
package servicetest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Strob0t/CaterTrack/internal/domain"
	"github.com/Strob0t/CaterTrack/internal/domain/caterer"
	"github.com/Strob0t/CaterTrack/internal/domain/customer"
	"github.com/Strob0t/CaterTrack/internal/domain/menu"
	"github.com/Strob0t/CaterTrack/internal/domain/order"
	"github.com/Strob0t/CaterTrack/internal/domain/user"
	"github.com/Strob0t/CaterTrack/internal/port/database"
	"github.com/Strob0t/CaterTrack/internal/port/docstore"
	"github.com/Strob0t/CaterTrack/internal/port/messagequeue"
)

// ErrCommit is returned by MutateOrder when Store.FailCommit is set.
var ErrCommit = errors.New("connection reset during commit")

// Store is an in-memory database.Store. MutateOrder holds a per-order
// mutex for the whole callback, like a row lock held until commit.
type Store struct {
	mu        sync.Mutex
	caterers  map[string]caterer.Caterer
	users     map[string]user.User
	invites   map[string]user.Invite
	resets    map[string]user.PasswordReset
	customers map[string]customer.Customer
	orders    map[string]order.Order
	rowLocks  map[string]*sync.Mutex

	FailCommit bool // MutateOrder returns ErrCommit after apply succeeded
}

func NewStore() *Store {
	return &Store{
		caterers:  make(map[string]caterer.Caterer),
		users:     make(map[string]user.User),
		invites:   make(map[string]user.Invite),
		resets:    make(map[string]user.PasswordReset),
		customers: make(map[string]customer.Customer),
		orders:    make(map[string]order.Order),
		rowLocks:  make(map[string]*sync.Mutex),
	}
}

var _ database.Store = (*Store)(nil)

func (s *Store) CreateCatererWithOwner(_ context.Context, c *caterer.Caterer, owner *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, owner.Email) {
			return fmt.Errorf("user %s: %w", owner.Email, domain.ErrConflict)
		}
	}
	owner.CatererID = c.ID
	s.caterers[c.ID] = *c
	s.users[owner.ID] = *owner
	return nil
}

func (s *Store) GetCaterer(_ context.Context, id string) (*caterer.Caterer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.caterers[id]
	if !ok {
		return nil, fmt.Errorf("caterer %s: %w", id, domain.ErrNotFound)
	}
	return &c, nil
}

func (s *Store) UpdateCaterer(_ context.Context, c *caterer.Caterer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.caterers[c.ID]; !ok {
		return fmt.Errorf("caterer %s: %w", c.ID, domain.ErrNotFound)
	}
	s.caterers[c.ID] = *c
	return nil
}

func (s *Store) ListCatererIDs(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.caterers))
	for id := range s.caterers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) CreateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = *u
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
}

func (s *Store) ListUsers(_ context.Context, catererID string) ([]user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []user.User
	for _, u := range s.users {
		if u.CatererID == catererID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	u.PasswordHash = hash
	s.users[id] = u
	return nil
}

func (s *Store) CreateInvite(_ context.Context, inv *user.Invite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invites[inv.Token] = *inv
	return nil
}

func (s *Store) AcceptInvite(_ context.Context, token string, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invites[token]
	if !ok || inv.Used {
		return fmt.Errorf("invite: %w", domain.ErrNotFound)
	}
	u.CatererID, u.Email, u.Role = inv.CatererID, inv.Email, inv.Role
	inv.Used = true
	s.invites[token] = inv
	s.users[u.ID] = *u
	return nil
}

func (s *Store) CreatePasswordReset(_ context.Context, pr *user.PasswordReset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets[pr.Token] = *pr
	return nil
}

func (s *Store) ConsumePasswordReset(_ context.Context, token, hash string, now time.Time) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pr, ok := s.resets[token]
	if !ok || pr.Used || !now.Before(pr.ExpiresAt) {
		return nil, fmt.Errorf("password reset: %w", domain.ErrNotFound)
	}
	pr.Used = true
	s.resets[token] = pr
	u := s.users[pr.UserID]
	u.PasswordHash = hash
	s.users[u.ID] = u
	return &u, nil
}

func (s *Store) Tenant(tenantID string) database.TenantStore {
	return &tenantStore{s: s, tid: tenantID}
}

func (s *Store) rowLock(orderID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.rowLocks[orderID]
	if !ok {
		l = &sync.Mutex{}
		s.rowLocks[orderID] = l
	}
	return l
}

// SetTotals overwrites the stored aggregate, simulating drift.
func (s *Store) SetTotals(orderID string, t order.Totals) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.orders[orderID]
	o.Totals = t
	s.orders[orderID] = o
}

type tenantStore struct {
	s   *Store
	tid string
}

func (t *tenantStore) TenantID() string { return t.tid }

func (t *tenantStore) ListCustomers(_ context.Context, q customer.ListQuery) ([]customer.Customer, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var out []customer.Customer
	for _, c := range t.s.customers {
		if c.TenantID == t.tid {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		less := out[i].Name < out[j].Name
		if q.SortBy == customer.SortByCreatedAt {
			less = out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		if q.SortDir == "desc" {
			return !less
		}
		return less
	})
	if q.Skip >= len(out) {
		return []customer.Customer{}, nil
	}
	out = out[q.Skip:]
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (t *tenantStore) GetCustomer(_ context.Context, id string) (*customer.Customer, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	c, ok := t.s.customers[id]
	if !ok || c.TenantID != t.tid {
		return nil, fmt.Errorf("customer %s: %w", id, domain.ErrNotFound)
	}
	return &c, nil
}

func (t *tenantStore) GetCustomerByPhone(_ context.Context, phone string) (*customer.Customer, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, c := range t.s.customers {
		if c.TenantID == t.tid && c.Phone == phone {
			return &c, nil
		}
	}
	return nil, fmt.Errorf("customer phone %s: %w", phone, domain.ErrNotFound)
}

func (t *tenantStore) GetCustomersByIDs(_ context.Context, ids []string) (map[string]customer.Customer, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	out := make(map[string]customer.Customer, len(ids))
	for _, id := range ids {
		if c, ok := t.s.customers[id]; ok && c.TenantID == t.tid {
			out[id] = c
		}
	}
	return out, nil
}

func (t *tenantStore) CreateCustomer(_ context.Context, c *customer.Customer) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, other := range t.s.customers {
		if other.TenantID == t.tid && other.Phone == c.Phone {
			return fmt.Errorf("customer phone %s: %w", c.Phone, domain.ErrConflict)
		}
	}
	c.TenantID = t.tid
	t.s.customers[c.ID] = *c
	return nil
}

func (t *tenantStore) UpdateCustomer(_ context.Context, c *customer.Customer) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	old, ok := t.s.customers[c.ID]
	if !ok || old.TenantID != t.tid {
		return fmt.Errorf("customer %s: %w", c.ID, domain.ErrNotFound)
	}
	for _, other := range t.s.customers {
		if other.ID != c.ID && other.TenantID == t.tid && other.Phone == c.Phone {
			return fmt.Errorf("customer phone %s: %w", c.Phone, domain.ErrConflict)
		}
	}
	t.s.customers[c.ID] = *c
	return nil
}

func (t *tenantStore) DeleteCustomer(_ context.Context, id string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	c, ok := t.s.customers[id]
	if !ok || c.TenantID != t.tid {
		return fmt.Errorf("customer %s: %w", id, domain.ErrNotFound)
	}
	for _, o := range t.s.orders {
		if o.CustomerID == id {
			return fmt.Errorf("customer %s has orders: %w", id, domain.ErrConflict)
		}
	}
	delete(t.s.customers, id)
	return nil
}

func (t *tenantStore) ListOrders(context.Context) ([]order.Order, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var out []order.Order
	for _, o := range t.s.orders {
		if o.TenantID == t.tid {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tenantStore) GetOrder(_ context.Context, id string) (*order.Order, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	o, ok := t.s.orders[id]
	if !ok || o.TenantID != t.tid {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	return &o, nil
}

func (t *tenantStore) CreateOrder(ctx context.Context, o *order.Order, apply database.OrderMutation) error {
	if _, err := t.GetCustomer(ctx, o.CustomerID); err != nil {
		return err
	}
	o.TenantID = t.tid
	o.Totals = order.NewTotals()
	totals, err := apply(ctx, o)
	if err != nil {
		return err
	}
	o.Totals = totals
	t.s.mu.Lock()
	t.s.orders[o.ID] = *o
	t.s.mu.Unlock()
	return nil
}

func (t *tenantStore) MutateOrder(ctx context.Context, orderID string, apply database.OrderMutation) (*order.Order, error) {
	l := t.s.rowLock(orderID)
	l.Lock()
	defer l.Unlock()

	o, err := t.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	totals, err := apply(ctx, o)
	if err != nil {
		return nil, err
	}

	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.s.FailCommit {
		return nil, ErrCommit
	}
	o.Totals = totals
	t.s.orders[o.ID] = *o
	return o, nil
}

// Docs is an in-memory docstore.Store.
type Docs struct {
	mu         sync.Mutex
	events     map[string]order.Event
	payments   []order.Payment
	categories map[string]menu.Category
	items      map[string]menu.Item
	packages   map[string]menu.Package

	FailListPayments bool
}

func NewDocs() *Docs {
	return &Docs{
		events:     make(map[string]order.Event),
		categories: make(map[string]menu.Category),
		items:      make(map[string]menu.Item),
		packages:   make(map[string]menu.Package),
	}
}

var _ docstore.Store = (*Docs)(nil)

func (d *Docs) Tenant(tenantID string) docstore.TenantDocs {
	return &tenantDocs{d: d, tid: tenantID}
}

type tenantDocs struct {
	d   *Docs
	tid string
}

func (t *tenantDocs) InsertEvents(_ context.Context, events []order.Event) error {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	for _, e := range events {
		e.TenantID = t.tid
		t.d.events[e.ID] = e
	}
	return nil
}

func (t *tenantDocs) GetEvent(_ context.Context, orderID, eventID string) (*order.Event, error) {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	e, ok := t.d.events[eventID]
	if !ok || e.TenantID != t.tid || e.OrderID != orderID {
		return nil, fmt.Errorf("event %s: %w", eventID, domain.ErrNotFound)
	}
	return &e, nil
}

func (t *tenantDocs) ReplaceEvent(_ context.Context, e *order.Event) error {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	old, ok := t.d.events[e.ID]
	if !ok || old.TenantID != t.tid || old.OrderID != e.OrderID {
		return fmt.Errorf("event %s: %w", e.ID, domain.ErrNotFound)
	}
	e.TenantID = t.tid
	t.d.events[e.ID] = *e
	return nil
}

func (t *tenantDocs) DeleteEvent(_ context.Context, orderID, eventID string) error {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	e, ok := t.d.events[eventID]
	if !ok || e.TenantID != t.tid || e.OrderID != orderID {
		return fmt.Errorf("event %s: %w", eventID, domain.ErrNotFound)
	}
	delete(t.d.events, eventID)
	return nil
}

func (t *tenantDocs) ListEvents(_ context.Context, orderID string) ([]order.Event, error) {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	out := []order.Event{}
	for _, e := range t.d.events {
		if e.TenantID == t.tid && e.OrderID == orderID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tenantDocs) ListEventsByOrders(ctx context.Context, orderIDs []string) (map[string][]order.Event, error) {
	out := make(map[string][]order.Event, len(orderIDs))
	for _, id := range orderIDs {
		evs, _ := t.ListEvents(ctx, id)
		if len(evs) > 0 {
			out[id] = evs
		}
	}
	return out, nil
}

func (t *tenantDocs) InsertPayment(_ context.Context, p *order.Payment) error {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	p.TenantID = t.tid
	t.d.payments = append(t.d.payments, *p)
	return nil
}

func (t *tenantDocs) ListPayments(_ context.Context, orderID string) ([]order.Payment, error) {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	if t.d.FailListPayments {
		return nil, fmt.Errorf("list payments: %w", domain.ErrStorage)
	}
	out := []order.Payment{}
	for _, p := range t.d.payments {
		if p.TenantID == t.tid && p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (t *tenantDocs) CreateCategory(_ context.Context, c *menu.Category) error {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	for _, other := range t.d.categories {
		if other.TenantID == t.tid && other.Name == c.Name {
			return fmt.Errorf("category %q: %w", c.Name, domain.ErrConflict)
		}
	}
	c.TenantID = t.tid
	t.d.categories[c.ID] = *c
	return nil
}

func (t *tenantDocs) GetCategory(_ context.Context, id string) (*menu.Category, error) {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	c, ok := t.d.categories[id]
	if !ok || c.TenantID != t.tid {
		return nil, fmt.Errorf("category %s: %w", id, domain.ErrNotFound)
	}
	return &c, nil
}

func (t *tenantDocs) GetCategoryByName(_ context.Context, name string) (*menu.Category, error) {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	for _, c := range t.d.categories {
		if c.TenantID == t.tid && c.Name == name {
			return &c, nil
		}
	}
	return nil, fmt.Errorf("category %q: %w", name, domain.ErrNotFound)
}

func (t *tenantDocs) ListCategories(context.Context) ([]menu.Category, error) {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	out := []menu.Category{}
	for _, c := range t.d.categories {
		if c.TenantID == t.tid {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (t *tenantDocs) DeleteCategory(_ context.Context, id string) error {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	c, ok := t.d.categories[id]
	if !ok || c.TenantID != t.tid {
		return fmt.Errorf("category %s: %w", id, domain.ErrNotFound)
	}
	delete(t.d.categories, id)
	for iid, it := range t.d.items {
		if it.TenantID == t.tid && it.CategoryID == id {
			delete(t.d.items, iid)
		}
	}
	return nil
}

func (t *tenantDocs) CreateItem(_ context.Context, it *menu.Item) error {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	for _, other := range t.d.items {
		if other.TenantID == t.tid && other.CategoryID == it.CategoryID && other.Name == it.Name {
			return fmt.Errorf("item %q: %w", it.Name, domain.ErrConflict)
		}
	}
	it.TenantID = t.tid
	t.d.items[it.ID] = *it
	return nil
}

func (t *tenantDocs) GetItemByName(_ context.Context, categoryID, name string) (*menu.Item, error) {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	for _, it := range t.d.items {
		if it.TenantID == t.tid && it.CategoryID == categoryID && it.Name == name {
			return &it, nil
		}
	}
	return nil, fmt.Errorf("item %q: %w", name, domain.ErrNotFound)
}

func (t *tenantDocs) ListItems(_ context.Context, categoryID string) ([]menu.Item, error) {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	out := []menu.Item{}
	for _, it := range t.d.items {
		if it.TenantID == t.tid && (categoryID == "" || it.CategoryID == categoryID) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (t *tenantDocs) DeleteItem(_ context.Context, id string) error {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	it, ok := t.d.items[id]
	if !ok || it.TenantID != t.tid {
		return fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	delete(t.d.items, id)
	return nil
}

func (t *tenantDocs) CreatePackage(_ context.Context, p *menu.Package) error {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	for _, other := range t.d.packages {
		if other.TenantID == t.tid && other.Name == p.Name {
			return fmt.Errorf("package %q: %w", p.Name, domain.ErrConflict)
		}
	}
	p.TenantID = t.tid
	t.d.packages[p.ID] = *p
	return nil
}

func (t *tenantDocs) ListPackages(context.Context) ([]menu.Package, error) {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	out := []menu.Package{}
	for _, p := range t.d.packages {
		if p.TenantID == t.tid {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Queue records published messages and fans them out to subscribers synchronously.
type Queue struct {
	mu        sync.Mutex
	published []publishedMsg
	handlers  map[string][]messagequeue.Handler
}

type publishedMsg struct {
	subject string
	data    []byte
}

var _ messagequeue.Queue = (*Queue)(nil)

func (q *Queue) Publish(ctx context.Context, subject string, data []byte) error {
	q.mu.Lock()
	q.published = append(q.published, publishedMsg{subject: subject, data: slices.Clone(data)})
	hs := slices.Clone(q.handlers[subject])
	q.mu.Unlock()
	for _, h := range hs {
		_ = h(ctx, subject, data)
	}
	return nil
}

func (q *Queue) Subscribe(_ context.Context, subject string, h messagequeue.Handler) (func(), error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.handlers == nil {
		q.handlers = make(map[string][]messagequeue.Handler)
	}
	q.handlers[subject] = append(q.handlers[subject], h)
	return func() {}, nil
}

func (q *Queue) SubscribeDurable(ctx context.Context, subject, _ string, h messagequeue.Handler) (func(), error) {
	return q.Subscribe(ctx, subject, h)
}

func (q *Queue) Drain() error      { return nil }
func (q *Queue) Close() error      { return nil }
func (q *Queue) IsConnected() bool { return true }

func (q *Queue) BySubject(subject string) [][]byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out [][]byte
	for _, m := range q.published {
		if m.subject == subject {
			out = append(out, m.data)
		}
	}
	return out
}

// Cache is a map-backed cache.Cache that counts hits.
type Cache struct {
	mu   sync.Mutex
	data map[string][]byte
	hits int
}

func NewCache() *Cache { return &Cache{data: make(map[string][]byte)} }

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if ok {
		c.hits++
	}
	return v, ok, nil
}

func (c *Cache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = slices.Clone(value)
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// Hits reports how many Get calls found a value.
func (c *Cache) Hits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}

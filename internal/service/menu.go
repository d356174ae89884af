package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Strob0t/CaterTrack/internal/domain/menu"
	"github.com/Strob0t/CaterTrack/internal/port/broadcast"
	"github.com/Strob0t/CaterTrack/internal/port/cache"
	"github.com/Strob0t/CaterTrack/internal/port/docstore"
)

const fullMenuCacheTTL = 5 * time.Minute

// EventMenuUpdated is pushed to the tenant's dashboards after a catalog write.
const EventMenuUpdated = "menu.updated"

// MenuService manages categories, items and packages. The assembled full
// menu is cached per tenant and dropped on every catalog write.
type MenuService struct {
	docs  docstore.Store
	cache cache.Cache
	hub   broadcast.Broadcaster
	now   func() time.Time
	newID func() string
}

// NewMenuService creates a menu service. c may be nil.
func NewMenuService(docs docstore.Store, c cache.Cache) *MenuService {
	return &MenuService{
		docs:  docs,
		cache: c,
		now:   func() time.Time { return time.Now().UTC() },
		newID: newID,
	}
}

// SetBroadcaster makes catalog writes notify the clients connected to this
// process. Menu changes are not fanned out across processes.
func (s *MenuService) SetBroadcaster(b broadcast.Broadcaster) { s.hub = b }

func fullMenuKey(tenantID string) string { return cache.TenantKey(tenantID, "menu", "full") }

// CreateCategory adds a category; names are unique per tenant.
func (s *MenuService) CreateCategory(ctx context.Context, tenantID string, req *menu.CreateCategoryRequest) (*menu.Category, error) {
	if err := req.Validate(); err != nil {
		return nil, validationErr(err)
	}
	now := s.now()
	c := &menu.Category{ID: s.newID(), TenantID: tenantID, Name: req.Name, CreatedAt: now, UpdatedAt: now}
	if err := s.docs.Tenant(tenantID).CreateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	s.invalidate(ctx, tenantID)
	return c, nil
}

// ListCategories returns the tenant's categories by name.
func (s *MenuService) ListCategories(ctx context.Context, tenantID string) ([]menu.Category, error) {
	return s.docs.Tenant(tenantID).ListCategories(ctx)
}

// DeleteCategory removes a category and every item in it.
func (s *MenuService) DeleteCategory(ctx context.Context, tenantID, id string) error {
	if err := s.docs.Tenant(tenantID).DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, tenantID)
	return nil
}

// CreateItem adds an item to an existing category of the tenant.
func (s *MenuService) CreateItem(ctx context.Context, tenantID string, req *menu.CreateItemRequest) (*menu.Item, error) {
	if err := req.Validate(); err != nil {
		return nil, validationErr(err)
	}
	docs := s.docs.Tenant(tenantID)
	if _, err := docs.GetCategory(ctx, req.CategoryID); err != nil {
		return nil, fmt.Errorf("category %s: %w", req.CategoryID, err)
	}
	now := s.now()
	it := &menu.Item{
		ID:          s.newID(),
		TenantID:    tenantID,
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := docs.CreateItem(ctx, it); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	s.invalidate(ctx, tenantID)
	return it, nil
}

// ListItems returns all items, or only those of categoryID when set.
func (s *MenuService) ListItems(ctx context.Context, tenantID, categoryID string) ([]menu.Item, error) {
	return s.docs.Tenant(tenantID).ListItems(ctx, categoryID)
}

// DeleteItem removes one item.
func (s *MenuService) DeleteItem(ctx context.Context, tenantID, id string) error {
	if err := s.docs.Tenant(tenantID).DeleteItem(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, tenantID)
	return nil
}

// CreatePackage adds a priced package. Every referenced item must exist in the tenant's menu.
func (s *MenuService) CreatePackage(ctx context.Context, tenantID string, req *menu.CreatePackageRequest) (*menu.Package, error) {
	if err := req.Validate(); err != nil {
		return nil, validationErr(err)
	}
	docs := s.docs.Tenant(tenantID)
	if len(req.Menu) > 0 {
		items, err := docs.ListItems(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("list items: %w", err)
		}
		known := make(map[string]string, len(items))
		for i := range items {
			known[items[i].ID] = items[i].CategoryID
		}
		for i, e := range req.Menu {
			cat, ok := known[e.ItemID]
			if !ok {
				return nil, validationErr(fmt.Errorf("menu[%d]: unknown item %s", i, e.ItemID))
			}
			if e.CategoryID == "" {
				req.Menu[i].CategoryID = cat
			} else if e.CategoryID != cat {
				return nil, validationErr(fmt.Errorf("menu[%d]: item %s is not in category %s", i, e.ItemID, e.CategoryID))
			}
		}
	}

	now := s.now()
	p := &menu.Package{
		ID:          s.newID(),
		TenantID:    tenantID,
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		Menu:        req.Menu,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.Menu == nil {
		p.Menu = []menu.PackageEntry{}
	}
	if err := docs.CreatePackage(ctx, p); err != nil {
		return nil, fmt.Errorf("create package: %w", err)
	}
	return p, nil
}

// ListPackages returns the tenant's packages by name.
func (s *MenuService) ListPackages(ctx context.Context, tenantID string) ([]menu.Package, error) {
	return s.docs.Tenant(tenantID).ListPackages(ctx)
}

// FullMenu returns every category with its items.
func (s *MenuService) FullMenu(ctx context.Context, tenantID string) ([]menu.FullCategory, error) {
	if s.cache != nil {
		if full, ok, err := cache.GetJSON[[]menu.FullCategory](ctx, s.cache, fullMenuKey(tenantID)); err == nil && ok {
			return full, nil
		}
	}

	docs := s.docs.Tenant(tenantID)
	cats, err := docs.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	items, err := docs.ListItems(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	byCat := make(map[string][]menu.Item, len(cats))
	for i := range items {
		byCat[items[i].CategoryID] = append(byCat[items[i].CategoryID], items[i])
	}
	full := make([]menu.FullCategory, 0, len(cats))
	for i := range cats {
		its := byCat[cats[i].ID]
		if its == nil {
			its = []menu.Item{}
		}
		full = append(full, menu.FullCategory{Category: cats[i], Items: its})
	}

	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, fullMenuKey(tenantID), full, fullMenuCacheTTL); err != nil {
			slog.Warn("cache full menu", "tenant_id", tenantID, "error", err)
		}
	}
	return full, nil
}

func (s *MenuService) invalidate(ctx context.Context, tenantID string) {
	if s.cache != nil {
		if err := s.cache.Delete(ctx, fullMenuKey(tenantID)); err != nil {
			slog.Warn("invalidate full menu", "tenant_id", tenantID, "error", err)
		}
	}
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, tenantID, EventMenuUpdated, map[string]string{"tenant_id": tenantID})
	}
}

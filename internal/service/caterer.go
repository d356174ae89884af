package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Strob0t/CaterTrack/internal/domain/caterer"
	"github.com/Strob0t/CaterTrack/internal/port/cache"
	"github.com/Strob0t/CaterTrack/internal/port/database"
)

const profileCacheTTL = 10 * time.Minute

// CatererService reads and updates the tenant profile. Profiles are read on
// most screens and change rarely, so reads go through the cache.
type CatererService struct {
	store database.Store
	cache cache.Cache
	now   func() time.Time
}

// NewCatererService creates a caterer service. c may be nil.
func NewCatererService(store database.Store, c cache.Cache) *CatererService {
	return &CatererService{
		store: store,
		cache: c,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func profileKey(tenantID string) string { return cache.TenantKey(tenantID, "profile") }

// Profile returns the caterer record of tenantID.
func (s *CatererService) Profile(ctx context.Context, tenantID string) (*caterer.Caterer, error) {
	if s.cache != nil {
		if c, ok, err := cache.GetJSON[caterer.Caterer](ctx, s.cache, profileKey(tenantID)); err == nil && ok {
			return &c, nil
		}
	}
	c, err := s.store.GetCaterer(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, profileKey(tenantID), c, profileCacheTTL); err != nil {
			slog.Warn("cache caterer profile", "tenant_id", tenantID, "error", err)
		}
	}
	return c, nil
}

// UpdateProfile applies a partial update and drops the cached copy.
func (s *CatererService) UpdateProfile(ctx context.Context, tenantID string, req caterer.UpdateRequest) (*caterer.Caterer, error) {
	if err := req.Validate(); err != nil {
		return nil, validationErr(err)
	}
	c, err := s.store.GetCaterer(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	req.Apply(c)
	c.UpdatedAt = s.now()
	if err := s.store.UpdateCaterer(ctx, c); err != nil {
		return nil, fmt.Errorf("update caterer: %w", err)
	}
	s.invalidate(ctx, tenantID)
	return c, nil
}

func (s *CatererService) invalidate(ctx context.Context, tenantID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, profileKey(tenantID)); err != nil {
		slog.Warn("invalidate caterer profile", "tenant_id", tenantID, "error", err)
	}
}

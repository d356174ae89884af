package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Strob0t/CaterTrack/internal/domain"
	"github.com/Strob0t/CaterTrack/internal/domain/caterer"
	"github.com/Strob0t/CaterTrack/internal/domain/user"
	"github.com/Strob0t/CaterTrack/internal/service/servicetest"
)

func TestCatererService_ProfileCache(t *testing.T) {
	store := servicetest.NewStore()
	if err := store.CreateCatererWithOwner(context.Background(),
		&caterer.Caterer{ID: tenantA, Name: "Spice Route", Email: "a@example.com", Contact: "1"},
		&user.User{ID: "u1", Email: "a@example.com", Role: user.RoleOwner}); err != nil {
		t.Fatal(err)
	}
	c := servicetest.NewCache()
	svc := NewCatererService(store, c)
	ctx := context.Background()

	p, err := svc.Profile(ctx, tenantA)
	if err != nil || p.Name != "Spice Route" {
		t.Fatalf("profile = %+v, %v", p, err)
	}
	if _, err := svc.Profile(ctx, tenantA); err != nil {
		t.Fatal(err)
	}
	if c.Hits() != 1 {
		t.Fatalf("hits = %d, want 1", c.Hits())
	}

	city := " Pune "
	updated, err := svc.UpdateProfile(ctx, tenantA, caterer.UpdateRequest{City: &city})
	if err != nil || updated.City != "Pune" {
		t.Fatalf("update = %+v, %v", updated, err)
	}
	p, err = svc.Profile(ctx, tenantA)
	if err != nil || p.City != "Pune" {
		t.Fatalf("stale profile after update: %+v, %v", p, err)
	}

	blank := ""
	if _, err := svc.UpdateProfile(ctx, tenantA, caterer.UpdateRequest{Name: &blank}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("blank name: got %v", err)
	}
	if _, err := svc.Profile(ctx, "unknown"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown tenant: got %v", err)
	}
}

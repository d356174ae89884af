package http

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/CaterTrack/internal/config"
	"github.com/Strob0t/CaterTrack/internal/service"
)

const readinessTimeout = 3 * time.Second

// HealthCheck probes one backing dependency for /health/ready.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Auth      *service.AuthService
	Caterers  *service.CatererService
	Customers *service.CustomerService
	Orders    *service.OrderService
	Ledger    *service.Ledger
	Menu      *service.MenuService
	Limits    config.Server
	Checks    []HealthCheck
}

// Health handles GET /health (liveness).
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /health/ready. Every check runs concurrently; any
// failure turns the response into 503 with per-dependency status.
func (h *Handlers) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	results := make([]string, len(h.Checks))
	var g errgroup.Group
	for i, c := range h.Checks {
		g.Go(func() error {
			if err := c.Check(ctx); err != nil {
				results[i] = err.Error()
				return err
			}
			results[i] = "ok"
			return nil
		})
	}
	status := http.StatusOK
	if g.Wait() != nil {
		status = http.StatusServiceUnavailable
	}

	deps := make(map[string]string, len(h.Checks))
	for i, c := range h.Checks {
		deps[c.Name] = results[i]
	}
	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	writeJSON(w, status, map[string]any{"status": overall, "dependencies": deps})
}

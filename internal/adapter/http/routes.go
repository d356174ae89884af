package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/CaterTrack/internal/domain/user"
	"github.com/Strob0t/CaterTrack/internal/middleware"
)

// RouteOptions carries the optional per-route pieces wired in main.
type RouteOptions struct {
	// Idempotency wraps payment creation. Nil disables deduplication.
	Idempotency func(http.Handler) http.Handler
	// AuthLimiter throttles the unauthenticated auth endpoints.
	AuthLimiter func(http.Handler) http.Handler
	// WebSocket serves the order update feed at /ws.
	WebSocket http.HandlerFunc
}

func passthrough(next http.Handler) http.Handler { return next }

// MountRoutes registers all API routes on the given chi router. The Auth
// middleware must already be installed on r.
func MountRoutes(r chi.Router, h *Handlers, opts RouteOptions) {
	if opts.Idempotency == nil {
		opts.Idempotency = passthrough
	}
	if opts.AuthLimiter == nil {
		opts.AuthLimiter = passthrough
	}
	owner := middleware.RequireRole(user.RoleOwner)
	managers := middleware.RequireRole(user.RoleOwner, user.RoleManager)

	r.Get("/health", h.Health)
	r.Get("/health/ready", h.Ready)
	if opts.WebSocket != nil {
		r.Get("/ws", opts.WebSocket)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(opts.AuthLimiter)
				r.Post("/register", h.Register)
				r.Post("/login", h.Login)
				r.Post("/accept", h.AcceptInvite)
				r.Post("/forgot-password", h.ForgotPassword)
				r.Post("/reset-password", h.ResetPassword)
			})
			r.Get("/me", h.Me)
			r.With(owner).Post("/invite", h.Invite)
			r.With(owner).Get("/users", h.ListUsers)
		})

		r.Get("/caterer/profile", h.GetProfile)
		r.With(owner).Put("/caterer/profile", h.UpdateProfile)

		r.Route("/caterers/{"+middleware.TenantParam+"}", func(r chi.Router) {
			r.Use(middleware.RequireTenant)

			// Customers
			r.Get("/customers", h.ListCustomers)
			r.Post("/customers", h.CreateCustomer)
			r.Get("/customers/search", h.SearchCustomer)
			r.Get("/customers/{id}", h.GetCustomer)
			r.Put("/customers/{id}", h.UpdateCustomer)
			r.With(managers).Delete("/customers/{id}", h.DeleteCustomer)

			// Orders, events and payments
			r.Get("/orders", h.ListOrders)
			r.Post("/orders", h.CreateOrder)
			r.Post("/orders/with-customer", h.CreateOrderWithCustomer)
			r.Get("/orders/{id}", h.GetOrder)
			r.Post("/orders/{id}/events", h.AddEvents)
			r.Put("/orders/{id}/events/{eid}", h.UpdateEvent)
			r.Delete("/orders/{id}/events/{eid}", h.DeleteEvent)
			r.Get("/orders/{id}/payments", h.ListPayments)
			r.With(opts.Idempotency).Post("/orders/{id}/payments", h.AddPayment)
			r.With(managers).Post("/orders/{id}/recompute", h.RecomputeOrder)

			// Menu
			r.Route("/menu", func(r chi.Router) {
				r.Get("/categories", h.ListCategories)
				r.With(managers).Post("/categories", h.CreateCategory)
				r.With(managers).Delete("/categories/{id}", h.DeleteCategory)
				r.Get("/items", h.ListItems)
				r.With(managers).Post("/items", h.CreateItem)
				r.With(managers).Delete("/items/{id}", h.DeleteItem)
				r.Get("/packages", h.ListPackages)
				r.With(managers).Post("/packages", h.CreatePackage)
				r.Get("/full", h.FullMenu)
				r.With(managers).Post("/import", h.ImportMenu)
			})
		})
	})
}

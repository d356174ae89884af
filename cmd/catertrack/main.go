package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Strob0t/CaterTrack/internal/adapter/email"
	cthttp "github.com/Strob0t/CaterTrack/internal/adapter/http"
	"github.com/Strob0t/CaterTrack/internal/adapter/mongo"
	ctnats "github.com/Strob0t/CaterTrack/internal/adapter/nats"
	"github.com/Strob0t/CaterTrack/internal/adapter/natskv"
	"github.com/Strob0t/CaterTrack/internal/adapter/otel"
	"github.com/Strob0t/CaterTrack/internal/adapter/postgres"
	"github.com/Strob0t/CaterTrack/internal/adapter/ristretto"
	"github.com/Strob0t/CaterTrack/internal/adapter/tiered"
	"github.com/Strob0t/CaterTrack/internal/adapter/ws"
	"github.com/Strob0t/CaterTrack/internal/config"
	"github.com/Strob0t/CaterTrack/internal/logger"
	"github.com/Strob0t/CaterTrack/internal/middleware"
	"github.com/Strob0t/CaterTrack/internal/resilience"
	"github.com/Strob0t/CaterTrack/internal/service"
)

func main() {
	var err error
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		err = runAdmin(os.Args[2:])
	} else {
		err = run()
	}
	if err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closeLog := logger.New(cfg.Logging)
	defer closeLog.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"auth_enabled", cfg.Auth.Enabled,
		"pg_max_conns", cfg.Postgres.MaxConns,
	)
	if !cfg.Auth.Enabled {
		slog.Warn("authentication disabled, tenant is taken from the X-Tenant-ID header")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability ---

	shutdownOTEL, err := otel.Init(ctx, cfg.OTEL)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTEL(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()
	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	// --- Infrastructure ---

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	applied, err := postgres.RunMigrations(ctx, cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied", "count", applied)

	// MongoDB
	docs, err := mongo.Connect(ctx, cfg.Mongo)
	if err != nil {
		return fmt.Errorf("mongo: %w", err)
	}
	defer func() { _ = docs.Close(context.Background()) }()
	if err := docs.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("mongo indexes: %w", err)
	}
	slog.Info("mongo connected", "database", cfg.Mongo.Database)

	// NATS
	queue, err := ctnats.Connect(ctx, cfg.NATS)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	cacheKV, err := queue.KeyValue(ctx, cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
	if err != nil {
		return fmt.Errorf("cache bucket: %w", err)
	}
	idemKV, err := queue.KeyValue(ctx, cfg.Idempotency.Bucket, cfg.Idempotency.TTL)
	if err != nil {
		return fmt.Errorf("idempotency bucket: %w", err)
	}

	// Cache: ristretto in process, NATS KV shared
	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB, cfg.Cache.L1TTL)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer l1.Close()
	appCache := tiered.New(l1, natskv.New(cacheKV), cfg.Cache.L1TTL)

	// --- Services ---

	store := postgres.NewStore(pool)

	notifications := service.NewNotificationService(queue, resilience.GuardNotifier(email.NewNotifier(cfg.Email), cfg.Breaker))
	cancelNotify, err := notifications.Start(ctx)
	if err != nil {
		return fmt.Errorf("notification subscriber: %w", err)
	}
	defer cancelNotify()

	authSvc := service.NewAuthService(store, cfg.Auth, cfg.Server.FrontendURL, notifications)
	customerSvc := service.NewCustomerService(store)
	ledger := service.NewLedger(store, docs, cfg.Ledger)
	ledger.SetMetrics(metrics)
	if cfg.Ledger.PublishOrderEvents {
		ledger.SetQueue(queue)
	}

	hub := ws.NewHub(cfg.Server.CORSOrigin, middleware.TenantFromRequest)
	defer hub.Close()
	cancelForward, err := hub.ForwardOrderUpdates(ctx, queue)
	if err != nil {
		return fmt.Errorf("order update subscriber: %w", err)
	}
	defer cancelForward()

	menuSvc := service.NewMenuService(docs, appCache)
	menuSvc.SetBroadcaster(hub)

	handlers := &cthttp.Handlers{
		Auth:      authSvc,
		Caterers:  service.NewCatererService(store, appCache),
		Customers: customerSvc,
		Orders:    service.NewOrderService(store, docs, ledger, customerSvc),
		Ledger:    ledger,
		Menu:      menuSvc,
		Limits:    cfg.Server,
		Checks: []cthttp.HealthCheck{
			{Name: "postgres", Check: store.Ping},
			{Name: "mongo", Check: docs.Ping},
			{Name: "nats", Check: func(context.Context) error {
				if !queue.IsConnected() {
					return errors.New("not connected")
				}
				return nil
			}},
		},
	}

	// --- HTTP ---

	limiter := middleware.NewRateLimiter(cfg.Rate)
	limiter.StartCleanup(ctx)

	r := chi.NewRouter()

	r.Use(otel.HTTPMiddleware(cfg.OTEL.ServiceName))
	r.Use(cthttp.CORS(cfg.Server.CORSOrigin))
	r.Use(cthttp.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(cthttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.Auth(authSvc, cfg.Auth.Enabled))

	cthttp.MountRoutes(r, handlers, cthttp.RouteOptions{
		Idempotency: middleware.Idempotency(idemKV),
		AuthLimiter: limiter.Handler,
		WebSocket:   hub.HandleWS,
	})

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := queue.Drain(); err != nil {
		slog.Warn("nats drain", "error", err)
	}
	return nil
}

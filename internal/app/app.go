package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/tiendita-pos/internal/domain/auth"
	"github.com/xenking/tiendita-pos/internal/domain/checkout"
	"github.com/xenking/tiendita-pos/internal/domain/register"
	"github.com/xenking/tiendita-pos/internal/domain/report"
	"github.com/xenking/tiendita-pos/internal/handler"
	"github.com/xenking/tiendita-pos/internal/storage/memory"
	"github.com/xenking/tiendita-pos/internal/storage/postgres"
	"github.com/xenking/tiendita-pos/internal/storage/rediscache"
	"github.com/xenking/tiendita-pos/pkg/health"
	"github.com/xenking/tiendita-pos/pkg/httpmiddleware"
)

// server is the assembled HTTP stack with the resources it owns.
type server struct {
	handler http.Handler
	health  *health.Health
	closers []func()
}

func (s *server) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// newServer connects storage, runs migrations and builds the routed handler.
// The caller must Close the result.
func newServer(ctx context.Context, lg *zap.Logger, tel httpmiddleware.Telemetry, cfg *Config) (_ *server, rerr error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, errors.Wrap(err, "load timezone")
	}

	s := &server{health: health.New()}
	defer func() {
		if rerr != nil {
			s.Close()
		}
	}()

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "create db pool")
	}
	s.closers = append(s.closers, pool.Close)

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return nil, errors.Wrap(err, "run migrations")
	}

	s.health.Add("postgres", health.Readiness, 5*time.Second, health.PingCheck(pool))
	s.health.Add("goroutines", health.Liveness, time.Second, health.GoroutineCountCheck(10000))

	// Cart cache: Redis when configured, otherwise process memory.
	var carts register.CartStore
	if cfg.RedisURL != "" {
		rdb, err := rediscache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, errors.Wrap(err, "connect redis")
		}
		s.closers = append(s.closers, func() { _ = rdb.Close() })

		carts = rediscache.NewCartStore(rdb, cfg.CartTTL)
		s.health.Add("redis", health.Readiness, 2*time.Second, func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		lg.Info("Cart cache: redis", zap.Duration("ttl", cfg.CartTTL))
	} else {
		carts = memory.NewCartStore()
		lg.Warn("Cart cache: memory, carts are lost on restart")
	}

	// Repositories.
	productRepo := postgres.NewProductRepository(pool)
	saleRepo := postgres.NewSaleRepository(pool)
	expenseRepo := postgres.NewExpenseRepository(pool)
	linkRepo := postgres.NewPaymentLinkRepository(pool)
	userRepo := postgres.NewUserRepository(pool)

	// Domain services.
	accounts := auth.NewService(userRepo, userRepo, []byte(cfg.TokenPepper))
	registers := register.NewManager(productRepo, saleRepo, carts, checkout.Options{
		Links:          linkRepo,
		TracerProvider: tel.TracerProvider(),
		MeterProvider:  tel.MeterProvider(),
	})
	reports := report.NewService(saleRepo, expenseRepo)

	h := handler.New(handler.Config{Location: loc}, handler.Deps{
		Accounts:  accounts,
		Registers: registers,
		Reports:   reports,
		Sales:     saleRepo,
		Expenses:  expenseRepo,
		Links:     linkRepo,
	})

	// Router: health endpoints + API routes on one server.
	router := chi.NewRouter()
	router.Use(httpmiddleware.LogRequests())
	router.Get("/livez", s.health.Handler(health.Liveness))
	router.Get("/readyz", s.health.Handler(health.Readiness))
	router.Mount("/api", h.Routes())

	s.handler = httpmiddleware.Wrap(router,
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Recovery(),
		httpmiddleware.RequestID(),
		httpmiddleware.Instrument("pos-api", tel),
		httpmiddleware.SecureHeaders(cfg.Dev),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", "Authorization", "X-Request-ID"},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimit(httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
	)
	return s, nil
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m httpmiddleware.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	srv, err := newServer(ctx, zctx.From(ctx), m, cfg)
	if err != nil {
		return err
	}
	defer srv.Close()
	healthSvc := srv.health

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           srv.handler,
	}

	healthCtx, stopHealth := context.WithCancel(context.WithoutCancel(ctx))
	defer stopHealth()
	go healthSvc.Run(healthCtx, 10*time.Second)
	healthSvc.SetReady(true)

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		stopHealth()
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

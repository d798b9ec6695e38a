// Package app wires the order and user services.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/kart-orders/internal/credential"
	"github.com/xenking/kart-orders/internal/domain/auth"
	"github.com/xenking/kart-orders/internal/domain/order"
	"github.com/xenking/kart-orders/internal/domain/product"
	"github.com/xenking/kart-orders/internal/domain/user"
	"github.com/xenking/kart-orders/internal/handler"
	"github.com/xenking/kart-orders/internal/storage/memory"
	"github.com/xenking/kart-orders/internal/storage/postgres"
	"github.com/xenking/kart-orders/pkg/health"
	"github.com/xenking/kart-orders/pkg/httpmiddleware"
)

// RunOrderService serves the catalog and per-user orders until ctx is
// cancelled. The catalog comes from PostgreSQL when DatabaseURL is set and
// from the built-in products otherwise.
func RunOrderService(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("service", handler.OrderServiceName), zap.String("addr", cfg.Addr))

	codec, err := newCodec(lg, cfg)
	if err != nil {
		return err
	}

	healthSvc := newHealth(handler.OrderServiceName)

	catalog, closeCatalog, err := openCatalog(ctx, lg, cfg, healthSvc)
	if err != nil {
		return err
	}
	defer closeCatalog()
	healthSvc.Add(health.Readiness, "catalog", time.Second, health.NonEmptyCheck("catalog", catalog.Len))

	orderService, err := order.NewService(
		catalog,
		memory.NewOrderStore(cfg.OrderIDPrefix),
		m.MeterProvider().Meter("github.com/xenking/kart-orders/order"),
	)
	if err != nil {
		return errors.Wrap(err, "create order service")
	}

	h := handler.NewOrderHandler(auth.NewGate(codec), orderService, catalog)
	return serve(ctx, lg, m, cfg, handler.OrderServiceName, healthSvc, h.Routes)
}

// RunUserService serves registration, login and profile lookup until ctx
// is cancelled.
func RunUserService(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("service", handler.UserServiceName),
		zap.String("addr", cfg.Addr),
		zap.String("env", cfg.Env),
	)

	codec, err := newCodec(lg, cfg)
	if err != nil {
		return err
	}

	healthSvc := newHealth(handler.UserServiceName)

	users := user.NewService(memory.NewUserRegistry(), credential.NewBcryptHasher(cfg.BcryptCost), codec)
	h := handler.NewUserHandler(auth.NewGate(codec), users, cfg.Env)
	return serve(ctx, lg, m, cfg, handler.UserServiceName, healthSvc, h.Routes)
}

const (
	maxGoroutines = 10000
	maxGCPause    = time.Second
)

// newHealth registers the liveness checks shared by both services.
func newHealth(service string) *health.Health {
	h := health.New(service)
	h.Add(health.Liveness, "goroutines", time.Second, health.GoroutineCountCheck(maxGoroutines))
	h.Add(health.Liveness, "gc_pause", time.Second, health.GCMaxPauseCheck(maxGCPause))
	return h
}

func newCodec(lg *zap.Logger, cfg *Config) (*auth.Codec, error) {
	if cfg.UsingDevSecret() {
		lg.Warn("Using development token secret, set KART_SECRET_KEY or SECRET_KEY")
	}
	codec, err := auth.NewCodec(cfg.SecretKey)
	if err != nil {
		return nil, errors.Wrap(err, "create token codec")
	}
	return codec, nil
}

// openCatalog loads the product catalog. The returned func releases the
// database pool, if any.
func openCatalog(ctx context.Context, lg *zap.Logger, cfg *Config, healthSvc *health.Health) (*product.Catalog, func(), error) {
	if cfg.DatabaseURL == "" {
		lg.Info("Using built-in catalog")
		return product.NewCatalog(product.DefaultProducts()...), func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create db pool")
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, errors.Wrap(err, "run migrations")
	}

	catalog, err := product.LoadCatalog(ctx, postgres.NewProductRepository(pool))
	if err != nil {
		pool.Close()
		return nil, nil, errors.Wrap(err, "load catalog")
	}
	healthSvc.Add(health.Readiness, "postgres", 5*time.Second, health.PingCheck(pool))

	lg.Info("Loaded catalog from database", zap.Int("products", catalog.Len()))
	return catalog, pool.Close, nil
}

// serve runs the HTTP server with the shared middleware chain until ctx is
// cancelled, then drains: readiness goes false, the server waits
// ReadinessDelay for load balancers to notice and shuts down.
func serve(
	ctx context.Context,
	lg *zap.Logger,
	m *app.Telemetry,
	cfg *Config,
	service string,
	healthSvc *health.Health,
	routes func(mux *http.ServeMux),
) error {
	healthSvc.Start(ctx, 10*time.Second)
	defer healthSvc.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	routes(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.Instrument(service, m),
			httpmiddleware.LogRequests(),
		),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		healthSvc.SetReady(false)

		if ctx.Err() != nil {
			lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
			time.Sleep(cfg.Graceful.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})

	healthSvc.SetReady(true)
	return g.Wait()
}

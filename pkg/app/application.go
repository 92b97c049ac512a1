package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"agenda/pkg/config"
	"agenda/pkg/contracts"
	"agenda/pkg/middleware"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/sync/errgroup"
)

// Worker is a long-running loop, such as a Kafka consumer, that returns when
// ctx is cancelled.
type Worker func(ctx context.Context) error

type namedWorker struct {
	name string
	run  Worker
}

type Application struct {
	cfg              *config.Config
	server           *http.Server
	health           *HealthHandler
	idempotencyStore middleware.IdempotencyStore
	rateLimiter      *middleware.RateLimiter
	workers          []namedWorker
	shutdownHooks    []func(ctx context.Context)
}

func NewApplication(cfg *config.Config) *Application {
	a := &Application{
		cfg:    cfg,
		health: NewHealthHandler(cfg.Log),
	}
	if cfg.Client.Mongo != nil {
		a.health.AddCheck("mongo", func(ctx context.Context) error {
			return cfg.Client.Mongo.Ping(ctx, nil)
		})
	}
	if cfg.Client.Redis != nil {
		a.health.AddCheck("redis", func(ctx context.Context) error {
			return cfg.Client.Redis.Ping(ctx).Err()
		})
	}
	return a
}

func (a *Application) Health() *HealthHandler {
	return a.health
}

func (a *Application) AddWorker(name string, w Worker) {
	a.workers = append(a.workers, namedWorker{name: name, run: w})
}

// OnShutdown registers cleanup that runs after the server and workers stop
// and before client connections close.
func (a *Application) OnShutdown(fn func(ctx context.Context)) {
	a.shutdownHooks = append(a.shutdownHooks, fn)
}

func (a *Application) SetApp(appHandler contracts.Handler, authz middleware.Authorizer) {
	if authz == nil {
		a.cfg.Log.Fatal("An authorizer is required for the application endpoints")
	}

	mux := http.NewServeMux()
	health := a.healthHandler()
	mux.Handle("/health", health)
	mux.Handle("/ready", health)
	mux.Handle("/", a.appHandler(appHandler, authz))

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}
	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) healthHandler() http.Handler {
	router := httprouter.New()
	a.health.RegisterRoutes(router)

	var h http.Handler = router
	h = middleware.RequestLogging(a.cfg.Log)(h)
	h = middleware.Recovery(a.cfg.Log)(h)
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
	return h
}

func (a *Application) appHandler(appHandler contracts.Handler, authz middleware.Authorizer) http.Handler {
	router := httprouter.New()
	appHandler.RegisterRoutes(router)

	var exempt []string
	if lr, ok := appHandler.(contracts.LongRunning); ok {
		exempt = lr.LongRunningRoutes()
	}

	a.idempotencyStore = a.newIdempotencyStore()
	a.rateLimiter = middleware.NewRateLimiter(a.cfg.RateLimitRequests, a.cfg.RateLimitWindow, a.cfg.Log)

	var h http.Handler = router
	h = middleware.Idempotency(a.idempotencyStore, a.cfg.Log)(h)
	h = middleware.RequestTimeout(a.cfg.RequestTimeout, exempt...)(h)
	h = middleware.RateLimit(a.rateLimiter)(h)
	h = middleware.RequireAdmin(authz, a.cfg.SessionCookieName, a.cfg.Log)(h)
	h = middleware.ContentTypeValidation(a.cfg.Log)(h)
	h = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(h)
	h = middleware.RequestLogging(a.cfg.Log)(h)
	h = middleware.Recovery(a.cfg.Log)(h)

	a.cfg.Log.Info("Application endpoints configured with full middleware stack",
		"idempotency_backend", a.cfg.IdempotencyBackend,
		"timeout_exempt_routes", exempt,
	)
	return h
}

func (a *Application) newIdempotencyStore() middleware.IdempotencyStore {
	if a.cfg.IdempotencyBackend == config.IdempotencyBackendRedis {
		if a.cfg.Client.Redis == nil {
			a.cfg.Log.Fatal("Redis idempotency backend selected but Redis is not connected")
		}
		return middleware.NewRedisIdempotencyStore(a.cfg.Client.Redis, a.cfg.IdempotencyTTL)
	}
	return middleware.NewInMemoryIdempotencyStore(a.cfg.IdempotencyTTL)
}

// Run serves HTTP and runs the workers until SIGINT/SIGTERM or until one of
// them fails, then shuts everything down.
func (a *Application) Run() {
	if a.server == nil {
		a.cfg.Log.Fatal("SetApp must be called before Run")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	for _, w := range a.workers {
		g.Go(func() error {
			a.cfg.Log.Info("Starting worker", "worker", w.name)
			err := w.run(gctx)
			if err != nil && gctx.Err() == nil {
				return fmt.Errorf("worker %s: %w", w.name, err)
			}
			a.cfg.Log.Info("Worker stopped", "worker", w.name)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			a.cfg.Log.Info("Shutdown signal received")
		}
		a.shutdownServer()
		return nil
	})

	if err := g.Wait(); err != nil {
		a.cfg.Log.Error("Service stopped with error", "error", err)
	}
	a.gracefulShutdown()
}

func (a *Application) shutdownServer() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Error("Could not stop server", "error", err)
		}
	}
	a.cfg.Log.Info("HTTP server stopped")
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Stopping background workers...")
	a.idempotencyStore.Stop()
	a.rateLimiter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	for _, hook := range a.shutdownHooks {
		hook(ctx)
	}

	a.cfg.GracefulShutdown()
	a.cfg.Log.Info("Service stopped gracefully")
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/mainstem/mainstem-bridge/internal/config"
	"github.com/mainstem/mainstem-bridge/internal/database"
	"github.com/mainstem/mainstem-bridge/internal/events"
	idemmemory "github.com/mainstem/mainstem-bridge/internal/idempotency/memory"
	idempostgres "github.com/mainstem/mainstem-bridge/internal/idempotency/postgres"
	"github.com/mainstem/mainstem-bridge/internal/orders/adapters"
	httpadapter "github.com/mainstem/mainstem-bridge/internal/orders/adapters/http"
	mcpadapter "github.com/mainstem/mainstem-bridge/internal/orders/adapters/mcp"
	ordersmemory "github.com/mainstem/mainstem-bridge/internal/orders/adapters/memory"
	orderspostgres "github.com/mainstem/mainstem-bridge/internal/orders/adapters/postgres"
	"github.com/mainstem/mainstem-bridge/internal/orders/adapters/woocommerce"
	ordersapp "github.com/mainstem/mainstem-bridge/internal/orders/app"
	ordersmetrics "github.com/mainstem/mainstem-bridge/internal/orders/metrics"
	"github.com/mainstem/mainstem-bridge/internal/orders/ports"
	"github.com/mainstem/mainstem-bridge/internal/telemetry"
	"github.com/mainstem/mainstem-bridge/internal/transport"
)

func main() {
	logger := telemetry.NewLogger(os.Stdout, slog.LevelInfo)
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("bridge stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, err := telemetry.ParseLevel(cfg.Telemetry.LogLevel)
	if err != nil {
		logger.Warn("falling back to info log level", "error", err)
	}
	logger = telemetry.NewLogger(os.Stdout, level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Auth.APIKeySecret != "" {
		if err := resolveAPIKey(ctx, cfg); err != nil {
			return err
		}
		logger.Info("api key loaded from secret manager")
	}

	tel, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
		OTLPInsecure:   cfg.Telemetry.OTelInsecure,
		EnableTracing:  cfg.Telemetry.EnableTracing,
		EnableMetrics:  cfg.Telemetry.EnableMetrics,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	meter := tel.Meter("github.com/mainstem/mainstem-bridge")

	backend, err := openBackend(ctx, cfg, meter, logger)
	if err != nil {
		return err
	}
	defer backend.close()

	eventBus, err := newEventBus(cfg, meter, logger)
	if err != nil {
		return err
	}

	useCaseMetrics, err := ordersmetrics.NewMetrics(meter)
	if err != nil {
		return fmt.Errorf("create use case metrics: %w", err)
	}
	httpMetrics, err := httpadapter.NewMetrics(meter)
	if err != nil {
		return fmt.Errorf("create http metrics: %w", err)
	}

	service := ordersapp.NewService(ordersapp.Dependencies{
		Orders:      backend.orders,
		Tracker:     backend.tracker,
		Catalog:     backend.catalog,
		Events:      eventBus,
		Idempotency: backend.idempotency,
	}, logger, useCaseMetrics)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if backend.pool != nil {
			if err := database.CheckHealth(r.Context(), backend.pool); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	mux.Handle("GET "+cfg.HTTP.MetricsPath, prometheusHandler())

	httpadapter.NewHandler(service, logger, cfg.Auth.APIKey).Register(mux, cfg.HTTP.BasePath)

	if cfg.MCP.Enabled {
		mcpHandler := mcpadapter.NewHandler(service, logger, cfg.Service.Version).NewHTTPHandler()
		mux.Handle(cfg.MCP.Path, httpadapter.WithAuth(mcpHandler, cfg.Auth.APIKey))
		logger.Info("mcp endpoint enabled", "path", cfg.MCP.Path)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           httpadapter.Wrap(mux, logger, httpMetrics),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server starting",
			"port", cfg.HTTP.Port,
			"backend", cfg.Store.Backend,
			"base_path", cfg.HTTP.BasePath,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownGrace)*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		logger.Info("http server stopped")
		return nil
	})

	return g.Wait()
}

func resolveAPIKey(ctx context.Context, cfg *config.Config) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("create secret manager client: %w", err)
	}
	defer client.Close()

	if err := cfg.ResolveAPIKey(ctx, client); err != nil {
		return fmt.Errorf("resolve api key: %w", err)
	}
	return nil
}

// storeBackend holds the ports served by the configured STORE_BACKEND, already instrumented.
type storeBackend struct {
	orders      ports.OrderRepository
	tracker     ports.ShipmentTracker
	catalog     ports.ProductCatalog
	idempotency ports.IdempotencyStore
	pool        *pgxpool.Pool
}

func (b *storeBackend) close() {
	if b.pool != nil {
		b.pool.Close()
	}
}

func openBackend(ctx context.Context, cfg *config.Config, meter metric.Meter, logger *slog.Logger) (*storeBackend, error) {
	storeMetrics, err := adapters.NewStoreMetrics(meter, cfg.Store.Backend)
	if err != nil {
		return nil, fmt.Errorf("create store metrics: %w", err)
	}

	var (
		orders  ports.OrderRepository
		tracker ports.ShipmentTracker
		catalog ports.ProductCatalog
		backend = &storeBackend{}
	)

	switch cfg.Store.Backend {
	case config.BackendPostgres:
		dbMetrics, err := database.NewMetrics(meter)
		if err != nil {
			return nil, fmt.Errorf("create database metrics: %w", err)
		}
		pool, err := database.NewPool(ctx, cfg.Database.URL, dbMetrics)
		if err != nil {
			return nil, fmt.Errorf("create database pool: %w", err)
		}
		backend.pool = pool

		if cfg.Database.AutoMigrate {
			logger.Info("running database migrations", "path", cfg.Database.MigrationsPath)
			if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
				pool.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
			logger.Info("migrations completed successfully")
		}

		orders = orderspostgres.NewRepository(pool)
		tracker = orderspostgres.NewTracker(pool)
		catalog = orderspostgres.NewCatalog(pool)
		backend.idempotency = idempostgres.NewStore(pool, cfg.Database.IdempotencyTTL)

	case config.BackendWooCommerce:
		wooMetrics, err := woocommerce.NewMetrics(meter)
		if err != nil {
			return nil, fmt.Errorf("create woocommerce metrics: %w", err)
		}
		wooCfg := woocommerce.Config{
			StoreURL:       cfg.WooCommerce.StoreURL,
			ConsumerKey:    cfg.WooCommerce.ConsumerKey,
			ConsumerSecret: cfg.WooCommerce.ConsumerSecret,
			Timeout:        cfg.WooCommerce.Timeout,
		}
		if cfg.WooCommerce.ChromeTLS {
			wooCfg.Transport = transport.NewChromeTransport(10 * time.Second)
		}
		client, err := woocommerce.New(wooCfg, wooMetrics)
		if err != nil {
			return nil, fmt.Errorf("create woocommerce client: %w", err)
		}
		orders, tracker, catalog = client, client, client
		backend.idempotency = idemmemory.NewStore(cfg.Database.IdempotencyTTL)

	case config.BackendMemory:
		store := ordersmemory.NewStore()
		if path := cfg.Store.MemorySeedPath; path != "" {
			if err := store.LoadSeedFile(path); err != nil {
				return nil, err
			}
			logger.Info("seeded in-memory store", "path", path)
		}
		orders, tracker, catalog = store, store, store
		backend.idempotency = idemmemory.NewStore(cfg.Database.IdempotencyTTL)
		logger.Warn("using in-memory store, data is lost on restart")

	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", config.ErrInvalidConfig, cfg.Store.Backend)
	}

	if !cfg.Store.TrackingEnabled {
		tracker = adapters.DisabledTracker{}
	}

	backend.orders = adapters.NewObservableRepository(orders, storeMetrics)
	backend.tracker = adapters.NewObservableTracker(tracker, logger, storeMetrics)
	backend.catalog = adapters.NewObservableCatalog(catalog, storeMetrics)
	return backend, nil
}

func newEventBus(cfg *config.Config, meter metric.Meter, logger *slog.Logger) (ports.EventBus, error) {
	eventMetrics, err := events.NewMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("create event metrics: %w", err)
	}

	var bus ports.EventBus = events.NewLogEventBus(logger)
	if cfg.Events.WebhookURL != "" {
		bus = events.NewWebhookEventBus(cfg.Events.WebhookURL, &http.Client{Timeout: 5 * time.Second})
		logger.Info("order events delivered by webhook")
	}
	return adapters.NewObservableEventBus(bus, eventMetrics), nil
}

// prometheusHandler exposes Go runtime and process collectors. Application metrics go through OTLP.
func prometheusHandler() http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

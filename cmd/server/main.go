package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carnest/carnest-go/internal/backend"
	"github.com/carnest/carnest-go/internal/cache"
	"github.com/carnest/carnest-go/internal/config"
	"github.com/carnest/carnest-go/internal/database"
	"github.com/carnest/carnest-go/internal/events"
	"github.com/carnest/carnest-go/internal/handler"
	"github.com/carnest/carnest-go/internal/logging"
	"github.com/carnest/carnest-go/internal/metrics"
	"github.com/carnest/carnest-go/internal/middleware"
	"github.com/carnest/carnest-go/internal/notify"
	"github.com/carnest/carnest-go/internal/routing"
	"github.com/carnest/carnest-go/internal/service"
	"github.com/carnest/carnest-go/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	ctx := context.Background()

	// Initialize New Relic (optional)
	var nrApp *newrelic.Application
	if cfg.NewRelicEnabled && cfg.NewRelicLicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelicAppName),
			newrelic.ConfigLicense(cfg.NewRelicLicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", slog.String("error", err.Error()))
		} else if err := nrApp.WaitForConnection(10 * time.Second); err != nil {
			logger.Warn("New Relic connection timeout", slog.String("error", err.Error()))
		} else {
			logger.Info("New Relic connected")
		}
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	// Outbound calls join the request's New Relic transaction when there is one.
	httpClient := &http.Client{
		Timeout:   cfg.HTTPClientTimeout,
		Transport: newrelic.NewRoundTripper(http.DefaultTransport),
	}

	// Initialize Redis
	var redisDB *database.RedisDB
	if cfg.UsesRedis() {
		redisDB, err = database.NewRedis(ctx, cfg.RedisURL, cfg.RedisPassword)
		if err != nil {
			if cfg.SessionStore == config.SessionStoreRedis {
				logger.Error("failed to connect to Redis", slog.String("error", err.Error()))
				os.Exit(1)
			}
			logger.Warn("Redis unavailable, using in-process route cache", slog.String("error", err.Error()))
			redisDB = nil
		} else {
			defer redisDB.Close()
			logger.Info("connected to Redis")
		}
	}

	// Initialize PostgreSQL
	var db *database.PostgresDB
	if cfg.SessionStore == config.SessionStorePostgres {
		db, err = database.NewPostgres(ctx, cfg.DatabaseURL, cfg.DBMaxConnections, cfg.DBMaxIdleConnections)
		if err != nil {
			logger.Error("failed to connect to PostgreSQL", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer db.Close()
		logger.Info("connected to PostgreSQL")

		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Error("failed to migrate session schema", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Session persistence
	var tokens session.TokenStore
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		tokens = session.NewRedisTokenStore(redisDB.Client, cfg.SessionKey, 0)
	case config.SessionStorePostgres:
		tokens = session.NewPostgresTokenStore(db.DB, cfg.SessionKey)
	case config.SessionStoreMemory:
		tokens = &session.MemoryTokenStore{}
	default:
		tokens = session.NewFileTokenStore(cfg.SessionFile)
	}

	token, err := tokens.Load(ctx)
	if err != nil {
		logger.Warn("failed to load persisted session", slog.String("error", err.Error()))
	}
	store := session.NewStore(token)

	// Route resolution: cache in front of the quota so cache hits are free.
	var resolver routing.Resolver = routing.NewOSRMResolver(cfg.RoutingURL, httpClient, logger)
	if cfg.RouteQuotaPerMinute > 0 {
		if redisDB != nil {
			resolver = routing.NewQuotaResolver(resolver, routing.NewRedisCounter(redisDB.Client), cfg.RouteQuotaPerMinute, time.Minute, logger)
		} else {
			resolver = routing.NewLocalQuotaResolver(resolver, cfg.RouteQuotaPerMinute)
		}
	}
	if cfg.RouteCacheTTL > 0 {
		var routeCache cache.RouteCache
		if redisDB != nil {
			routeCache = cache.NewRedisRouteCache(redisDB.Client, cfg.RouteCacheTTL)
		} else {
			routeCache = cache.NewMemoryRouteCache(cfg.RouteCacheTTL)
		}
		resolver = routing.NewCachedResolver(resolver, routeCache, logger)
	}

	// Initialize services
	broker := events.NewBroker(64)
	client := backend.NewClient(cfg.BackendURL, httpClient, logger, collector)
	notifier := notify.NewNotifier(cfg.NotificationTTL, broker)
	navigator := service.NewEventNavigator(service.SearchPath, broker)

	selectionService := service.NewSelectionService(resolver, store, broker, collector, logger)
	bookingService := service.NewBookingService(client, store, selectionService, notifier, navigator, broker, collector, logger)
	navigationService := service.NewNavigationService(client, store, tokens, navigator, broker, logger)
	rideViewService := service.NewRideViewService(selectionService, bookingService, store, service.NewEstimateService())

	if store.IsLoggedIn() {
		go navigationService.Mount(ctx)
	}

	// Initialize handlers
	sessionHandler := handler.NewSessionHandler(navigationService)
	shellHandler := handler.NewShellHandler(navigationService, navigator)
	rideHandler := handler.NewRideHandler(client, selectionService, bookingService, rideViewService, navigator, logger)
	notificationHandler := handler.NewNotificationHandler(notifier)
	sseHandler := handler.NewSSEHandler(broker, logger, 0)
	wsHandler := handler.NewWSHandler(broker, logger)

	// Create router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.IdempotencyHeader},
		ExposedHeaders:   []string{"Idempotent-Replayed"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// New Relic middleware
	if nrApp != nil {
		r.Use(middleware.NewRelicMiddleware(nrApp))
	}

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		services := map[string]string{}

		if db != nil {
			services["database"] = "up"
			if err := db.Health(ctx); err != nil {
				services["database"] = "down"
			}
		}
		if redisDB != nil {
			services["redis"] = "up"
			if err := redisDB.Health(ctx); err != nil {
				services["redis"] = "down"
			}
		}

		handler.WriteHealth(w, services)
	})
	r.Handle("/metrics", collector.Handler())

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		sessionHandler.RegisterRoutes(r)
		shellHandler.RegisterRoutes(r)
		rideHandler.RegisterRoutes(r)
		notificationHandler.RegisterRoutes(r)
		sseHandler.RegisterRoutes(r)
		wsHandler.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			if redisDB != nil {
				idempotency := middleware.NewIdempotencyMiddleware(middleware.NewRedisResponseStore(redisDB.Client), logger)
				r.Use(idempotency.Handler)
			}
			rideHandler.RegisterBookingRoutes(r)
		})
	})

	// Create server
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", slog.String("error", err.Error()))
		}
		selectionService.Wait()
		if nrApp != nil {
			nrApp.Shutdown(5 * time.Second)
		}
	}()

	logger.Info("server starting",
		slog.String("port", cfg.Port),
		slog.String("backend", cfg.BackendURL),
		slog.String("session_store", cfg.SessionStore),
		slog.Bool("logged_in", store.IsLoggedIn()),
	)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	<-done
	logger.Info("server stopped gracefully")
}

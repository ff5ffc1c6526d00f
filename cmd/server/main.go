package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/splits-network/notifier/internal/api"
	"github.com/splits-network/notifier/internal/broker"
	"github.com/splits-network/notifier/internal/config"
	"github.com/splits-network/notifier/internal/db"
	"github.com/splits-network/notifier/internal/delivery"
	"github.com/splits-network/notifier/internal/directory"
	"github.com/splits-network/notifier/internal/events"
	"github.com/splits-network/notifier/internal/handlers"
	"github.com/splits-network/notifier/internal/metrics"
	"github.com/splits-network/notifier/internal/provider"
	"github.com/splits-network/notifier/internal/ratelimiter"
	"github.com/splits-network/notifier/internal/repository"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ---- database ----
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations applied")

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	notifRepo := repository.NewPgNotificationRepository(pool)
	dirRepo := repository.NewPgDirectoryRepository(pool)

	prov := provider.NewSendGridProvider(cfg.SendGridAPIKey, cfg.FromName, cfg.FromEmail)
	limiter := ratelimiter.New(cfg.EmailRatePerSec)

	onSent, onFailed := m.DeliveryHooks()
	hooks := delivery.Hooks{OnSent: onSent, OnFailed: onFailed}

	email := delivery.NewEmail(notifRepo, prov, limiter, logger, hooks)
	inApp := delivery.NewInApp(notifRepo, logger, hooks)
	debounce := delivery.NewDebouncer(notifRepo, cfg.DebounceWindow, delivery.SystemClock())

	resolver := directory.NewResolver(dirRepo, logger)
	lookup := directory.NewLookup(dirRepo, logger)

	// ---- event routing ----
	onConsumed, onDropped := m.RouterHooks()
	router := events.NewRouter(logger, events.Hooks{OnConsumed: onConsumed, OnDropped: onDropped})
	handlers.RegisterAll(router, handlers.Deps{
		Resolver: resolver,
		Lookup:   lookup,
		Email:    email,
		InApp:    inApp,
		Debounce: debounce,
		Logger:   logger,
	})

	// ---- broker consumer ----
	manager := broker.NewManager(broker.Config{
		URL:         cfg.AMQPURL,
		Exchange:    cfg.Exchange,
		Queue:       cfg.Queue,
		RoutingKeys: events.RoutingKeys(),
		Prefetch:    cfg.Prefetch,
		MaxAttempts: cfg.MaxReconnectAttempts,
	}, router.Dispatch, logger, func() { m.BrokerReconnects.Inc() })

	if err := manager.Connect(); err != nil {
		// The manager keeps retrying with backoff; the HTTP query surface
		// stays available in the meantime.
		logger.Warn("initial broker connect failed, reconnecting in background", zap.Error(err))
	}

	// ---- HTTP server ----
	httpRouter := api.NewRouter(notifRepo, manager, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      httpRouter,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Stop consuming and tear down the broker connection. Unacked
	// deliveries are requeued by the broker for the next instance.
	if err := manager.Close(); err != nil {
		logger.Error("broker close error", zap.Error(err))
	}

	logger.Info("server stopped cleanly")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	webAdapter "stock-ledger/internal/adapters/web"
	"stock-ledger/internal/app"
	"stock-ledger/internal/config"
	"stock-ledger/internal/core"
	"stock-ledger/internal/db"
	"stock-ledger/internal/events"
	"stock-ledger/internal/logging"
	"stock-ledger/internal/metrics"

	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	var publisher core.EventPublisher = core.NopPublisher{}
	if cfg.RedisURL != "" {
		rdb, err := events.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		publisher = events.NewRedisPublisher(rdb, cfg.EventsChannel)
		logger.Info("publishing events", zap.String("channel", cfg.EventsChannel))
	} else {
		logger.Warn("REDIS_URL is not set, events are discarded")
	}

	m := metrics.New()
	services := app.NewServices(pool, publisher, logger)
	svc := app.NewAppService(services, cfg.DefaultLocation, logger, m)

	handler := webAdapter.NewHandler(svc, webAdapter.Options{
		AllowedOrigins: cfg.Origins(),
		BodyLimit:      cfg.RequestBodyLimit,
		Logger:         logger,
		Metrics:        m,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

package main

import (
	"context"
	"log"
	"time"

	"stock-ledger/internal/config"
	"stock-ledger/internal/db"
	"stock-ledger/internal/logging"
	"stock-ledger/migrations"

	"go.uber.org/zap"
)

var expectedTables = []string{
	"accounts",
	"product_categories",
	"products",
	"product_prices",
	"product_inventory",
	"inventory_transactions",
	"purchase_documents",
	"purchase_document_items",
	"product_vendors",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("config: DATABASE_URL is required")
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, 2)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := migrations.Apply(ctx, pool, logger); err != nil {
		logger.Fatal("migrations", zap.Error(err))
	}

	var missing []string
	for _, table := range expectedTables {
		var exists bool
		if err := pool.QueryRow(ctx, "SELECT to_regclass('public.' || $1) IS NOT NULL", table).Scan(&exists); err != nil {
			logger.Fatal("inspect schema", zap.String("table", table), zap.Error(err))
		}
		if !exists {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		logger.Fatal("schema incomplete", zap.Strings("missing", missing))
	}
	logger.Info("schema verified", zap.Int("tables", len(expectedTables)))
}

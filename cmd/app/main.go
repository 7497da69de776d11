package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"stock-ledger/internal/adapters/cli"
	"stock-ledger/internal/adapters/repl"
	"stock-ledger/internal/app"
	"stock-ledger/internal/config"
	"stock-ledger/internal/core"
	"stock-ledger/internal/db"
	"stock-ledger/internal/events"
	"stock-ledger/internal/logging"

	"go.uber.org/zap"
)

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
	var redisEvents *events.RedisPublisher
	if cfg.RedisURL != "" {
		rdb, err := events.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		redisEvents = events.NewRedisPublisher(rdb, cfg.EventsChannel)
		publisher = redisEvents
	}

	args := os.Args[1:]
	if len(args) > 0 && args[0] == "events" {
		if err := printEvents(ctx, redisEvents, args[1:]); err != nil {
			log.Fatalf("events: %v", err)
		}
		return
	}

	services := app.NewServices(pool, publisher, logger)
	svc := app.NewAppService(services, cfg.DefaultLocation, logger, nil)

	if len(args) == 0 {
		repl.Run(ctx, svc, os.Stdin, os.Stdout)
		return
	}

	if err := cli.Run(ctx, svc, args, os.Stdout); err != nil {
		if errors.Is(err, cli.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		log.Fatalf("%s: %v", core.KindOf(err), err)
	}
}

// printEvents lists the most recent published events, newest first.
func printEvents(ctx context.Context, p *events.RedisPublisher, args []string) error {
	if p == nil {
		return errors.New("REDIS_URL is not set")
	}
	n := 20
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			return fmt.Errorf("count must be a positive integer, got %q", args[0])
		}
		n = v
	}
	recent, err := p.Recent(ctx, n)
	if err != nil {
		return err
	}
	for _, e := range recent {
		payload, _ := json.Marshal(e.Payload)
		fmt.Printf("%s  %-34s %s\n", e.OccurredAt.Format("2006-01-02 15:04:05"), e.Type, payload)
	}
	return nil
}

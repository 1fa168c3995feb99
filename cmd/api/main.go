package main

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"cryptex/config"
	"cryptex/internal/events"
	"cryptex/internal/handler"
	"cryptex/internal/notifier"
	"cryptex/internal/reaper"
	"cryptex/internal/repository"
	"cryptex/internal/server"
	"cryptex/internal/websocket"
	"cryptex/pkg/database"
	"cryptex/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	mode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		mode = logger.ProductionMode
	}
	l := logger.New(mode)
	logger.SetGlobalLogger(l)
	zap.ReplaceGlobals(l.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	registry := events.NewRegistry()
	fanout := events.NewFanoutBroker(registry, cfg.DeliveryTimeout, l.Logger)

	var broker events.Broker = fanout
	if cfg.BrokerBackend == config.BrokerRedis {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		redisBroker := events.NewRedisBroker(fanout, rdb, l.Logger)
		go func() {
			if err := redisBroker.Run(ctx); err != nil && ctx.Err() == nil {
				l.Errorf("redis broker stopped: %s", err)
			}
		}()
		broker = redisBroker
	}

	repo := repository.NewTransactionRepository(pool)
	n := notifier.New(broker)

	sweeper := reaper.New(repo, n, cfg.StaleAfter, cfg.ReaperInterval, l.Logger)
	go sweeper.Run(ctx)

	handlers := &server.Handlers{
		Transactions: handler.NewTransactionHandler(repo, n, l),
		WS:           websocket.NewHandler(broker, websocket.NewLogger(l.Logger)),
	}

	srv := server.New(cfg, l)
	srv.SetupRoutes(handlers, pool)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}

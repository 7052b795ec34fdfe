package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpapi "github.com/settle-hub/settle-hub/internal/api/http"
	appSettlement "github.com/settle-hub/settle-hub/internal/application/settlement"
	"github.com/settle-hub/settle-hub/internal/config"
	"github.com/settle-hub/settle-hub/internal/infrastructure/postgres"
	"github.com/settle-hub/settle-hub/internal/infrastructure/redisfan"
	"github.com/settle-hub/settle-hub/internal/infrastructure/sse"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, int32(cfg.DBMaxConns))
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	// repositories
	sessionRepo := postgres.NewSessionRepository(pool)
	messageRepo := postgres.NewMessageRepository(pool)
	roomRepo := postgres.NewRoomRepository(pool)

	// infrastructure
	sseHub := sse.NewHub()
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis url error: %v", err)
		}
		rdb = redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, event fan-out is process-local only")
			rdb = nil
		}
	}
	bridge := redisfan.NewBridge(sseHub, rdb, logger)

	// services
	settlementSvc := appSettlement.NewManager(
		sessionRepo,
		messageRepo,
		roomRepo,
		roomRepo,
		bridge,
		cfg.SettlementWindow,
		logger,
	)

	// API server
	apiServer := httpapi.NewServer(settlementSvc, sseHub, cfg.SSEClientBuffer)

	httpServer := &http.Server{
		Addr:        cfg.ServerAddr,
		Handler:     apiServer.Router(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// cross-instance fan-out loop
	bridgeCtx, bridgeCancel := context.WithCancel(ctx)
	go func() {
		if err := bridge.Run(bridgeCtx); err != nil {
			logger.Error().Err(err).Msg("redis bridge stopped")
		}
	}()

	// start server
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	bridgeCancel()
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
	sseHub.Stop()
}

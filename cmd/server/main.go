// Package main provides the API server entry point for the advisory engine.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/defibrain/advisory-engine/internal/adapter"
	"github.com/defibrain/advisory-engine/internal/api"
	"github.com/defibrain/advisory-engine/internal/config"
	"github.com/defibrain/advisory-engine/internal/logging"
	"github.com/defibrain/advisory-engine/internal/service"
	"github.com/defibrain/advisory-engine/internal/storage"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logger, err := logging.New(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("advisory engine starting", zap.String("level", cfg.Logging.Level))

	// On-chain ledger reader
	ledger, err := adapter.NewEthereumLedgerReader(&cfg.Chain, logger)
	if err != nil {
		logger.Fatal("failed to initialize ledger reader", zap.Error(err))
	}
	defer ledger.Close()

	// Advisory service client
	advisory := adapter.NewAdvisoryClient(&cfg.Advisory, logger)
	gate := service.NewAdvisoryGate(advisory)

	// Optional view cache
	var viewCache service.ViewCache
	if cfg.Cache.Enabled {
		redis, err := storage.NewRedisCache(&cfg.Cache)
		if err != nil {
			logger.Warn("Redis unavailable, continuing without view cache", zap.Error(err))
		} else {
			defer redis.Close()
			viewCache = storage.NewViewCache(redis, cfg.Cache.TTL, logger)
			logger.Info("view cache enabled", zap.Duration("ttl", cfg.Cache.TTL))
		}
	}

	// Services
	snapshots := service.NewSnapshotService(ledger, logger)
	metrics := service.NewMetricsService()
	insights := service.NewInsightService(advisory, gate, logger)
	confidence := service.NewConfidenceService(advisory, gate, logger)
	market := service.NewMarketService(advisory, gate, adapter.NewSyntheticMarketData(), logger)
	dashboard := service.NewDashboardService(snapshots, metrics, insights, confidence, market, viewCache, logger)

	chatFactory := func() *service.ChatService {
		return service.NewChatService(advisory, gate, logger)
	}

	// HTTP server
	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
	server := api.NewServer(serverConfig, dashboard, advisory, chatFactory, logger)

	// Background refresh of every tracked address
	refreshCtx, cancelRefresh := context.WithCancel(context.Background())
	defer cancelRefresh()
	go dashboard.Run(refreshCtx, cfg.Refresh.Interval)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	logger.Info("server started",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.Duration("refreshInterval", cfg.Refresh.Interval),
	)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancelRefresh()

	ctx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

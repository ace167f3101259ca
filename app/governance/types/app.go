package types

import (
	"context"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/azura-academy/governance/pkg/chain"
	governancestore "github.com/azura-academy/governance/pkg/db/governance"
	gov "github.com/azura-academy/governance/pkg/governance"
	"github.com/azura-academy/governance/pkg/monitor"
	"github.com/azura-academy/governance/pkg/redis"
)

type App struct {
	// Database Client wrapper
	DB *governancestore.DB

	// Proposal lifecycle engine
	Engine *gov.Engine

	// Chain RPC client (receipt polling)
	ChainClient *chain.Client

	// Submission confirmation monitor and its cron scheduler
	Monitor *monitor.Monitor
	Cron    *cron.Cron

	// Redis Client (for WebSocket real-time events)
	RedisClient *redis.Client

	// Zap Logger
	Logger *zap.Logger

	// HTTP Server
	Server *http.Server

	// Vote summary cache (short TTL to keep hot proposals cheap to poll)
	SummaryCache *SummaryCache
}

// Start starts the application.
func (a *App) Start(ctx context.Context) {
	if a.Cron != nil {
		a.Cron.Start()
		a.Logger.Info("Confirmation monitor scheduled")
	}

	go func() { _ = a.Server.ListenAndServe() }()
	<-ctx.Done()

	if a.Cron != nil {
		a.Logger.Info("Stopping confirmation monitor")
		cronCtx := a.Cron.Stop()
		<-cronCtx.Done()
	}

	if a.Monitor != nil {
		a.Monitor.Stop()
	}

	if a.ChainClient != nil {
		a.ChainClient.Close()
	}

	if a.RedisClient != nil {
		a.Logger.Info("Closing Redis connection")
		if err := a.RedisClient.Close(); err != nil {
			a.Logger.Error("Failed to close Redis connection", zap.Error(err))
		}
	}

	if a.DB != nil {
		a.Logger.Info("Closing database connection")
		if err := a.DB.Close(); err != nil {
			a.Logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	a.Logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = a.Server.Shutdown(shutdownCtx)

	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("さようなら!")
}

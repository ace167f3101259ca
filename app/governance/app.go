package governance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/azura-academy/governance/app/governance/types"
	"github.com/azura-academy/governance/pkg/chain"
	governancestore "github.com/azura-academy/governance/pkg/db/governance"
	"github.com/azura-academy/governance/pkg/events"
	gov "github.com/azura-academy/governance/pkg/governance"
	"github.com/azura-academy/governance/pkg/logging"
	"github.com/azura-academy/governance/pkg/monitor"
	"github.com/azura-academy/governance/pkg/redis"
	"github.com/azura-academy/governance/pkg/utils"
)

func Initialize(ctx context.Context) *types.App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr
		panic(err)
	}

	db, err := governancestore.New(ctx, logger)
	if err != nil {
		logger.Fatal("Unable to initialize governance database", zap.Error(err))
	}

	// Redis is optional: without it the lifecycle still works, but WebSocket
	// clients and the payout executor stream get nothing.
	var (
		redisClient *redis.Client
		sink        gov.EventSink
	)
	if utils.Env("REDIS_ENABLED", "true") == "true" {
		redisClient, err = redis.NewClient(ctx, logger)
		if err != nil {
			logger.Warn("Failed to initialize Redis client - real-time events will be disabled",
				zap.Error(err))
			redisClient = nil
		} else {
			sink = events.NewRedisSink(redisClient, logger)
			logger.Info("Redis client initialized for lifecycle events")
		}
	} else {
		logger.Info("Redis disabled - lifecycle events will not be published")
	}

	engine := gov.NewEngine(db, sink, logger, utils.Env("SAFE_ADDRESS", ""))

	// The confirmation monitor needs a chain RPC. It can be switched off for
	// environments without one (CI, local frontend work); submissions then
	// stay pending until a deployment with the monitor settles them.
	var (
		chainClient *chain.Client
		mon         *monitor.Monitor
		scheduler   *cron.Cron
	)
	if utils.Env("MONITOR_ENABLED", "true") == "true" {
		chainClient, err = chain.New(ctx, logger)
		if err != nil {
			logger.Fatal("Unable to connect to chain RPC", zap.Error(err))
		}

		timeout := time.Duration(utils.EnvInt("SUBMISSION_TIMEOUT_MINUTES", 30)) * time.Minute
		mon = monitor.New(engine, chainClient, logger, timeout)

		scheduler = cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger)))
		spec := utils.Env("MONITOR_CRON", "*/10 * * * * *")
		if _, cronErr := scheduler.AddFunc(spec, func() {
			tickCtx, cancel := context.WithTimeout(ctx, 25*time.Second)
			defer cancel()
			if checkErr := mon.Check(tickCtx); checkErr != nil {
				logger.Warn("Monitor pass failed", zap.Error(checkErr))
			}
		}); cronErr != nil {
			logger.Fatal("Invalid monitor cron spec", zap.String("spec", spec), zap.Error(cronErr))
		}
	} else {
		logger.Info("Confirmation monitor disabled")
	}

	return &types.App{
		DB:           db,
		Engine:       engine,
		ChainClient:  chainClient,
		Monitor:      mon,
		Cron:         scheduler,
		RedisClient:  redisClient,
		Logger:       logger,
		SummaryCache: types.NewSummaryCache(),
	}
}

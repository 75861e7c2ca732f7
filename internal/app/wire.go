package app

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/liqscope/internal/cache/redis"
	"github.com/alanyoungcy/liqscope/internal/chain"
	"github.com/alanyoungcy/liqscope/internal/config"
	"github.com/alanyoungcy/liqscope/internal/domain"
	"github.com/alanyoungcy/liqscope/internal/metrics"
	"github.com/alanyoungcy/liqscope/internal/notify"
	"github.com/alanyoungcy/liqscope/internal/ratelimit"
	"github.com/alanyoungcy/liqscope/internal/service"
)

// Dependencies bundles everything the run modes need. Redis-backed members
// are nil when Redis is disabled.
type Dependencies struct {
	Engine  *service.Engine
	Metrics *metrics.Metrics

	APILimiter  domain.RateLimiter
	LockManager domain.LockManager
	SignalBus   domain.SignalBus

	Notifier *notify.Notifier
}

// Wire builds the dependencies for cfg and returns a cleanup function that
// releases them in reverse order.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{Metrics: metrics.New()}

	// --- Redis ---
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		var err error
		redisClient, err = redis.New(ctx, redis.ClientConfig{
			URL:        cfg.Redis.URL,
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
			Prefix:     cfg.Redis.Prefix,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.LockManager = redis.NewLockManager(redisClient, logger)
		deps.SignalBus = redis.NewSignalBus(redisClient)
	}

	// --- Rate limiters ---
	rpcLimiter := newRPCLimiter(cfg.RPCLimit, redisClient)
	deps.APILimiter = newAPILimiter(cfg.Server, redisClient)

	// --- Ledger gateway ---
	eth, err := chain.Dial(ctx, cfg.Chain.RPCURL)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: %w", err)
	}
	closers = append(closers, eth.Close)

	gateway := chain.New(eth, chain.Contracts{
		Pool:         common.HexToAddress(cfg.Chain.Pool),
		DataProvider: common.HexToAddress(cfg.Chain.DataProvider),
		Oracle:       common.HexToAddress(cfg.Chain.Oracle),
	}, chain.Options{
		CallTimeout: cfg.Chain.CallTimeout.Duration,
		Limiter:     rpcLimiter,
		LimiterKey:  "rpc",
		Observer:    deps.Metrics,
		Logger:      logger,
	})

	deps.Engine = service.NewEngine(gateway, service.EngineConfig{
		ReserveTTL:       cfg.Registry.TTL.Duration,
		BatchConcurrency: cfg.Batch.Concurrency,
		Protocol: service.ProtocolInfo{
			Protocol: "Aave V3",
			Network:  cfg.Chain.Network,
			Pool:     common.HexToAddress(cfg.Chain.Pool),
		},
	}, deps.Metrics, logger)

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}

// newRPCLimiter returns nil when limiting is off. A nil *redis.Client falls
// back to the local limiter.
func newRPCLimiter(cfg config.RPCLimitConfig, rc *redis.Client) domain.RateLimiter {
	switch cfg.Backend {
	case config.LimiterNone:
		return nil
	case config.LimiterRedis:
		if rc != nil {
			window := cfg.Window.Duration
			if window <= 0 {
				window = time.Second
			}
			return redis.NewRateLimiter(rc, windowLimit(cfg.PerSecond, window), window)
		}
	}
	return ratelimit.NewLocal(cfg.PerSecond, cfg.Burst)
}

// newAPILimiter shares the per-client budget across replicas when Redis is
// available.
func newAPILimiter(cfg config.ServerConfig, rc *redis.Client) domain.RateLimiter {
	if cfg.RateLimitPerSec <= 0 {
		return nil
	}
	if rc != nil {
		return redis.NewRateLimiter(rc, windowLimit(cfg.RateLimitPerSec, time.Second), time.Second)
	}
	return ratelimit.NewLocal(cfg.RateLimitPerSec, cfg.RateLimitBurst)
}

func windowLimit(perSecond float64, window time.Duration) int {
	return max(1, int(math.Round(perSecond*window.Seconds())))
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load merges the TOML file at path over Defaults and applies environment
// overrides. A missing file, or an empty path, leaves the defaults in place.
// The result is not validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	// A .env file is optional.
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides overwrites fields whose LIQSCOPE_* variable is set.
func applyEnvOverrides(cfg *Config) {
	// ── Chain ──
	setStr(&cfg.Chain.RPCURL, "ETHEREUM_RPC_URL")
	setStr(&cfg.Chain.RPCURL, "LIQSCOPE_CHAIN_RPC_URL")
	setStr(&cfg.Chain.Network, "LIQSCOPE_CHAIN_NETWORK")
	setStr(&cfg.Chain.Pool, "LIQSCOPE_CHAIN_POOL")
	setStr(&cfg.Chain.DataProvider, "LIQSCOPE_CHAIN_DATA_PROVIDER")
	setStr(&cfg.Chain.Oracle, "LIQSCOPE_CHAIN_ORACLE")
	setDuration(&cfg.Chain.CallTimeout, "LIQSCOPE_CHAIN_CALL_TIMEOUT")

	// ── Registry / batch ──
	setDuration(&cfg.Registry.TTL, "LIQSCOPE_REGISTRY_TTL")
	setInt(&cfg.Batch.Concurrency, "LIQSCOPE_BATCH_CONCURRENCY")

	// ── RPC limit ──
	setStr(&cfg.RPCLimit.Backend, "LIQSCOPE_RPC_LIMIT_BACKEND")
	setFloat64(&cfg.RPCLimit.PerSecond, "LIQSCOPE_RPC_LIMIT_PER_SECOND")
	setInt(&cfg.RPCLimit.Burst, "LIQSCOPE_RPC_LIMIT_BURST")
	setDuration(&cfg.RPCLimit.Window, "LIQSCOPE_RPC_LIMIT_WINDOW")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "LIQSCOPE_REDIS_ENABLED")
	setStr(&cfg.Redis.URL, "LIQSCOPE_REDIS_URL")
	setStr(&cfg.Redis.Addr, "LIQSCOPE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "LIQSCOPE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "LIQSCOPE_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "LIQSCOPE_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "LIQSCOPE_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "LIQSCOPE_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.Prefix, "LIQSCOPE_REDIS_PREFIX")

	// ── Server ──
	setStr(&cfg.Server.Addr, "LIQSCOPE_SERVER_ADDR")
	setStr(&cfg.Server.APIKey, "LIQSCOPE_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "LIQSCOPE_SERVER_CORS_ORIGINS")
	setFloat64(&cfg.Server.RateLimitPerSec, "LIQSCOPE_SERVER_RATE_LIMIT_PER_SEC")
	setInt(&cfg.Server.RateLimitBurst, "LIQSCOPE_SERVER_RATE_LIMIT_BURST")
	setBool(&cfg.Server.EnableMCP, "LIQSCOPE_SERVER_ENABLE_MCP")
	setBool(&cfg.Server.EnableWS, "LIQSCOPE_SERVER_ENABLE_WS")

	// ── MCP ──
	setDuration(&cfg.MCP.ToolTimeout, "LIQSCOPE_MCP_TOOL_TIMEOUT")

	// ── Watch ──
	setDuration(&cfg.Watch.Interval, "LIQSCOPE_WATCH_INTERVAL")
	setStringSlice(&cfg.Watch.Addresses, "LIQSCOPE_WATCH_ADDRESSES")
	setDuration(&cfg.Watch.LockTTL, "LIQSCOPE_WATCH_LOCK_TTL")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "LIQSCOPE_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "LIQSCOPE_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "LIQSCOPE_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "LIQSCOPE_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "LIQSCOPE_MODE")
	setStr(&cfg.LogLevel, "LIQSCOPE_LOG_LEVEL")
}

// Typed env-var helpers. Each only mutates the target when the variable is
// present, non-empty and parses.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}

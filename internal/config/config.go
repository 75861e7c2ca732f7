// Package config defines the liqscope configuration and its validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/liqscope/internal/domain"
)

// Ethereum mainnet Aave V3 deployment.
const (
	MainnetPool         = "0x87870Bca3F3fD6335C3F4ce8392D69350B4fA4E2"
	MainnetDataProvider = "0x7B4EB56E7CD4b454BA8ff71E4518426369a138a3"
	MainnetOracle       = "0x54586bE62E3c3580375aE3723C145253060Ca0C2"
)

// Run modes.
const (
	ModeStdio = "stdio"
	ModeServe = "serve"
	ModeWatch = "watch"
)

// Rate limiter backends.
const (
	LimiterNone  = "none"
	LimiterLocal = "local"
	LimiterRedis = "redis"
)

// Config is the root configuration. Fields come from a TOML file and are then
// overridden by LIQSCOPE_* environment variables.
type Config struct {
	Chain    ChainConfig    `toml:"chain"`
	Registry RegistryConfig `toml:"registry"`
	Batch    BatchConfig    `toml:"batch"`
	RPCLimit RPCLimitConfig `toml:"rpc_limit"`
	Redis    RedisConfig    `toml:"redis"`
	Server   ServerConfig   `toml:"server"`
	MCP      MCPConfig      `toml:"mcp"`
	Watch    WatchConfig    `toml:"watch"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// ChainConfig locates the RPC endpoint and the protocol contracts.
type ChainConfig struct {
	RPCURL       string   `toml:"rpc_url"`
	Network      string   `toml:"network"`
	Pool         string   `toml:"pool"`
	DataProvider string   `toml:"data_provider"`
	Oracle       string   `toml:"oracle"`
	CallTimeout  duration `toml:"call_timeout"`
}

// RegistryConfig tunes the reserve cache.
type RegistryConfig struct {
	TTL duration `toml:"ttl"`
}

// BatchConfig tunes batch analysis.
type BatchConfig struct {
	Concurrency int `toml:"concurrency"`
}

// RPCLimitConfig throttles outbound RPC calls. The local backend uses
// PerSecond and Burst; the redis backend allows PerSecond*Window calls per
// Window across all replicas.
type RPCLimitConfig struct {
	Backend   string   `toml:"backend"`
	PerSecond float64  `toml:"per_second"`
	Burst     int      `toml:"burst"`
	Window    duration `toml:"window"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	URL        string `toml:"url"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
	Prefix     string `toml:"prefix"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string   `toml:"addr"`
	APIKey          string   `toml:"api_key"`
	CORSOrigins     []string `toml:"cors_origins"`
	RateLimitPerSec float64  `toml:"rate_limit_per_sec"`
	RateLimitBurst  int      `toml:"rate_limit_burst"`
	ReadTimeout     duration `toml:"read_timeout"`
	WriteTimeout    duration `toml:"write_timeout"`
	EnableMCP       bool     `toml:"enable_mcp"`
	EnableWS        bool     `toml:"enable_ws"`
}

// MCPConfig tunes the tool front end.
type MCPConfig struct {
	Name        string   `toml:"name"`
	ToolTimeout duration `toml:"tool_timeout"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	Interval  duration `toml:"interval"`
	Addresses []string `toml:"addresses"`
	ChunkSize int      `toml:"chunk_size"`
	Channel   string   `toml:"channel"`
	LockTTL   duration `toml:"lock_ttl"`
}

// NotifyConfig holds alert destinations.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration wraps time.Duration so TOML strings like "30s" decode.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config for Ethereum mainnet with no RPC URL set.
func Defaults() Config {
	return Config{
		Chain: ChainConfig{
			Network:      "Ethereum Mainnet",
			Pool:         MainnetPool,
			DataProvider: MainnetDataProvider,
			Oracle:       MainnetOracle,
			CallTimeout:  duration{15 * time.Second},
		},
		Registry: RegistryConfig{TTL: duration{60 * time.Second}},
		Batch:    BatchConfig{Concurrency: 5},
		RPCLimit: RPCLimitConfig{
			Backend:   LimiterLocal,
			PerSecond: 25,
			Burst:     25,
			Window:    duration{time.Second},
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   10,
			MaxRetries: 3,
			Prefix:     "liqscope",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			RateLimitPerSec: 10,
			RateLimitBurst:  20,
			ReadTimeout:     duration{15 * time.Second},
			WriteTimeout:    duration{90 * time.Second},
			EnableMCP:       true,
			EnableWS:        true,
		},
		MCP: MCPConfig{
			Name:        "aave-liquidation-mcp",
			ToolTimeout: duration{60 * time.Second},
		},
		Watch: WatchConfig{
			Interval:  duration{time.Minute},
			ChunkSize: 20,
			Channel:   "liquidations",
		},
		Notify: NotifyConfig{
			Events: []string{"opportunity.high"},
		},
		Mode:     ModeStdio,
		LogLevel: "info",
	}
}

var validModes = map[string]bool{
	ModeStdio: true,
	ModeServe: true,
	ModeWatch: true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLimiters = map[string]bool{
	LimiterNone:  true,
	LimiterLocal: true,
	LimiterRedis: true,
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[c.Mode] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: stdio, serve, watch)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Chain
	if c.Chain.RPCURL == "" {
		errs = append(errs, "chain: rpc_url must be set (or ETHEREUM_RPC_URL)")
	}
	for name, addr := range map[string]string{
		"pool":          c.Chain.Pool,
		"data_provider": c.Chain.DataProvider,
		"oracle":        c.Chain.Oracle,
	} {
		if !domain.IsValidAddress(addr) {
			errs = append(errs, fmt.Sprintf("chain: %s %q is not a valid address", name, addr))
		}
	}
	if c.Chain.CallTimeout.Duration <= 0 {
		errs = append(errs, "chain: call_timeout must be > 0")
	}

	if c.Registry.TTL.Duration < 0 {
		errs = append(errs, "registry: ttl must be >= 0")
	}
	if c.Batch.Concurrency < 1 {
		errs = append(errs, "batch: concurrency must be >= 1")
	}

	// RPC limit
	if !validLimiters[c.RPCLimit.Backend] {
		errs = append(errs, fmt.Sprintf("rpc_limit: unknown backend %q (valid: none, local, redis)", c.RPCLimit.Backend))
	}
	if c.RPCLimit.Backend != LimiterNone && c.RPCLimit.PerSecond <= 0 {
		errs = append(errs, "rpc_limit: per_second must be > 0")
	}
	if c.RPCLimit.Backend == LimiterRedis {
		if !c.Redis.Enabled {
			errs = append(errs, "rpc_limit: redis backend requires redis.enabled")
		}
		if c.RPCLimit.Window.Duration <= 0 {
			errs = append(errs, "rpc_limit: window must be > 0")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.URL == "" && c.Redis.Addr == "" {
			errs = append(errs, "redis: url or addr must be set")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// Server
	if c.Mode == ModeServe && c.Server.Addr == "" {
		errs = append(errs, "server: addr must not be empty")
	}

	// Watch
	if c.Mode == ModeWatch {
		if len(c.Watch.Addresses) == 0 {
			errs = append(errs, "watch: addresses must not be empty in watch mode")
		}
		if c.Watch.Interval.Duration <= 0 {
			errs = append(errs, "watch: interval must be > 0")
		}
	}
	for _, addr := range c.Watch.Addresses {
		if !domain.IsValidAddress(addr) {
			errs = append(errs, fmt.Sprintf("watch: %q is not a valid address", addr))
		}
	}

	// Notify
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

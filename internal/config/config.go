package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"

	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds all configuration for the MCP server.
type Config struct {
	Server   ServerConfig
	Genesys  GenesysConfig
	Poll     PollConfig
	Cache    CacheConfig
	Database DatabaseConfig
	Redis    RedisConfig
	LogLevel string
}

type ServerConfig struct {
	Transport          string
	Port               int
	Env                string
	RateLimitPerMinute int
}

type GenesysConfig struct {
	Region       string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	MaxRetries   int
}

type PollConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

type CacheConfig struct {
	Backend string
	Size    int
	TTL     time.Duration
}

// DatabaseConfig is optional for stdio; an empty URL disables the job-run audit.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Transport:          strings.ToLower(envString("MCP_TRANSPORT", TransportStdio)),
			Port:               envInt("MCP_PORT", 8080),
			Env:                envString("MCP_ENV", "development"),
			RateLimitPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 60),
		},
		Genesys: GenesysConfig{
			Region:       strings.TrimSpace(os.Getenv("GENESYSCLOUD_REGION")),
			ClientID:     os.Getenv("GENESYSCLOUD_OAUTHCLIENT_ID"),
			ClientSecret: os.Getenv("GENESYSCLOUD_OAUTHCLIENT_SECRET"),
			Timeout:      envDuration("GENESYSCLOUD_TIMEOUT", 30*time.Second),
			MaxRetries:   envInt("GENESYSCLOUD_MAX_RETRIES", 3),
		},
		Poll: PollConfig{
			Interval:    envDuration("POLL_INTERVAL", 3*time.Second),
			MaxAttempts: envInt("POLL_MAX_ATTEMPTS", 10),
		},
		Cache: CacheConfig{
			Backend: strings.ToLower(envString("CACHE_BACKEND", CacheMemory)),
			Size:    envInt("CACHE_SIZE", 500),
			TTL:     envDuration("CACHE_TTL", 5*time.Minute),
		},
		Database: databaseFromEnv(),
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		LogLevel: strings.ToLower(envString("LOG_LEVEL", "info")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDatabase reads only the database settings, for commands that never talk
// to the platform.
func LoadDatabase() (DatabaseConfig, error) {
	db := databaseFromEnv()
	if db.URL == "" {
		return db, fmt.Errorf("DATABASE_URL is required")
	}
	return db, nil
}

func databaseFromEnv() DatabaseConfig {
	return DatabaseConfig{
		URL:             os.Getenv("DATABASE_URL"),
		MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// SlogLevel returns the configured level; validate guarantees it is known.
func (c *Config) SlogLevel() slog.Level {
	return logLevels[c.LogLevel]
}

// AuditEnabled reports whether job runs are written to the database.
func (c *Config) AuditEnabled() bool {
	return c.Database.URL != ""
}

func (c *Config) validate() error {
	if c.Genesys.Region == "" {
		return fmt.Errorf("GENESYSCLOUD_REGION is required")
	}
	if strings.Contains(c.Genesys.Region, "://") || strings.Contains(c.Genesys.Region, "/") {
		return fmt.Errorf("GENESYSCLOUD_REGION must be a bare domain such as mypurecloud.com, got %q", c.Genesys.Region)
	}
	if c.Genesys.ClientID == "" {
		return fmt.Errorf("GENESYSCLOUD_OAUTHCLIENT_ID is required")
	}
	if c.Genesys.ClientSecret == "" {
		return fmt.Errorf("GENESYSCLOUD_OAUTHCLIENT_SECRET is required")
	}
	if c.Genesys.Timeout <= 0 {
		return fmt.Errorf("GENESYSCLOUD_TIMEOUT must be positive, got %s", c.Genesys.Timeout)
	}

	switch c.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("MCP_TRANSPORT must be one of stdio, http; got %q", c.Server.Transport)
	}

	if c.Poll.Interval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.Poll.Interval)
	}
	if c.Poll.MaxAttempts <= 0 {
		return fmt.Errorf("POLL_MAX_ATTEMPTS must be positive, got %d", c.Poll.MaxAttempts)
	}

	switch c.Cache.Backend {
	case CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of memory, redis; got %q", c.Cache.Backend)
	}
	if c.Cache.Size <= 0 {
		return fmt.Errorf("CACHE_SIZE must be positive, got %d", c.Cache.Size)
	}

	if c.Cache.Backend == CacheRedis && c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required when CACHE_BACKEND is redis")
	}

	if c.Server.Transport == TransportHTTP {
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when MCP_TRANSPORT is http")
		}
		if c.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required when MCP_TRANSPORT is http")
		}
	}

	if c.Redis.URL != "" && !strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
		return fmt.Errorf("REDIS_URL must start with redis:// or rediss://, got %q", c.Redis.URL)
	}

	if _, ok := logLevels[c.LogLevel]; !ok {
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", c.LogLevel)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// envDuration accepts Go durations ("3s") and bare integers as seconds.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

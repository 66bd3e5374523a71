package config

import (
	"os"
	"strconv"
	"time"

	apperrors "listingradar/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Notification sink selection: "discord" or "redis"
	Sink string

	// Discord webhook configuration
	DiscordWebhookURL string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Cache backend: "memory" or "memcache"
	CacheBackend string
	MemcacheAddr string

	// How long enrichment results (seller profiles, item details) stay cached
	EnrichCacheTTL time.Duration

	// Delay between notification messages within one cycle
	MessageDelay time.Duration

	// Upper bound on a single notification send
	NotifyTimeout time.Duration

	// Search defaults, applied until commands override them
	Marketplace  string
	PerPage      int
	MinPrice     int
	MaxPrice     int
	PollInterval time.Duration

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	perPage, _ := strconv.Atoi(getEnv("SEARCH_PER_PAGE", "10"))
	minPrice, _ := strconv.Atoi(getEnv("SEARCH_MIN_PRICE", "0"))
	maxPrice, _ := strconv.Atoi(getEnv("SEARCH_MAX_PRICE", "100"))
	pollInterval, _ := strconv.Atoi(getEnv("POLL_INTERVAL_SECONDS", "60"))
	cacheTTL, _ := strconv.Atoi(getEnv("ENRICH_CACHE_TTL_SECONDS", "900"))
	msgDelay, _ := strconv.Atoi(getEnv("MESSAGE_DELAY_MS", "1000"))
	notifyTimeout, _ := strconv.Atoi(getEnv("NOTIFY_TIMEOUT_SECONDS", "10"))

	return Config{
		Sink:                 getEnv("NOTIFY_SINK", "discord"),
		DiscordWebhookURL:    getEnv("DISCORD_WEBHOOK_URL", ""),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "listings"),
		RedisStreamCount:     streamCount,
		RedisStreamMaxLength: streamMaxLen,
		CacheBackend:         getEnv("CACHE_BACKEND", "memory"),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", "localhost:11211"),
		EnrichCacheTTL:       time.Duration(cacheTTL) * time.Second,
		MessageDelay:         time.Duration(msgDelay) * time.Millisecond,
		NotifyTimeout:        time.Duration(notifyTimeout) * time.Second,
		Marketplace:          getEnv("MARKETPLACE", "ebay"),
		PerPage:              perPage,
		MinPrice:             minPrice,
		MaxPrice:             maxPrice,
		PollInterval:         time.Duration(pollInterval) * time.Second,
		Environment:          getEnv("LISTINGRADAR_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for unrecoverable startup problems
func (c *Config) Validate() error {
	switch c.Sink {
	case "discord":
		if c.DiscordWebhookURL == "" {
			return apperrors.NewConfiguration("DISCORD_WEBHOOK_URL is required for the discord sink", nil)
		}
	case "redis":
		if c.RedisAddr == "" {
			return apperrors.NewConfiguration("REDIS_ADDR is required for the redis sink", nil)
		}
		if c.RedisStreamCount < 1 {
			return apperrors.NewConfiguration("REDIS_STREAM_COUNT must be at least 1", nil)
		}
	default:
		return apperrors.NewConfiguration("NOTIFY_SINK must be discord or redis", nil)
	}

	switch c.CacheBackend {
	case "memory":
	case "memcache":
		if c.MemcacheAddr == "" {
			return apperrors.NewConfiguration("MEMCACHE_ADDR is required for the memcache backend", nil)
		}
	default:
		return apperrors.NewConfiguration("CACHE_BACKEND must be memory or memcache", nil)
	}

	if c.PerPage < 1 {
		return apperrors.NewConfiguration("SEARCH_PER_PAGE must be positive", nil)
	}
	if c.MinPrice < 0 || c.MaxPrice <= c.MinPrice {
		return apperrors.NewConfiguration("price range must satisfy min >= 0 and max > min", nil)
	}
	if c.PollInterval < time.Second {
		return apperrors.NewConfiguration("POLL_INTERVAL_SECONDS must be at least 1", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"sjsage522/pricescout/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration
	MemcacheAddr string

	// Fetch configuration
	FetchTimeout      time.Duration
	SearchTimeout     time.Duration
	BlockTime         time.Duration
	RateLimitInterval time.Duration
	SearchCacheTTL    time.Duration
	WorkerConcurrency int

	// Marketplace origins used to build search URLs
	AmazonURL   string
	FlipkartURL string
	MyntraURL   string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLength, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "1000"))
	fetchTimeout, _ := strconv.Atoi(getEnv("FETCH_TIMEOUT_SECONDS", "15"))
	searchTimeout, _ := strconv.Atoi(getEnv("SEARCH_TIMEOUT_SECONDS", "10"))
	blockTime, _ := strconv.Atoi(getEnv("BLOCK_TIME_SECONDS", "500"))
	rateInterval, _ := strconv.Atoi(getEnv("RATE_LIMIT_INTERVAL_MS", "500"))
	cacheTTL, _ := strconv.Atoi(getEnv("SEARCH_CACHE_TTL_SECONDS", "0"))
	concurrency, _ := strconv.Atoi(getEnv("WORKER_CONCURRENCY", "4"))

	return &Config{
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "pricescout"),
		RedisStreamCount:     streamCount,
		RedisStreamMaxLength: streamMaxLength,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		FetchTimeout:         time.Duration(fetchTimeout) * time.Second,
		SearchTimeout:        time.Duration(searchTimeout) * time.Second,
		BlockTime:            time.Duration(blockTime) * time.Second,
		RateLimitInterval:    time.Duration(rateInterval) * time.Millisecond,
		SearchCacheTTL:       time.Duration(cacheTTL) * time.Second,
		WorkerConcurrency:    concurrency,
		AmazonURL:            getEnv("AMAZON_URL", "https://www.amazon.in"),
		FlipkartURL:          getEnv("FLIPKART_URL", "https://www.flipkart.com"),
		MyntraURL:            getEnv("MYNTRA_URL", "https://www.myntra.com"),
		Environment:          getEnv("PRICESCOUT_ENVIRONMENT", "development"),
	}
}

// Validate checks that the configuration can drive the engine
func (c *Config) Validate() error {
	if c.FetchTimeout <= 0 {
		return errors.NewConfiguration("FETCH_TIMEOUT_SECONDS must be positive", nil)
	}
	if c.SearchTimeout <= 0 {
		return errors.NewConfiguration("SEARCH_TIMEOUT_SECONDS must be positive", nil)
	}
	if c.RateLimitInterval < 0 {
		return errors.NewConfiguration("RATE_LIMIT_INTERVAL_MS must not be negative", nil)
	}
	if c.WorkerConcurrency <= 0 {
		return errors.NewConfiguration("WORKER_CONCURRENCY must be positive", nil)
	}
	if c.RedisStreamCount <= 0 {
		return errors.NewConfiguration("REDIS_STREAM_COUNT must be positive", nil)
	}
	for name, origin := range map[string]string{
		"AMAZON_URL":   c.AmazonURL,
		"FLIPKART_URL": c.FlipkartURL,
		"MYNTRA_URL":   c.MyntraURL,
	} {
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.NewConfiguration(fmt.Sprintf("%s is not an absolute URL: %q", name, origin), err)
		}
	}
	return nil
}

// IsProduction reports whether the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

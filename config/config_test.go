package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	assert.Equal(t, "localhost:6379", config.RedisAddr)
	assert.Equal(t, 0, config.RedisDB)
	assert.Equal(t, 1, config.RedisStreamCount)
	assert.Equal(t, "", config.MemcacheAddr)
	assert.Equal(t, 15*time.Second, config.FetchTimeout)
	assert.Equal(t, 10*time.Second, config.SearchTimeout)
	assert.Equal(t, 500*time.Second, config.BlockTime)
	assert.Equal(t, 500*time.Millisecond, config.RateLimitInterval)
	assert.Equal(t, "https://www.amazon.in", config.AmazonURL)
	assert.NoError(t, config.Validate())

	// Test with environment variables
	t.Setenv("REDIS_ADDR", "redis.example.com:6379")
	t.Setenv("REDIS_DB", "1")
	t.Setenv("MEMCACHE_ADDR", "memcache.example.com:11211")
	t.Setenv("FETCH_TIMEOUT_SECONDS", "12")
	t.Setenv("SEARCH_CACHE_TTL_SECONDS", "300")
	t.Setenv("FLIPKART_URL", "https://example.com/flipkart")
	t.Setenv("PRICESCOUT_ENVIRONMENT", "production")

	config = LoadConfig()
	assert.Equal(t, "redis.example.com:6379", config.RedisAddr)
	assert.Equal(t, 1, config.RedisDB)
	assert.Equal(t, "memcache.example.com:11211", config.MemcacheAddr)
	assert.Equal(t, 12*time.Second, config.FetchTimeout)
	assert.Equal(t, 5*time.Minute, config.SearchCacheTTL)
	assert.Equal(t, "https://example.com/flipkart", config.FlipkartURL)
	assert.True(t, config.IsProduction())
}

func TestValidate(t *testing.T) {
	config := LoadConfig()
	config.FetchTimeout = 0
	assert.Error(t, config.Validate())

	config = LoadConfig()
	config.MyntraURL = "not a url"
	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "MYNTRA_URL")

	config = LoadConfig()
	config.WorkerConcurrency = 0
	assert.Error(t, config.Validate())
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("CACHE_TTL", "")
	t.Setenv("SCYLLA_HOSTS", "")

	cfg := FromEnv()

	assert.Equal(t, "scylla", cfg.StoreDriver)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, []string{"127.0.0.1"}, cfg.Scylla.Hosts)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("SCYLLA_HOSTS", "10.0.0.1, 10.0.0.2,")
	t.Setenv("NOTIFY_MAX_RETRIES", "7")
	t.Setenv("INVOICE_PDF_ENABLED", "yes")
	t.Setenv("CACHE_TTL", "30s")

	cfg := FromEnv()

	assert.True(t, cfg.UseMemoryStore())
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.Scylla.Hosts)
	assert.Equal(t, 7, cfg.Notify.MaxRetries)
	assert.True(t, cfg.InvoicePDFEnabled)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("REDIS_DB", "abc")
	t.Setenv("RATE_LIMIT_WINDOW", "demain")

	cfg := FromEnv()

	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
}

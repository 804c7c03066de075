package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("JWT_EXPIRY_HOURS", "")

	cfg := Load()

	assert.Equal(t, "development", cfg.Server.Env)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 168, cfg.JWT.ExpiryHours)
	assert.Equal(t, int64(1000000), cfg.Storage.MaxPhotoBytes)
	assert.Equal(t, "sandbox", cfg.Braintree.Environment)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.Expiry())
	assert.Equal(t, time.Minute, cfg.RateLimit.Window())
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SERVER_ENV", "production")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example.com, https://admin.example.com")
	t.Setenv("RATE_LIMIT_REQUESTS", "5")
	t.Setenv("LOG_LEVEL", "warn")

	cfg := Load()

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 5, cfg.RateLimit.Requests)
	assert.Equal(t, "warn", cfg.Server.LogLevel)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "test-secret")

	cfg := Load()

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadSize)
	assert.Equal(t, 10, cfg.MaxBatchImages)
	assert.Equal(t, 224, cfg.ImageSize)
	assert.Equal(t, "local", cfg.StorageDriver)
	assert.Contains(t, cfg.CORSOrigins, "http://localhost:5173")
	assert.Empty(t, cfg.TrustedProxies)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("MAX_UPLOAD_SIZE", "1024")
	t.Setenv("INFERENCE_TIMEOUT", "2s")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("IMAGE_SIZE", "not-a-number")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,127.0.0.1")

	cfg := Load()

	assert.Equal(t, int64(1024), cfg.MaxUploadSize)
	assert.Equal(t, 2*time.Second, cfg.InferenceTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 224, cfg.ImageSize)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.TrustedProxies)
}

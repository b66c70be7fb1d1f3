package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"HTTP_PORT", "PORT", "DATABASE_URL", "DATABASE_PUBLIC_URL", "DATABASE_INTERNAL_URL",
		"POSTGRES_URL", "PGURL", "DATABASE_URL_FILE", "PGURL_FILE",
		"PGHOST", "POSTGRES_HOST", "DATABASE_HOST", "PGUSER", "POSTGRES_USER", "DATABASE_USER",
		"PGPASSWORD", "POSTGRES_PASSWORD", "DATABASE_PASSWORD", "PGDATABASE", "POSTGRES_DB",
		"DATABASE_NAME", "PGPORT", "POSTGRES_PORT", "DATABASE_PORT", "PGSSLMODE", "POSTGRES_SSL_MODE",
		"JWT_SECRET", "JWT_ISSUER", "JWT_EXPIRY", "CORS_ALLOWED_ORIGINS", "KAFKA_BROKERS", "KAFKA_PUBLISH_TIMEOUT",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_FILE", "OTEL_EXPORTER_OTLP_ENDPOINT",
		"BOOTSTRAP_ADMIN_EMAIL", "BOOTSTRAP_ADMIN_PASSWORD",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgresql://app:pw@db:5432/catalog")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "postgres://app:pw@db:5432/catalog", cfg.DatabaseURL)
	assert.Equal(t, 12*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, 15, cfg.ReadTimeoutSec)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, "catalog.products", cfg.Kafka.ProductTopic)
	assert.Equal(t, 2*time.Second, cfg.Kafka.PublishTimeout)
}

func TestLoadDotEnvWithEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"JWT_SECRET=from-file\n"+
			"HTTP_PORT=9000\n"+
			"PGHOST=localhost\n"+
			"PGUSER=catalog\n"+
			"PGPASSWORD=pw\n"+
			"PGSSLMODE=disable\n"+
			"KAFKA_BROKERS=k1:9092, k2:9092\n"+
			"JWT_EXPIRY=30m\n",
	), 0o600))
	t.Setenv("HTTP_PORT", "9100")

	cfg, err := LoadFile(path)

	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.HTTPPort)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, 30*time.Minute, cfg.JWTExpiry)
	assert.Equal(t, "postgres://catalog:pw@localhost:5432/catalog?sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
}

func TestLoadRequiresSecretAndDatabase(t *testing.T) {
	clearEnv(t)
	_, err := LoadFile("")
	assert.ErrorContains(t, err, "database configuration missing")

	t.Setenv("DATABASE_URL", "postgres://x@y/z")
	_, err = LoadFile("")
	assert.ErrorContains(t, err, "JWT_SECRET is required")
}

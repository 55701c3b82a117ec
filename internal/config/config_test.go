package config

import (
	"flag"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// resetFlagSet создаёт новый FlagSet перед каждым вызовом NewConfig,
// чтобы избежать повторной регистрации одних и тех же флагов между тестами.
func resetFlagSet(t *testing.T) {
	t.Helper()
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	// подавляем вывод парсера флагов в тестах
	flag.CommandLine.SetOutput(os.Stderr)
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ENVIRONMENT", "DATABASE_DRIVER", "DATABASE_URI", "AUTH_SECRET", "TOKEN_TTL",
		"IMAGE_MAX_MB", "CORS_ORIGINS", "LOGIN_RATE_LIMIT", "BLOB_DRIVER", "BLOB_DIR",
		"PUBLIC_URL", "S3_REGION", "BASE_URL", "ENABLE_HTTPS", "TOKEN_FILE",
	} {
		t.Setenv(k, "")
	}
}

func TestNewConfig_DefaultsWhenEnvEmpty(t *testing.T) {
	clearEnv(t)
	resetFlagSet(t)
	cfg := NewConfig()

	assert.Equal(t, "dev-secret-key", cfg.AuthSecret)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 20, cfg.ImageMaxSizeMB)
	assert.Equal(t, int64(20*1024*1024), cfg.ImageMaxBytes())
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.NotEmpty(t, cfg.DatabaseDSN)
	assert.Equal(t, "localhost:8081", cfg.BaseURL)
	assert.Equal(t, "http://localhost:8081", cfg.ServerURL)
	assert.Equal(t, "disk", cfg.BlobDriver)
	assert.Equal(t, "http://localhost:8081/cdn", cfg.PublicURL)
	assert.Equal(t, "auto", cfg.S3Region)
	assert.Equal(t, 10, cfg.LoginRateLimit)
	assert.NotEmpty(t, cfg.TokenFile)
	assert.False(t, cfg.IsProd())
}

func TestNewConfig_BaseURLAndHTTPS(t *testing.T) {
	clearEnv(t)
	t.Setenv("BASE_URL", "example.com:443")
	t.Setenv("ENABLE_HTTPS", "true")
	t.Setenv("AUTH_SECRET", "top")
	t.Setenv("IMAGE_MAX_MB", "5")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("ENVIRONMENT", "prod")

	resetFlagSet(t)
	cfg := NewConfig()

	assert.Equal(t, "example.com:443", cfg.BaseURL)
	assert.Equal(t, "https://example.com:443", cfg.ServerURL)
	assert.Equal(t, "https://example.com:443/cdn", cfg.PublicURL)
	assert.Equal(t, "top", cfg.AuthSecret)
	assert.Equal(t, 5, cfg.ImageMaxSizeMB)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.IsProd())
}

func TestNewConfig_InvalidBaseURLFallback(t *testing.T) {
	// Невалидный BASE_URL (со схемой) должен откатиться на localhost:8081
	clearEnv(t)
	t.Setenv("BASE_URL", "http://bad:8080")
	t.Setenv("ENABLE_HTTPS", "false")

	resetFlagSet(t)
	cfg := NewConfig()

	assert.Equal(t, "localhost:8081", cfg.BaseURL)
	assert.True(t, strings.HasPrefix(cfg.ServerURL, "http://localhost:8081"))
}

func TestNewConfig_PublicURLTrimmedAndDriversNormalized(t *testing.T) {
	clearEnv(t)
	t.Setenv("PUBLIC_URL", "https://cdn.example.com/")
	t.Setenv("BLOB_DRIVER", " S3 ")
	t.Setenv("DATABASE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URI", "postgres://u:p@localhost/db")

	resetFlagSet(t)
	cfg := NewConfig()

	assert.Equal(t, "https://cdn.example.com", cfg.PublicURL)
	assert.Equal(t, "s3", cfg.BlobDriver)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, "postgres://u:p@localhost/db", cfg.DatabaseDSN)
}

func TestConfig_AllowedOrigins(t *testing.T) {
	cfg := &Config{CORSOrigins: " http://a.test , ,http://b.test"}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins())
}

func TestNewConfig_LoginRateLimit(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOGIN_RATE_LIMIT", "-1")
	resetFlagSet(t)
	assert.Equal(t, -1, NewConfig().LoginRateLimit, "negative value disables the limit and is kept")

	t.Setenv("LOGIN_RATE_LIMIT", "3")
	resetFlagSet(t)
	assert.Equal(t, 3, NewConfig().LoginRateLimit)
}

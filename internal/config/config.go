package config

import (
	"flag"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server-side settings
	Environment    string        `env:"ENVIRONMENT"`
	DatabaseDriver string        `env:"DATABASE_DRIVER"`
	DatabaseDSN    string        `env:"DATABASE_URI"`
	AuthSecret     string        `env:"AUTH_SECRET"`
	TokenTTL       time.Duration `env:"TOKEN_TTL"`
	ImageMaxSizeMB int           `env:"IMAGE_MAX_MB"`
	CORSOrigins    string        `env:"CORS_ORIGINS"`
	LoginRateLimit int           `env:"LOGIN_RATE_LIMIT"`

	// Bootstrap admin (created on start when absent)
	AdminUsername string `env:"ADMIN_USERNAME"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	// Blob storage
	BlobDriver    string `env:"BLOB_DRIVER"`
	BlobDir       string `env:"BLOB_DIR"`
	PublicURL     string `env:"PUBLIC_URL"`
	S3Bucket      string `env:"S3_BUCKET"`
	S3Region      string `env:"S3_REGION"`
	S3Endpoint    string `env:"S3_ENDPOINT"`
	S3AccessKeyID string `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey   string `env:"S3_SECRET_ACCESS_KEY"`

	// Mockup generation; disabled when GenerativeURL is empty
	GenerativeURL string `env:"GENERATIVE_URL"`
	GenerativeKey string `env:"GENERATIVE_API_KEY"`

	// Shared settings
	BaseURL     string `env:"BASE_URL"`
	EnableHTTPS bool   `env:"ENABLE_HTTPS"`

	// Client-side settings
	ServerURL string `env:"-"`
	TokenFile string `env:"TOKEN_FILE"`
	Version   bool   `env:"-"` // show client version and exit (flag only)
}

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// flags работают ТОЛЬКО если переменные из env не заданы
	// Server flags
	flag.StringVar(&cfg.DatabaseDriver, "db-driver", cfg.DatabaseDriver, "драйвер БД: sqlite, postgres, mysql")
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "секрет для подписи JWT")
	flag.DurationVar(&cfg.TokenTTL, "token-ttl", cfg.TokenTTL, "время жизни токена")
	flag.IntVar(&cfg.ImageMaxSizeMB, "image-max-mb", cfg.ImageMaxSizeMB, "максимальный размер изображения, МБ")
	flag.StringVar(&cfg.BlobDriver, "blob-driver", cfg.BlobDriver, "blob storage driver: disk or s3")
	flag.StringVar(&cfg.BlobDir, "blob-dir", cfg.BlobDir, "directory for the disk blob driver")
	flag.StringVar(&cfg.PublicURL, "public-url", cfg.PublicURL, "public base URL of stored images")
	flag.IntVar(&cfg.LoginRateLimit, "login-rate-limit", cfg.LoginRateLimit, "login attempts per minute per IP, negative disables")
	flag.StringVar(&cfg.CORSOrigins, "cors", cfg.CORSOrigins, "comma separated list of allowed CORS origins")
	// Shared/client flags
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "base address of the ImageHub server (host:port)")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "enable HTTPS (client: prefer https scheme for BaseURL)")
	// Client flags
	flag.StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "path to auth token file (client)")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show client version and exit")

	flag.Parse()

	cfg.applyDefaults()
	return cfg
}

var hostPortRe = regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)

func (cfg *Config) applyDefaults() {
	if cfg.Environment == "" {
		cfg.Environment = "dev"
	}
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = "dev-secret-key"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 7 * 24 * time.Hour
	}
	if cfg.ImageMaxSizeMB <= 0 {
		cfg.ImageMaxSizeMB = 20
	}
	// отрицательное значение отключает ограничение попыток входа
	if cfg.LoginRateLimit == 0 {
		cfg.LoginRateLimit = 10
	}
	if cfg.CORSOrigins == "" {
		cfg.CORSOrigins = "http://localhost:3000"
	}

	cfg.DatabaseDriver = strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver))
	if cfg.DatabaseDriver == "" {
		cfg.DatabaseDriver = "sqlite"
	}
	if cfg.DatabaseDSN == "" && cfg.DatabaseDriver == "sqlite" {
		cfg.DatabaseDSN = "file:imagehub.db?cache=shared"
	}

	// validate BaseURL: must be in "address:port" (no scheme, no path). Otherwise use default.
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = "localhost:8081"
	}
	if cfg.EnableHTTPS {
		cfg.ServerURL = "https://" + cfg.BaseURL
	} else {
		cfg.ServerURL = "http://" + cfg.BaseURL
	}

	cfg.BlobDriver = strings.ToLower(strings.TrimSpace(cfg.BlobDriver))
	if cfg.BlobDriver == "" {
		cfg.BlobDriver = "disk"
	}
	if cfg.BlobDir == "" {
		cfg.BlobDir = filepath.Join("data", "blobs")
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = cfg.ServerURL + "/cdn"
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")
	if cfg.S3Region == "" {
		cfg.S3Region = "auto"
	}

	// Fill client defaults if empty
	if cfg.TokenFile == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			cfg.TokenFile = filepath.Join(dir, "ImageHub", "auth_token")
		} else {
			home, _ := os.UserHomeDir()
			cfg.TokenFile = filepath.Join(home, ".imagehub_token")
		}
	}
}

// IsProd — сервер запущен с боевыми настройками.
func (cfg *Config) IsProd() bool {
	return cfg.Environment == "prod"
}

// AllowedOrigins разбивает CORSOrigins на список без пустых элементов.
func (cfg *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(cfg.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// ImageMaxBytes — лимит загрузки в байтах.
func (cfg *Config) ImageMaxBytes() int64 {
	return int64(cfg.ImageMaxSizeMB) * 1024 * 1024
}

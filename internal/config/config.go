package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName    string
	AppEnv     string
	AppURL     string
	AppVersion string
	Port       string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret   string
	JWTExpiry   time.Duration
	CORSOrigins []string

	// Reverse proxies allowed to set X-Forwarded-For; empty trusts none
	TrustedProxies []string

	// Uploads
	StorageDriver  string // "local" or "s3"
	UploadDir      string
	MaxUploadSize  int64
	MaxBatchImages int

	// Storage (S3-compatible: MinIO, AWS S3, Cloudflare R2, DigitalOcean Spaces, etc.)
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string // Optional: for S3-compatible services
	S3PresignExpiry time.Duration

	// Model
	ModelURL         string // Empty disables inference
	ModelName        string
	ImageSize        int
	InferenceTimeout time.Duration

	// Email
	NotifyEmail  bool
	EmailFrom    string
	ResendAPIKey string

	// Observability (optional)
	SentryDSN string
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName:    envString("APP_NAME", "ClaimGuard"),
		AppEnv:     envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:     envString("APP_URL", "http://localhost:8000"),
		AppVersion: envString("APP_VERSION", "1.0.0"),
		Port:       envString("PORT", "8000"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/claims.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"),

		// Security
		JWTSecret:   envRequired("JWT_SECRET"),
		JWTExpiry:   envDuration("JWT_EXPIRY", 24*time.Hour),
		CORSOrigins: envList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000", "http://127.0.0.1:5173"}),

		TrustedProxies: envList("TRUSTED_PROXIES", nil),

		// Uploads
		StorageDriver:  envString("STORAGE_DRIVER", "local"),
		UploadDir:      envString("UPLOAD_DIR", "./uploads"),
		MaxUploadSize:  envInt64("MAX_UPLOAD_SIZE", 10<<20), // 10 MiB
		MaxBatchImages: envInt("MAX_BATCH_IMAGES", 10),

		// Storage
		S3Region:        envString("S3_REGION", ""),
		S3Bucket:        envString("S3_BUCKET", ""),
		S3AccessKey:     envString("S3_ACCESS_KEY", ""),
		S3SecretKey:     envString("S3_SECRET_KEY", ""),
		S3Endpoint:      envString("S3_ENDPOINT", ""),
		S3PresignExpiry: envDuration("S3_PRESIGN_EXPIRY", 1*time.Hour),

		// Model
		ModelURL:         envString("MODEL_URL", ""),
		ModelName:        envString("MODEL_NAME", "cars_claim_model"),
		ImageSize:        envInt("IMAGE_SIZE", 224),
		InferenceTimeout: envDuration("INFERENCE_TIMEOUT", 15*time.Second),

		// Email
		NotifyEmail:  envBool("NOTIFY_EMAIL", false),
		EmailFrom:    envString("EMAIL_FROM", "noreply@example.com"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),
	}

	if cfg.StorageDriver == "s3" {
		cfg.S3Region = envRequired("S3_REGION")
		cfg.S3Bucket = envRequired("S3_BUCKET")
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures the services a production deployment relies on are configured.
// Development falls back to log mode for email.
func validateProduction(cfg *Config) {
	if cfg.NotifyEmail && cfg.ResendAPIKey == "" {
		slog.Error("production deployment with NOTIFY_EMAIL requires RESEND_API_KEY",
			"hint", "set NOTIFY_EMAIL=false or APP_ENV=development for email log mode")
		os.Exit(1)
	}
	if len(cfg.JWTSecret) < 32 {
		slog.Error("production deployment requires a JWT_SECRET of at least 32 characters")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// envList reads a comma separated list, dropping empty entries.
func envList(key string, def []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

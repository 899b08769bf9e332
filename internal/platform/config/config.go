package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DocumentsBackendLocal = "local"
	DocumentsBackendS3    = "s3"
)

type Config struct {
	Addr               string
	DatabaseURL        string
	JWTSecret          string
	DataEncryptionKey  string
	Environment        string
	RunMigrations      bool
	MigrationsDir      string
	RunSeed            bool
	SeedFile           string
	MaxBodyBytes       int64
	RateLimitPerMinute int
	MetricsEnabled     bool
	CORSAllowedOrigins []string
	DocumentsBackend   string
	DocumentsBucket    string
	DocumentsDir       string
	RequestTimeout     time.Duration
	JobQueueSize       int
	// Zero disables the attendance normalization scheduler.
	AttendanceNormalizeInterval time.Duration
}

func Load() Config {
	return Config{
		Addr:               getEnv("APP_ADDR", ":8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		DataEncryptionKey:  getEnv("DATA_ENCRYPTION_KEY", ""),
		Environment:        getEnv("APP_ENV", "development"),
		RunMigrations:      getEnvBool("RUN_MIGRATIONS", true),
		MigrationsDir:      getEnv("MIGRATIONS_DIR", "migrations"),
		RunSeed:            getEnvBool("RUN_SEED", false),
		SeedFile:           getEnv("SEED_FILE", "seed.yaml"),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		DocumentsBackend:   strings.ToLower(getEnv("DOCUMENTS_BACKEND", DocumentsBackendLocal)),
		DocumentsBucket:    getEnv("DOCUMENTS_BUCKET", "documents"),
		DocumentsDir:       getEnv("DOCUMENTS_DIR", "storage/documents"),
		RequestTimeout:     getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		JobQueueSize:       getEnvInt("JOB_QUEUE_SIZE", 128),

		AttendanceNormalizeInterval: getEnvDuration("ATTENDANCE_NORMALIZE_INTERVAL", 0),
	}
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsProduction() {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for payslip encryption at rest")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	switch c.DocumentsBackend {
	case DocumentsBackendLocal:
		if strings.TrimSpace(c.DocumentsDir) == "" {
			return fmt.Errorf("DOCUMENTS_DIR must be set when DOCUMENTS_BACKEND is local")
		}
	case DocumentsBackendS3:
		if strings.TrimSpace(c.DocumentsBucket) == "" {
			return fmt.Errorf("DOCUMENTS_BUCKET must be set when DOCUMENTS_BACKEND is s3")
		}
	default:
		return fmt.Errorf("DOCUMENTS_BACKEND must be one of local, s3")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.JobQueueSize <= 0 {
		return fmt.Errorf("JOB_QUEUE_SIZE must be positive")
	}
	if c.AttendanceNormalizeInterval < 0 {
		return fmt.Errorf("ATTENDANCE_NORMALIZE_INTERVAL must not be negative")
	}
	return nil
}

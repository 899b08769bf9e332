package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		DatabaseURL:        "postgres://localhost/workpay",
		MaxBodyBytes:       4096,
		RateLimitPerMinute: 60,
		DocumentsBackend:   DocumentsBackendLocal,
		DocumentsDir:       "storage/documents",
		DocumentsBucket:    "documents",
		RequestTimeout:     time.Second,
		JobQueueSize:       8,
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DOCUMENTS_BUCKET", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")

	cfg := Load()
	if cfg.DocumentsBucket != "documents" {
		t.Fatalf("expected default documents bucket, got %q", cfg.DocumentsBucket)
	}
	if cfg.DocumentsBackend != DocumentsBackendLocal {
		t.Fatalf("expected local documents backend, got %q", cfg.DocumentsBackend)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestValidateRequiresDatabaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.DatabaseURL = " "
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing DATABASE_URL")
	}
}

func TestValidateProductionSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Environment = "production"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing JWT_SECRET in production")
	}

	cfg.JWTSecret = "secret"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing DATA_ENCRYPTION_KEY in production")
	}

	cfg.DataEncryptionKey = "key"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateDocumentsBackend(t *testing.T) {
	cfg := validConfig()
	cfg.DocumentsBackend = "ftp"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown documents backend")
	}

	cfg.DocumentsBackend = DocumentsBackendS3
	cfg.DocumentsBucket = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for s3 backend without bucket")
	}
}

func TestAttendanceNormalizeInterval(t *testing.T) {
	t.Setenv("ATTENDANCE_NORMALIZE_INTERVAL", "15m")
	if got := Load().AttendanceNormalizeInterval; got != 15*time.Minute {
		t.Fatalf("expected 15m, got %s", got)
	}

	cfg := validConfig()
	cfg.AttendanceNormalizeInterval = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative normalize interval")
	}
}

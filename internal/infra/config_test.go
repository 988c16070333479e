package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("PORT", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("SIGNED_URL_TTL_SECONDS", "")
	t.Setenv("POLL_INTERVAL_SECONDS", "")
	t.Setenv("POLL_TIMEOUT_SECONDS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.StorageBackend != "filesystem" {
		t.Errorf("StorageBackend = %q, want filesystem", cfg.StorageBackend)
	}
	if cfg.SignedURLTTL != 24*time.Hour {
		t.Errorf("SignedURLTTL = %v, want 24h", cfg.SignedURLTTL)
	}
	if cfg.PollInterval != 5*time.Second || cfg.PollTimeout != 300*time.Second {
		t.Errorf("polling = %v/%v, want 5s/300s", cfg.PollInterval, cfg.PollTimeout)
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when DATABASE_URL is unset")
	}
}

func TestLoadConfigRequiresBucketForS3(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("S3_BUCKET", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when S3 backend has no bucket")
	}

	t.Setenv("S3_BUCKET", "renders")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.S3Bucket != "renders" {
		t.Errorf("S3Bucket = %q", cfg.S3Bucket)
	}
}

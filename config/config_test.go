package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	cleanupEnv := func() {
		os.Unsetenv("RECEIPTSCAN_SERVER_PORT")
		os.Unsetenv("RECEIPTSCAN_SERVER_ENVIRONMENT")
		os.Unsetenv("RECEIPTSCAN_DATABASE_DSN")
		os.Unsetenv("RECEIPTSCAN_OCR_ENGINE")
		os.Unsetenv("RECEIPTSCAN_OCR_PAGE_SEG_MODE")
		os.Unsetenv("RECEIPTSCAN_OCR_AZURE_ENDPOINT")
		os.Unsetenv("RECEIPTSCAN_OCR_AZURE_API_KEY")
		os.Unsetenv("RECEIPTSCAN_MATCHING_THRESHOLD")
		os.Unsetenv("RECEIPTSCAN_CACHE_CATALOG_TTL")
		os.Unsetenv("RECEIPTSCAN_NOTIFY_DAYS")
		os.Unsetenv("RECEIPTSCAN_RATELIMIT_PER_IP")
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("RECEIPTSCAN_DATABASE_DSN", "postgres://localhost/pantry_test")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.OCR.Engine != "tesseract" {
			t.Errorf("OCR.Engine = %s, want tesseract", cfg.OCR.Engine)
		}
		if cfg.OCR.PageSegMode != 4 {
			t.Errorf("OCR.PageSegMode = %d, want 4", cfg.OCR.PageSegMode)
		}
		if cfg.OCR.Timeout != 30*time.Second {
			t.Errorf("OCR.Timeout = %v, want 30s", cfg.OCR.Timeout)
		}
		if cfg.Matching.Threshold != 70.0 {
			t.Errorf("Matching.Threshold = %v, want 70", cfg.Matching.Threshold)
		}
		if cfg.Cache.CatalogTTL != 5*time.Minute {
			t.Errorf("Cache.CatalogTTL = %v, want 5m", cfg.Cache.CatalogTTL)
		}
		if cfg.Notify.Days != 30 {
			t.Errorf("Notify.Days = %d, want 30", cfg.Notify.Days)
		}
		if cfg.RateLimit.PerIP != 100 {
			t.Errorf("RateLimit.PerIP = %d, want 100", cfg.RateLimit.PerIP)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("RECEIPTSCAN_DATABASE_DSN", "postgres://localhost/pantry_test")
		os.Setenv("RECEIPTSCAN_SERVER_PORT", "9090")
		os.Setenv("RECEIPTSCAN_MATCHING_THRESHOLD", "85")
		os.Setenv("RECEIPTSCAN_NOTIFY_DAYS", "7")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Matching.Threshold != 85 {
			t.Errorf("Matching.Threshold = %v, want 85", cfg.Matching.Threshold)
		}
		if cfg.Notify.Days != 7 {
			t.Errorf("Notify.Days = %d, want 7", cfg.Notify.Days)
		}
	})

	t.Run("maps underscored env names onto nested keys", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("RECEIPTSCAN_DATABASE_DSN", "postgres://dbhost/pantry")
		os.Setenv("RECEIPTSCAN_OCR_PAGE_SEG_MODE", "6")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Database.DSN != "postgres://dbhost/pantry" {
			t.Errorf("Database.DSN = %s, want the env value", cfg.Database.DSN)
		}
		if cfg.OCR.PageSegMode != 6 {
			t.Errorf("OCR.PageSegMode = %d, want 6", cfg.OCR.PageSegMode)
		}
	})

	t.Run("fails without a database DSN", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want DSN validation error")
		}
	})

	t.Run("fails for unknown OCR engine", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("RECEIPTSCAN_DATABASE_DSN", "postgres://localhost/pantry_test")
		os.Setenv("RECEIPTSCAN_OCR_ENGINE", "easyocr")
		defer cleanupEnv()

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want engine validation error")
		}
	})

	t.Run("azure engine requires endpoint and key", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("RECEIPTSCAN_DATABASE_DSN", "postgres://localhost/pantry_test")
		os.Setenv("RECEIPTSCAN_OCR_ENGINE", "azure")
		defer cleanupEnv()

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want azure credentials error")
		}

		os.Setenv("RECEIPTSCAN_OCR_AZURE_ENDPOINT", "https://example.cognitiveservices.azure.com")
		os.Setenv("RECEIPTSCAN_OCR_AZURE_API_KEY", "test-key")

		if _, err := Load(); err != nil {
			t.Errorf("Load() error = %v, want nil with azure credentials", err)
		}
	})

	t.Run("rejects out-of-range matching threshold", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("RECEIPTSCAN_DATABASE_DSN", "postgres://localhost/pantry_test")
		os.Setenv("RECEIPTSCAN_MATCHING_THRESHOLD", "140")
		defer cleanupEnv()

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want threshold validation error")
		}
	})
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	OCR       OCRConfig
	Matching  MatchingConfig
	Cache     CacheConfig
	Notify    NotifyConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds the postgres connection settings
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// OCRConfig holds text-extraction engine configuration
type OCRConfig struct {
	Engine        string        `mapstructure:"engine"` // "tesseract" or "azure"
	Language      string        `mapstructure:"language"`
	PageSegMode   int           `mapstructure:"page_seg_mode"`
	Timeout       time.Duration `mapstructure:"timeout"`
	AzureEndpoint string        `mapstructure:"azure_endpoint"`
	AzureAPIKey   string        `mapstructure:"azure_api_key"`
}

// MatchingConfig holds catalog matching configuration
type MatchingConfig struct {
	Threshold          float64 `mapstructure:"threshold"`
	EnableDebugLogging bool    `mapstructure:"enable_debug_logging"`
}

// CacheConfig holds catalog cache configuration
type CacheConfig struct {
	CatalogTTL time.Duration `mapstructure:"catalog_ttl"`
}

// NotifyConfig holds expiry notification configuration
type NotifyConfig struct {
	Days int `mapstructure:"days"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/receiptscan/")

	v.SetEnvPrefix("RECEIPTSCAN")
	// Nested keys like database.dsn map to RECEIPTSCAN_DATABASE_DSN.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults are enough.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Register env-only keys so AutomaticEnv picks them up in Unmarshal.
	v.SetDefault("database.dsn", "")
	v.SetDefault("ocr.azure_endpoint", "")
	v.SetDefault("ocr.azure_api_key", "")

	v.SetDefault("ocr.engine", "tesseract")
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.page_seg_mode", 4) // single column of stacked text
	v.SetDefault("ocr.timeout", "30s")

	v.SetDefault("matching.threshold", 70.0)
	v.SetDefault("matching.enable_debug_logging", false)

	v.SetDefault("cache.catalog_ttl", "5m")

	v.SetDefault("notify.days", 30)

	v.SetDefault("ratelimit.per_ip", 100)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Database.DSN == "" {
		return fmt.Errorf("database DSN is required (set RECEIPTSCAN_DATABASE_DSN)")
	}

	switch config.OCR.Engine {
	case "tesseract":
	case "azure":
		if config.OCR.AzureEndpoint == "" || config.OCR.AzureAPIKey == "" {
			return fmt.Errorf("azure OCR requires RECEIPTSCAN_OCR_AZURE_ENDPOINT and RECEIPTSCAN_OCR_AZURE_API_KEY")
		}
	default:
		return fmt.Errorf("OCR engine must be 'tesseract' or 'azure', got: %s", config.OCR.Engine)
	}

	if config.Matching.Threshold < 0 || config.Matching.Threshold > 100 {
		return fmt.Errorf("matching threshold must be between 0 and 100, got: %.1f", config.Matching.Threshold)
	}

	return nil
}

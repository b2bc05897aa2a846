package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Catalog    CatalogConfig
	Classifier ClassifierConfig
	Cache      CacheConfig
	RateLimit  RateLimitConfig
	Storage    StorageConfig
	USDA       USDAConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxUploadBytes int64    `mapstructure:"max_upload_bytes"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// CatalogConfig points at the nutrition table. An empty path uses the embedded table.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// ClassifierConfig holds image classifier configuration
type ClassifierConfig struct {
	Provider          string        `mapstructure:"provider"` // "none" or "rekognition"
	Region            string        `mapstructure:"region"`
	MaxLabels         int           `mapstructure:"max_labels"`
	MinConfidence     float64       `mapstructure:"min_confidence"` // percent
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

// CacheConfig holds classifier label cache configuration
type CacheConfig struct {
	Type string        `mapstructure:"type"` // "none", "memory" or "lru"
	TTL  time.Duration `mapstructure:"ttl"`
	Size int           `mapstructure:"size"` // lru only
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute, 0 disables
	Burst int `mapstructure:"burst"`
}

// StorageConfig holds analysis history configuration. An empty path disables history.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// USDAConfig holds USDA API configuration (catalog sync only)
type USDAConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/foodlens/")

	v.SetEnvPrefix("FOODLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
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

// LoadDotEnv loads variables from a .env file without overriding existing ones.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.max_upload_bytes", 5*1024*1024)

	v.SetDefault("log.level", "info")

	v.SetDefault("catalog.path", "")

	v.SetDefault("classifier.provider", "none")
	v.SetDefault("classifier.region", "")
	v.SetDefault("classifier.max_labels", 10)
	v.SetDefault("classifier.min_confidence", 30.0)
	v.SetDefault("classifier.timeout", "10s")
	v.SetDefault("classifier.requests_per_second", 5.0)
	v.SetDefault("classifier.burst", 10)

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.size", 1024)

	v.SetDefault("ratelimit.per_ip", 60)
	v.SetDefault("ratelimit.burst", 10)

	v.SetDefault("storage.path", "")

	v.SetDefault("usda.api_key", "")
	v.SetDefault("usda.base_url", "https://api.nal.usda.gov/fdc")
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Classifier.Provider {
	case "none":
	case "rekognition":
		if config.Classifier.Region == "" {
			return fmt.Errorf("classifier region is required for rekognition (set FOODLENS_CLASSIFIER_REGION)")
		}
	default:
		return fmt.Errorf("classifier provider must be 'none' or 'rekognition', got: %s", config.Classifier.Provider)
	}

	if config.Classifier.MinConfidence < 0 || config.Classifier.MinConfidence > 100 {
		return fmt.Errorf("classifier min_confidence must be within 0-100, got: %v", config.Classifier.MinConfidence)
	}

	if config.Classifier.Burst < 0 {
		return fmt.Errorf("classifier burst must not be negative, got: %d", config.Classifier.Burst)
	}

	if config.Cache.Type != "none" && config.Cache.Type != "memory" && config.Cache.Type != "lru" {
		return fmt.Errorf("cache type must be 'none', 'memory' or 'lru', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "lru" && config.Cache.Size <= 0 {
		return fmt.Errorf("cache size must be positive when cache type is 'lru'")
	}

	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("ratelimit per_ip must not be negative, got: %d", config.RateLimit.PerIP)
	}

	if _, err := parseLevel(config.Log.Level); err != nil {
		return err
	}

	return nil
}

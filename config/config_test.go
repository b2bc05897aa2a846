package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Server.Port)
		assert.Equal(t, "development", cfg.Server.Environment)
		assert.Equal(t, int64(5*1024*1024), cfg.Server.MaxUploadBytes)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "", cfg.Catalog.Path)
		assert.Equal(t, "none", cfg.Classifier.Provider)
		assert.Equal(t, 10, cfg.Classifier.MaxLabels)
		assert.Equal(t, 30.0, cfg.Classifier.MinConfidence)
		assert.Equal(t, 10*time.Second, cfg.Classifier.Timeout)
		assert.Equal(t, 10, cfg.Classifier.Burst)
		assert.Equal(t, "memory", cfg.Cache.Type)
		assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
		assert.Equal(t, 60, cfg.RateLimit.PerIP)
		assert.Equal(t, "", cfg.Storage.Path)
		assert.Equal(t, "https://api.nal.usda.gov/fdc", cfg.USDA.BaseURL)
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		t.Setenv("FOODLENS_SERVER_PORT", "9090")
		t.Setenv("FOODLENS_SERVER_ENVIRONMENT", "production")
		t.Setenv("FOODLENS_LOG_LEVEL", "debug")
		t.Setenv("FOODLENS_CATALOG_PATH", "/data/foods.json")
		t.Setenv("FOODLENS_CLASSIFIER_PROVIDER", "rekognition")
		t.Setenv("FOODLENS_CLASSIFIER_REGION", "eu-central-1")
		t.Setenv("FOODLENS_CLASSIFIER_TIMEOUT", "3s")
		t.Setenv("FOODLENS_CLASSIFIER_BURST", "2")
		t.Setenv("FOODLENS_CACHE_TYPE", "lru")
		t.Setenv("FOODLENS_CACHE_SIZE", "64")
		t.Setenv("FOODLENS_CACHE_TTL", "1h")
		t.Setenv("FOODLENS_RATELIMIT_PER_IP", "200")
		t.Setenv("FOODLENS_STORAGE_PATH", "/data/history.db")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9090", cfg.Server.Port)
		assert.Equal(t, "production", cfg.Server.Environment)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "/data/foods.json", cfg.Catalog.Path)
		assert.Equal(t, "rekognition", cfg.Classifier.Provider)
		assert.Equal(t, "eu-central-1", cfg.Classifier.Region)
		assert.Equal(t, 3*time.Second, cfg.Classifier.Timeout)
		assert.Equal(t, 2, cfg.Classifier.Burst)
		assert.Equal(t, "lru", cfg.Cache.Type)
		assert.Equal(t, 64, cfg.Cache.Size)
		assert.Equal(t, time.Hour, cfg.Cache.TTL)
		assert.Equal(t, 200, cfg.RateLimit.PerIP)
		assert.Equal(t, "/data/history.db", cfg.Storage.Path)
	})

	t.Run("fails validation when rekognition has no region", func(t *testing.T) {
		t.Setenv("FOODLENS_CLASSIFIER_PROVIDER", "rekognition")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "region")
	})

	t.Run("fails validation for invalid cache type", func(t *testing.T) {
		t.Setenv("FOODLENS_CACHE_TYPE", "redis")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cache type")
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Log:        LogConfig{Level: "info"},
			Classifier: ClassifierConfig{Provider: "none", MinConfidence: 30},
			Cache:      CacheConfig{Type: "memory"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"rekognition with region", func(c *Config) {
			c.Classifier.Provider = "rekognition"
			c.Classifier.Region = "us-east-1"
		}, false},
		{"unknown provider", func(c *Config) { c.Classifier.Provider = "vision" }, true},
		{"min confidence above 100", func(c *Config) { c.Classifier.MinConfidence = 120 }, true},
		{"negative classifier burst", func(c *Config) { c.Classifier.Burst = -1 }, true},
		{"lru without size", func(c *Config) { c.Cache.Type = "lru" }, true},
		{"lru with size", func(c *Config) {
			c.Cache.Type = "lru"
			c.Cache.Size = 10
		}, false},
		{"cache disabled", func(c *Config) { c.Cache.Type = "none" }, false},
		{"negative rate limit", func(c *Config) { c.RateLimit.PerIP = -1 }, true},
		{"unknown log level", func(c *Config) { c.Log.Level = "verbose" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validate(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
	})

	t.Run("loads variables without overriding existing ones", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		content := "# comment\nFOODLENS_TEST_NEW=from-file\n\nFOODLENS_TEST_EXISTING=from-file\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		t.Setenv("FOODLENS_TEST_EXISTING", "existing-value")
		t.Setenv("FOODLENS_TEST_NEW", "")
		os.Unsetenv("FOODLENS_TEST_NEW")

		require.NoError(t, LoadDotEnv(path))
		defer os.Unsetenv("FOODLENS_TEST_NEW")

		assert.Equal(t, "from-file", os.Getenv("FOODLENS_TEST_NEW"))
		assert.Equal(t, "existing-value", os.Getenv("FOODLENS_TEST_EXISTING"))
	})
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", "development")
	require.NoError(t, err)
	assert.NotNil(t, logger)

	logger, err = NewLogger("warn", "production")
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger("loud", "production")
	assert.Error(t, err)
}

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMethods(t *testing.T) {
	t.Run("Addr returns formatted port", func(t *testing.T) {
		cfg := &Config{Port: 3000}
		assert.Equal(t, ":3000", cfg.Addr())
	})

	t.Run("SessionTTL converts minutes to duration", func(t *testing.T) {
		cfg := &Config{SessionTTLMinutes: 10}
		assert.Equal(t, 10*time.Minute, cfg.SessionTTL())
	})

	t.Run("MaxFileBytes converts megabytes to bytes", func(t *testing.T) {
		cfg := &Config{MaxFileSizeMB: 50}
		assert.Equal(t, int64(50<<20), cfg.MaxFileBytes())
	})

	t.Run("MaxRequestBytes covers a full batch", func(t *testing.T) {
		cfg := &Config{MaxFileSizeMB: 50}
		assert.Greater(t, cfg.MaxRequestBytes(), cfg.MaxFileBytes()*MaxSessionUploadFiles)
	})

	t.Run("AllowedOrigins splits and trims the origin list", func(t *testing.T) {
		cfg := &Config{ClientURL: "http://localhost:3000, https://quickshareqr.app ,"}
		assert.Equal(t, []string{"http://localhost:3000", "https://quickshareqr.app"}, cfg.AllowedOrigins())
	})
}

func TestLoad(t *testing.T) {
	vars := []string{
		"PORT", "DATABASE_URL", "REDIS_URL", "CLIENT_URL",
		"S3_ENDPOINT", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_BUCKET",
		"S3_REGION", "S3_USE_SSL", "S3_PUBLIC_BASE_URL",
		"FILE_EXPIRY_MINUTES", "MAX_FILE_SIZE_MB", "UPLOAD_DIR", "LOG_LEVEL",
	}

	originalEnv := map[string]string{}
	for _, k := range vars {
		originalEnv[k] = os.Getenv(k)
		os.Unsetenv(k)
	}
	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	setRequired := func() {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("S3_ENDPOINT", "localhost:9000")
		os.Setenv("S3_ACCESS_KEY", "minio")
		os.Setenv("S3_SECRET_KEY", "minio123")
	}

	t.Run("loads config with defaults", func(t *testing.T) {
		setRequired()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "", cfg.RedisURL)
		assert.Equal(t, "quickshare", cfg.S3Bucket)
		assert.Equal(t, 10, cfg.SessionTTLMinutes)
		assert.Equal(t, int64(50), cfg.MaxFileSizeMB)
		assert.Equal(t, "./uploads", cfg.UploadDir)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("fails without database url", func(t *testing.T) {
		setRequired()
		os.Unsetenv("DATABASE_URL")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("overrides from environment", func(t *testing.T) {
		setRequired()
		os.Setenv("PORT", "5000")
		os.Setenv("FILE_EXPIRY_MINUTES", "5")
		os.Setenv("MAX_FILE_SIZE_MB", "100")
		defer func() {
			os.Unsetenv("PORT")
			os.Unsetenv("FILE_EXPIRY_MINUTES")
			os.Unsetenv("MAX_FILE_SIZE_MB")
		}()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 5000, cfg.Port)
		assert.Equal(t, 5*time.Minute, cfg.SessionTTL())
		assert.Equal(t, int64(100<<20), cfg.MaxFileBytes())
	})
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Redis backs cross-instance fan-out of real-time events. Optional: with
	// no URL configured, events are delivered in-process only.
	RedisURL string `env:"REDIS_URL"`

	// Comma-separated list of allowed CORS origins.
	ClientURL string `env:"CLIENT_URL" envDefault:"http://localhost:3000"`

	S3Endpoint      string `env:"S3_ENDPOINT,required"`
	S3AccessKey     string `env:"S3_ACCESS_KEY,required"`
	S3SecretKey     string `env:"S3_SECRET_KEY,required"`
	S3Bucket        string `env:"S3_BUCKET" envDefault:"quickshare"`
	S3Region        string `env:"S3_REGION"`
	S3UseSSL        bool   `env:"S3_USE_SSL" envDefault:"true"`
	S3PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`

	SessionTTLMinutes int    `env:"FILE_EXPIRY_MINUTES" envDefault:"10"`
	MaxFileSizeMB     int64  `env:"MAX_FILE_SIZE_MB" envDefault:"50"`
	UploadDir         string `env:"UPLOAD_DIR" envDefault:"./uploads"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c *Config) MaxFileBytes() int64 {
	return c.MaxFileSizeMB << 20
}

// MaxRequestBytes is the ceiling for a whole multipart request body: a full
// batch of maximum-size files plus form-field overhead.
func (c *Config) MaxRequestBytes() int64 {
	return c.MaxFileBytes()*MaxSessionUploadFiles + (1 << 20)
}

func (c *Config) AllowedOrigins() []string {
	parts := strings.Split(c.ClientURL, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

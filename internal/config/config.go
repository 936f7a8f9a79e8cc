package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is read once at startup from the environment, after an optional
// .env file. Variables already set in the environment win over the file.
type Config struct {
	Port           string
	ServiceVersion string
	OTLPEndpoint   string

	PostgresURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CartTTL       time.Duration

	KafkaBrokers []string

	AuthJWTSecret string
	AuthIssuer    string

	EmailServiceURL string

	SweepInterval time.Duration
	SweepGrace    time.Duration

	raw map[string]string
}

func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	c := &Config{raw: map[string]string{}}

	c.Port = c.getEnv("PORT", "8080")
	c.ServiceVersion = c.getEnv("SERVICE_VERSION", "0.1.0")
	c.OTLPEndpoint = c.getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	c.PostgresURL = c.getEnv("POSTGRES_URL", "")
	c.RedisAddr = c.getEnv("REDIS_ADDR", "")
	c.RedisPassword = c.getEnv("REDIS_PASSWORD", "")
	c.AuthJWTSecret = c.getEnv("AUTH_JWT_SECRET", "")
	c.AuthIssuer = c.getEnv("AUTH_ISSUER", "")
	c.EmailServiceURL = c.getEnv("EMAIL_SERVICE_URL", "")

	if brokers := c.getEnv("KAFKA_BROKERS", ""); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				c.KafkaBrokers = append(c.KafkaBrokers, b)
			}
		}
	}

	var err error
	if c.RedisDB, err = strconv.Atoi(c.getEnv("REDIS_DB", "0")); err != nil {
		return nil, fmt.Errorf("REDIS_DB: %w", err)
	}
	if c.CartTTL, err = c.getDuration("CART_TTL", "24h"); err != nil {
		return nil, err
	}
	if c.SweepInterval, err = c.getDuration("SWEEP_INTERVAL", "1m"); err != nil {
		return nil, err
	}
	if c.SweepGrace, err = c.getDuration("SWEEP_GRACE", "15m"); err != nil {
		return nil, err
	}

	return c, nil
}

// Require reports the first of keys that has no value.
func (c *Config) Require(keys ...string) error {
	for _, key := range keys {
		if c.raw[key] == "" {
			return fmt.Errorf("%s environment variable is required", key)
		}
	}
	return nil
}

func (c *Config) getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		value = fallback
	}
	c.raw[key] = value
	return value
}

func (c *Config) getDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(c.getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

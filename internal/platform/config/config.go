// Package config builds the server configuration from the environment so
// main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pstrings "govinda/pkg/platform/strings"
)

// Redis holds connection settings for the token revocation store.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka holds the audit stream settings. Empty brokers disable streaming;
// audit events are still persisted.
type Kafka struct {
	Brokers []string
	Topic   string
}

// RateLimit holds the sliding-window request limits. Zero disables the
// corresponding limiter.
type RateLimit struct {
	PerTenantPerMinute int
	LoginPerMinute     int
}

// Server captures the full process configuration.
type Server struct {
	Addr            string
	PostgresDSN     string
	Redis           Redis
	Kafka           Kafka
	JWTSigningKey   string
	AdminToken      string
	TokenTTL        time.Duration
	ShutdownTimeout time.Duration
	RateLimit       RateLimit
}

// FromEnv reads GOVINDA_* environment variables, with development defaults
// where a missing value is safe.
func FromEnv() Server {
	cfg := Server{
		Addr:            envOr("GOVINDA_ADDR", ":8080"),
		PostgresDSN:     os.Getenv("GOVINDA_POSTGRES_DSN"),
		JWTSigningKey:   envOr("GOVINDA_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		AdminToken:      os.Getenv("GOVINDA_ADMIN_TOKEN"),
		TokenTTL:        durationOr("GOVINDA_TOKEN_TTL", time.Hour),
		ShutdownTimeout: durationOr("GOVINDA_SHUTDOWN_TIMEOUT", 15*time.Second),
		Redis: Redis{
			URL:          os.Getenv("GOVINDA_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: Kafka{
			Topic: envOr("GOVINDA_KAFKA_AUDIT_TOPIC", "govinda.audit"),
		},
		RateLimit: RateLimit{
			PerTenantPerMinute: intOr("GOVINDA_RATE_LIMIT_PER_MINUTE", 300),
			LoginPerMinute:     intOr("GOVINDA_LOGIN_RATE_LIMIT_PER_MINUTE", 10),
		},
	}
	if brokers := os.Getenv("GOVINDA_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = pstrings.DedupeAndTrim(strings.Split(brokers, ","))
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

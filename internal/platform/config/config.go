// Package config builds process configuration from environment variables so
// main stays lean. Every knob has a dev-friendly default.
package config

import (
	"os"
	"strings"
	"time"
)

// Config is the full process configuration.
type Config struct {
	Server Server
	Auth   Auth
	Store  Store
	Redis  Redis
	Kafka  Kafka
	Policy Policy
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Auth configures actor token validation.
type Auth struct {
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
}

// Store selects the tenant/audit persistence backend.
// An empty PostgresDSN selects the in-memory stores.
type Store struct {
	PostgresDSN string
	SeedDemo    bool
}

// Redis configures the distributed approval lock. An empty URL disables
// Redis; the in-process lock is used instead.
type Redis struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	LockTTL      time.Duration
}

// Kafka configures the optional audit event sink. Empty brokers disable it.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Policy configures the blueprint policy table.
type Policy struct {
	// File overlays the built-in rules when set.
	File string
}

// FromEnv builds the configuration from VANTAGE_* environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            envOr("VANTAGE_ADDR", ":8080"),
			ShutdownTimeout: durationOr("VANTAGE_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Auth: Auth{
			// Dev default; override in production.
			JWTSigningKey: envOr("VANTAGE_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:     envOr("VANTAGE_JWT_ISSUER", "vantage"),
			JWTAudience:   envOr("VANTAGE_JWT_AUDIENCE", "vantage-console"),
		},
		Store: Store{
			PostgresDSN: os.Getenv("VANTAGE_POSTGRES_DSN"),
			SeedDemo:    os.Getenv("VANTAGE_SEED_DEMO") != "false",
		},
		Redis: Redis{
			URL:          os.Getenv("VANTAGE_REDIS_URL"),
			DialTimeout:  durationOr("VANTAGE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationOr("VANTAGE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationOr("VANTAGE_REDIS_WRITE_TIMEOUT", 3*time.Second),
			LockTTL:      durationOr("VANTAGE_REDIS_LOCK_TTL", 10*time.Second),
		},
		Kafka: Kafka{
			Brokers: splitList(os.Getenv("VANTAGE_KAFKA_BROKERS")),
			Topic:   envOr("VANTAGE_KAFKA_TOPIC", "vantage.audit-events"),
		},
		Policy: Policy{
			File: os.Getenv("VANTAGE_POLICY_FILE"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
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

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

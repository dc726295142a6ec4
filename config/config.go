// Package config loads application configuration from the environment.
//
// A .env file in the working directory is read first when present; real
// environment variables always win over values from the file.
package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the full application configuration.
type Config struct {
	Port            int
	ShutdownTimeout time.Duration
	StoreTimeout    time.Duration

	Database Database
	NATS     NATS
	Redis    Redis
	JWT      JWT
	Worker   Worker
	Mail     Mail
	Limits   Limits
}

// Database selects the gorm dialect and its DSN.
type Database struct {
	Driver string
	DSN    string
}

// NATS configures the embedded server and the JetStream client.
type NATS struct {
	URL          string
	Port         int
	JetStreamDir string
}

// Redis configures the optional Redis connection. An empty Addr disables
// caching and rate limiting.
type Redis struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// Enabled reports whether a Redis address was configured.
func (r Redis) Enabled() bool {
	return r.Addr != ""
}

// JWT configures token signing.
type JWT struct {
	SecretKey string
	Issuer    string
	TTL       time.Duration
}

// Worker configures the background job pool.
type Worker struct {
	Concurrency int
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	JobTimeout  time.Duration
}

// Mail selects and configures the notification transport.
type Mail struct {
	Transport     string
	From          string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	PostmarkToken string
}

// Limits configures request rate limiting.
type Limits struct {
	AuthPerMinute int
}

// Load reads the optional .env file and builds a Config from the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: failed to read .env file: %v", err)
	}

	return Config{
		Port:            getEnvInt("PORT", 3000),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		StoreTimeout:    getEnvDuration("STORE_TIMEOUT", 5*time.Second),
		Database: Database{
			Driver: getEnv("DB_DRIVER", "sqlite"),
			DSN:    getEnv("DATABASE_URL", "shop.db"),
		},
		NATS: NATS{
			URL:          getEnv("NATS_URL", "nats://localhost:4222"),
			Port:         getEnvInt("NATS_PORT", 4222),
			JetStreamDir: getEnv("JETSTREAM_DIR", "/tmp/shop-monolith"),
		},
		Redis: Redis{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),
		},
		JWT: JWT{
			SecretKey: getEnv("JWT_SECRET_KEY", "change-me-in-production"),
			Issuer:    getEnv("JWT_ISSUER", "shop-monolith"),
			TTL:       getEnvDuration("JWT_TTL", 24*time.Hour),
		},
		Worker: Worker{
			Concurrency: getEnvInt("WORKER_CONCURRENCY", 5),
			MaxAttempts: getEnvInt("WORKER_MAX_ATTEMPTS", 3),
			BaseDelay:   getEnvDuration("WORKER_BASE_DELAY", 2*time.Second),
			MaxDelay:    getEnvDuration("WORKER_MAX_DELAY", time.Minute),
			JobTimeout:  getEnvDuration("WORKER_JOB_TIMEOUT", 30*time.Second),
		},
		Mail: Mail{
			Transport:     getEnv("MAIL_TRANSPORT", "log"),
			From:          getEnv("MAIL_FROM", "shop@example.com"),
			SMTPHost:      getEnv("SMTP_HOST", "localhost"),
			SMTPPort:      getEnvInt("SMTP_PORT", 587),
			SMTPUsername:  getEnv("SMTP_USERNAME", ""),
			SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
			PostmarkToken: getEnv("POSTMARK_SERVER_TOKEN", ""),
		},
		Limits: Limits{
			AuthPerMinute: getEnvInt("RATE_LIMIT_AUTH_PER_MINUTE", 20),
		},
	}
}

// getEnv returns environment variable or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as time.Duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"library-backend/internal/domains/borrowing"
	"library-backend/internal/infrastructure/database"
)

// Config holds the whole application configuration, read from the
// environment (and a .env file when present).
type Config struct {
	App      AppConfig
	Database *database.DBConfig
	Redis    RedisConfig
	Library  LibraryConfig
	Job      JobConfig
	Worker   WorkerConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	LogLevel    string
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int

	// CacheEnabled turns the read-through cache on. Without it the
	// repositories run on cache.Noop.
	CacheEnabled bool
}

// LibraryConfig carries the lending rules.
type LibraryConfig struct {
	Ceiling    int
	FineRate   decimal.Decimal
	SweepBatch int
}

type JobConfig struct {
	// SweepCron schedules the overdue sweep on the worker's scheduler.
	SweepCron string
}

type WorkerConfig struct {
	// Enabled routes POST /borrowings/sweep through the queue instead of
	// running it inline.
	Enabled         bool
	Concurrency     int
	ShutdownTimeout time.Duration

	// HealthAddr serves the worker's /health and /ready endpoints.
	HealthAddr string
}

// Load reads .env (if any) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	db, err := LoadDatabaseConfig()
	if err != nil {
		return nil, err
	}

	fineRate, err := decimal.NewFromString(getEnv("LIBRARY_FINE_RATE", borrowing.DefaultFineRate.String()))
	if err != nil {
		return nil, fmt.Errorf("invalid LIBRARY_FINE_RATE: %w", err)
	}

	shutdown, err := getEnvDuration("WORKER_SHUTDOWN_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Library API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: db,
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost:6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			CacheEnabled: getEnvBool("REDIS_CACHE_ENABLED", true),
		},
		Library: LibraryConfig{
			Ceiling:    getEnvInt("LIBRARY_BORROW_CEILING", borrowing.DefaultCeiling),
			FineRate:   fineRate,
			SweepBatch: getEnvInt("LIBRARY_SWEEP_BATCH", 500),
		},
		Job: JobConfig{
			SweepCron: getEnv("JOB_SWEEP_CRON", "5 0 * * *"),
		},
		Worker: WorkerConfig{
			Enabled:         getEnvBool("WORKER_ENABLED", true),
			Concurrency:     getEnvInt("WORKER_CONCURRENCY", 10),
			ShutdownTimeout: shutdown,
			HealthAddr:      getEnv("WORKER_HEALTH_ADDR", ":9999"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	if c.Library.Ceiling <= 0 {
		return fmt.Errorf("LIBRARY_BORROW_CEILING must be positive, got %d", c.Library.Ceiling)
	}
	if c.Library.FineRate.IsNegative() {
		return fmt.Errorf("LIBRARY_FINE_RATE must not be negative, got %s", c.Library.FineRate)
	}
	if c.Library.SweepBatch <= 0 {
		return fmt.Errorf("LIBRARY_SWEEP_BATCH must be positive, got %d", c.Library.SweepBatch)
	}
	if _, err := cron.ParseStandard(c.Job.SweepCron); err != nil {
		return fmt.Errorf("invalid JOB_SWEEP_CRON %q: %w", c.Job.SweepCron, err)
	}
	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("WORKER_CONCURRENCY must be positive, got %d", c.Worker.Concurrency)
	}
	if c.App.Environment == "production" && c.Database != nil && c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD must be set in production")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvDuration(key, defaultValue string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

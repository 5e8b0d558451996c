package config

import (
	"fmt"
	"strconv"

	"library-backend/internal/infrastructure/database"
)

// LoadDatabaseConfig reads the PostgreSQL connection and pool settings. The
// same settings drive the pgx pool and the sqlx reporting handle.
func LoadDatabaseConfig() (*database.DBConfig, error) {
	cfg := &database.DBConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Username: getEnv("DB_USER", "library"),
		Password: getEnv("DB_PASSWORD", "secret"),
		DBName:   getEnv("DB_NAME", "library_dev"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	ints := []struct {
		key, def string
		set      func(int)
	}{
		{"DB_PORT", "5432", func(v int) { cfg.Port = v }},
		{"DB_MAX_CONNECTIONS", "25", func(v int) { cfg.MaxConns = int32(v) }},
		{"DB_MIN_CONNECTIONS", "5", func(v int) { cfg.MinConns = int32(v) }},
		{"DB_MAX_RETRIES", "5", func(v int) { cfg.MaxRetries = v }},
	}
	for _, f := range ints {
		v, err := strconv.Atoi(getEnv(f.key, f.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", f.key, err)
		}
		f.set(v)
	}

	var err error
	if cfg.MaxConnLifetime, err = getEnvDuration("DB_MAX_CONN_LIFETIME", "5m"); err != nil {
		return nil, err
	}
	if cfg.MaxConnIdleTime, err = getEnvDuration("DB_MAX_CONN_IDLE_TIME", "1m"); err != nil {
		return nil, err
	}
	if cfg.HealthCheckPeriod, err = getEnvDuration("DB_HEALTH_CHECK_PERIOD", "1m"); err != nil {
		return nil, err
	}
	if cfg.RetryDelay, err = getEnvDuration("DB_RETRY_DELAY", "1s"); err != nil {
		return nil, err
	}
	if cfg.ConnectTimeout, err = getEnvDuration("DB_CONNECT_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	if cfg.MinConns > cfg.MaxConns {
		return nil, fmt.Errorf("DB_MIN_CONNECTIONS (%d) exceeds DB_MAX_CONNECTIONS (%d)", cfg.MinConns, cfg.MaxConns)
	}
	return cfg, nil
}

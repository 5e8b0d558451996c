package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Library.Ceiling)
	assert.Equal(t, "5000", cfg.Library.FineRate.String())
	assert.Equal(t, "5 0 * * *", cfg.Job.SweepCron)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.True(t, cfg.Worker.Enabled)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("LIBRARY_BORROW_CEILING", "3")
	t.Setenv("LIBRARY_FINE_RATE", "2500.50")
	t.Setenv("JOB_SWEEP_CRON", "@hourly")
	t.Setenv("WORKER_ENABLED", "false")
	t.Setenv("DB_NAME", "library_test")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Library.Ceiling)
	assert.Equal(t, "2500.5", cfg.Library.FineRate.String())
	assert.Equal(t, "@hourly", cfg.Job.SweepCron)
	assert.False(t, cfg.Worker.Enabled)
	assert.Equal(t, "library_test", cfg.Database.DBName)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad cron", "JOB_SWEEP_CRON", "every day"},
		{"zero ceiling", "LIBRARY_BORROW_CEILING", "0"},
		{"negative rate", "LIBRARY_FINE_RATE", "-1"},
		{"unparsable rate", "LIBRARY_FINE_RATE", "five"},
		{"bad port", "DB_PORT", "postgres"},
		{"bad shutdown", "WORKER_SHUTDOWN_TIMEOUT", "soon"},
		{"bad idle time", "DB_MAX_CONN_IDLE_TIME", "1 minute"},
		{"min above max", "DB_MIN_CONNECTIONS", "50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			_, err := Load()

			assert.Error(t, err)
		})
	}
}

func TestValidate_ProductionNeedsPassword(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_PASSWORD", "")

	cfg, err := Load()
	require.NoError(t, err, "empty DB_PASSWORD falls back to the default")
	cfg.Database.Password = ""

	assert.Error(t, cfg.Validate())
}

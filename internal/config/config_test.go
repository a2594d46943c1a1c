package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := parse(env.Options{Environment: map[string]string{}})
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "gestionale.db", cfg.DBUrl)
	assert.Equal(t, 100, cfg.Import.BatchSize)
	assert.InDelta(t, 0.5, cfg.Import.ConfidenceThreshold, 1e-9)
	assert.InDelta(t, 0.85, cfg.Import.FuzzyThreshold, 1e-9)
	assert.True(t, cfg.Import.UpdateExisting)
	assert.Equal(t, 24*time.Hour, cfg.Import.JobTTL)
	assert.Equal(t, int64(20<<20), cfg.Import.MaxFileBytes())
	assert.False(t, cfg.S3.Enabled)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := parse(env.Options{Environment: map[string]string{
		"SERVER_PORT":                 "9090",
		"DB_DRIVER":                   "postgres",
		"DATABASE_URL":                "postgres://u:p@localhost/db",
		"IMPORT_BATCH_SIZE":           "25",
		"IMPORT_CONFIDENCE_THRESHOLD": "0.7",
		"IMPORT_UPDATE_EXISTING":      "false",
		"IMPORT_JOB_TTL":              "2h",
		"REDIS_URL":                   "redis://localhost:6379/0",
		"CORS_ALLOWED_ORIGINS":        "https://crm.example.it,http://localhost:5173",
	}})
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, 25, cfg.Import.BatchSize)
	assert.InDelta(t, 0.7, cfg.Import.ConfidenceThreshold, 1e-9)
	assert.False(t, cfg.Import.UpdateExisting)
	assert.Equal(t, 2*time.Hour, cfg.Import.JobTTL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, []string{"https://crm.example.it", "http://localhost:5173"}, cfg.CORSOrigins)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unknown driver", map[string]string{"DB_DRIVER": "mysql"}, "DB_DRIVER"},
		{"zero batch", map[string]string{"IMPORT_BATCH_SIZE": "0"}, "IMPORT_BATCH_SIZE"},
		{"threshold too high", map[string]string{"IMPORT_CONFIDENCE_THRESHOLD": "1.5"}, "IMPORT_CONFIDENCE_THRESHOLD"},
		{"s3 without bucket", map[string]string{"S3_ENABLED": "true"}, "S3_BUCKET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(env.Options{Environment: tt.env})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

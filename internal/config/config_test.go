package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_DefaultsAndEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("POSTGRES_PASSWORD", "pw")

	cfg, err := Parse([]byte("postgres:\n  dsn: \"host=db\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "host=db password=pw", cfg.Postgres.DSN)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, int64(500), cfg.Currency.PointsRatio)
	assert.Equal(t, "SAR", cfg.Currency.Code)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_BundledFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("POSTGRES_PASSWORD", "")

	cfg, err := Load("config.yaml")
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, cfg.Scheduler.Interval)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Error(t, cfg.Validate(), "empty secret must be rejected")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.True(t, os.IsNotExist(err))
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPreservesCalibratedConstants(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 24*time.Hour, cfg.Detector.Threshold.Std())
	assert.Equal(t, time.Hour, cfg.Detector.Interval.Std())
	assert.Equal(t, 48*time.Hour, cfg.Reminder.Threshold.Std())
	assert.Equal(t, 2*time.Hour, cfg.Reminder.Offset.Std())

	assert.Equal(t, 30.0, cfg.Scoring.Weights.Abandonment)
	assert.Equal(t, 25.0, cfg.Scoring.Weights.Value)
	assert.Equal(t, 20.0, cfg.Scoring.Weights.Conversion)
	assert.Equal(t, 15.0, cfg.Scoring.Weights.Hesitation)
	assert.Equal(t, 10.0, cfg.Scoring.Weights.PriceSensitivity)

	assert.Equal(t, 5000.0, cfg.Scoring.Benchmarks.LowCartValue)
	assert.Equal(t, 50000.0, cfg.Scoring.Benchmarks.HighCartValue)
	assert.Equal(t, 30000.0, cfg.Scoring.Benchmarks.PriceSensitivityValue)
}

func TestLoadYAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
database_url: postgres://test
detector:
  interval: 30m
  threshold: 12h
kafka:
  brokers: ["kafka-1:9092", "kafka-2:9092"]
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://test", cfg.DatabaseURL)
	assert.Equal(t, 30*time.Minute, cfg.Detector.Interval.Std())
	assert.Equal(t, 12*time.Hour, cfg.Detector.Threshold.Std())
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	// Untouched sections keep their defaults.
	assert.Equal(t, 48*time.Hour, cfg.Reminder.Threshold.Std())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres://env", cfg.DatabaseURL)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
}

func TestLoadBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("detector:\n  interval: soon\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("CROSSGRANT_COMPUTE_PROJECT_ID", "compute-proj")
	t.Setenv("CROSSGRANT_TARGET_PROJECT_ID", "target-proj")
	t.Setenv("CROSSGRANT_BUCKET_NAME", "target-bucket")
	t.Setenv("CROSSGRANT_REQUESTER_PAYS", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "compute-proj", cfg.ComputeProjectID)
	assert.Equal(t, "target-proj", cfg.TargetProjectID)
	assert.Equal(t, "target-bucket", cfg.BucketName)
	assert.True(t, cfg.RequesterPays)

	// Defaults fill everything not set.
	assert.Equal(t, "us-central1", cfg.Region)
	assert.Equal(t, "crossgrant-events", cfg.TopicID)
	assert.Equal(t, "crossgrant-events-pull", cfg.SubscriptionID)
	assert.Equal(t, "crossgrant", cfg.KeyRingID)
	assert.Equal(t, "crossgrant-probe", cfg.CryptoKeyID)
	assert.Equal(t, "adc", cfg.Credentials.Kind)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("CROSSGRANT_COMPUTE_PROJECT_ID", "compute-proj")
	// Bucket and target project missing.

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidTargetServiceAccount(t *testing.T) {
	t.Setenv("CROSSGRANT_COMPUTE_PROJECT_ID", "compute-proj")
	t.Setenv("CROSSGRANT_TARGET_PROJECT_ID", "target-proj")
	t.Setenv("CROSSGRANT_BUCKET_NAME", "target-bucket")
	t.Setenv("CROSSGRANT_TARGET_SERVICE_ACCOUNT", "not-an-email")

	_, err := Load()
	assert.Error(t, err)
}

func TestToEnv(t *testing.T) {
	cfg := &Config{
		ComputeProjectID: "compute-proj",
		TargetProjectID:  "target-proj",
		Region:           "us-central1",
		BucketName:       "target-bucket",
		RequesterPays:    true,
		TopicID:          "events",
		SubscriptionID:   "events-pull",
		KeyRingID:        "ring",
		CryptoKeyID:      "key",
		LogLevel:         "DEBUG",
	}

	env := cfg.ToEnv()
	assert.Equal(t, "target-bucket", env.BucketName)
	assert.Equal(t, "target-proj", env.TargetProjectID)
	assert.Equal(t, "compute-proj", env.BillingProject)
	assert.Equal(t, "events", env.TopicID)
	assert.Equal(t, slog.LevelDebug, env.LogLevel)
	assert.True(t, env.KMSConfigured())
}

func TestToEnv_NoRequesterPays(t *testing.T) {
	cfg := &Config{
		ComputeProjectID: "compute-proj",
		TargetProjectID:  "target-proj",
		BucketName:       "target-bucket",
	}

	env := cfg.ToEnv()
	assert.Empty(t, env.BillingProject)
	assert.False(t, env.KMSConfigured())
}

func TestGetLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.level}
			assert.Equal(t, tt.expected, cfg.GetLogLevel())
		})
	}
}

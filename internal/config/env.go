package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/andrew-woosnam/crossgrant/internal/credentials"
)

// Env is the probe service configuration. All values are loaded from
// environment variables at startup; `crossgrant provision` prints the block
// of variables matching the resources it created.
type Env struct {
	// Port is the HTTP server port. Cloud Run injects PORT, so that name is
	// honored too.
	Port string `env:"PROBE_PORT" envDefault:"8080"`

	// Environment selects log output: "production" logs JSON, anything else
	// logs colored text.
	Environment string `env:"PROBE_ENV" envDefault:"production"`

	// BucketName is the target bucket to list and read from.
	BucketName string `env:"PROBE_BUCKET_NAME,notEmpty"`

	// BillingProject is set as the user project on requester-pays bucket
	// access. Empty disables the user project.
	BillingProject string `env:"PROBE_BILLING_PROJECT"`

	// TargetProjectID is the project holding the topic, subscription, and key.
	TargetProjectID string `env:"PROBE_TARGET_PROJECT_ID,notEmpty"`

	// TopicID and SubscriptionID name the Pub/Sub pair for round-trip checks.
	TopicID        string `env:"PROBE_TOPIC_ID,notEmpty"`
	SubscriptionID string `env:"PROBE_SUBSCRIPTION_ID,notEmpty"`

	// KMS key coordinates for the encrypt/decrypt check. All empty disables
	// the kms check.
	Region      string `env:"PROBE_REGION"`
	KeyRingID   string `env:"PROBE_KEY_RING_ID"`
	CryptoKeyID string `env:"PROBE_CRYPTO_KEY_ID"`

	// MaxListObjects caps how many object names the storage check reports.
	MaxListObjects int `env:"PROBE_MAX_LIST_OBJECTS" envDefault:"25"`

	// ReadObject additionally reads the first KiB of the first listed object
	// to prove objects.get, not just objects.list.
	ReadObject bool `env:"PROBE_READ_OBJECT" envDefault:"false"`

	// CheckTimeout bounds each individual check.
	CheckTimeout time.Duration `env:"PROBE_CHECK_TIMEOUT" envDefault:"30s"`

	// RequestTimeout bounds a whole HTTP request. Zero disables the timeout
	// middleware and defers to the platform (e.g. Cloud Run's own timeout).
	RequestTimeout time.Duration `env:"PROBE_REQUEST_TIMEOUT" envDefault:"0"`

	// APIKey, when set, is required in the X-API-Key header on check routes.
	APIKey string `env:"PROBE_API_KEY"`

	// Credentials selects the credential source, PROBE_CREDENTIALS_* vars.
	Credentials credentials.Source `envPrefix:"PROBE_CREDENTIALS_"`

	// LogLevel is the log level for the logger. Defaults to "INFO".
	LogLevel slog.Level `env:"PROBE_LOG_LEVEL" envDefault:"INFO"`
}

// LoadEnv loads and validates environment variables into an Env struct.
// It returns an error if required variables are missing or invalid.
func LoadEnv() (*Env, error) {
	cfg := &Env{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	// Cloud Run sets PORT; prefer it when PROBE_PORT was not given explicitly.
	if port := os.Getenv("PORT"); port != "" && os.Getenv("PROBE_PORT") == "" {
		cfg.Port = port
	}

	return cfg, nil
}

// MustLoadEnv loads environment variables and exits if there's an error.
// Suitable for application startup where configuration errors should be fatal.
func MustLoadEnv() *Env {
	cfg, err := LoadEnv()
	if err != nil {
		slog.Error("failed to load environment configuration", "error", err)

		os.Exit(1)
	}

	return cfg
}

// KMSConfigured reports whether the KMS check has everything it needs.
func (e *Env) KMSConfigured() bool {
	return e.Region != "" && e.KeyRingID != "" && e.CryptoKeyID != ""
}

// Package config manages configuration for the crossgrant CLI and the probe
// service. The CLI reads a Viper-managed YAML file plus CROSSGRANT_* env
// overrides; the probe service reads PROBE_* environment variables only.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/andrew-woosnam/crossgrant/internal/constants"
	"github.com/andrew-woosnam/crossgrant/internal/credentials"
)

// Config is the CLI and provisioner configuration. It identifies the two
// projects being wired together and names every resource involved.
type Config struct {
	// ComputeProjectID is the project that runs the probe and is billed for
	// requester-pays access.
	ComputeProjectID string `mapstructure:"compute_project_id" yaml:"compute_project_id" validate:"required"`

	// TargetProjectID is the project holding the bucket, topic, and key.
	TargetProjectID string `mapstructure:"target_project_id" yaml:"target_project_id" validate:"required"`

	// Region hosts regional resources (KMS key ring).
	Region string `mapstructure:"region" yaml:"region" validate:"required"`

	// BucketName is the target bucket. Bucket names are globally unique, so
	// there is no sensible default.
	BucketName string `mapstructure:"bucket_name" yaml:"bucket_name" validate:"required"`

	// RequesterPays enables requester-pays on the bucket; the probe then
	// bills access to the compute project.
	RequesterPays bool `mapstructure:"requester_pays" yaml:"requester_pays"`

	TopicID        string `mapstructure:"topic_id" yaml:"topic_id"`
	SubscriptionID string `mapstructure:"subscription_id" yaml:"subscription_id"`
	KeyRingID      string `mapstructure:"key_ring_id" yaml:"key_ring_id"`
	CryptoKeyID    string `mapstructure:"crypto_key_id" yaml:"crypto_key_id"`

	// ProbeServiceAccountID is the account ID (left of the @) of the probe
	// service account created in the compute project.
	ProbeServiceAccountID string `mapstructure:"probe_service_account_id" yaml:"probe_service_account_id"`

	// TargetServiceAccount is an optional existing service account in the
	// target project that the probe may impersonate.
	TargetServiceAccount string `mapstructure:"target_service_account" yaml:"target_service_account,omitempty" validate:"omitempty,email"`

	// Credentials selects how the CLI's verify/serve commands authenticate.
	Credentials credentials.Source `mapstructure:"credentials" yaml:"credentials"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

var validate = validator.New()

// Load loads the configuration using Viper. Values come from
// ~/.crossgrant/config.yaml when present, with CROSSGRANT_* environment
// variables taking precedence.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if err := loadConfigFile(v); err != nil {
		// A missing config file is fine: everything can come from env.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration to the user's home directory, overwriting any
// existing config file.
func Save(cfg *Config) error {
	currentUser, err := user.Current()
	if err != nil {
		return fmt.Errorf("error getting current user: %w", err)
	}

	configDir := constants.ConfigDirPath(currentUser.HomeDir)
	if err = os.MkdirAll(configDir, constants.ConfigDirPermissions); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	configFilePath := filepath.Join(configDir, constants.ConfigFileName)

	v := viper.New()
	v.Set("compute_project_id", cfg.ComputeProjectID)
	v.Set("target_project_id", cfg.TargetProjectID)
	v.Set("region", cfg.Region)
	v.Set("bucket_name", cfg.BucketName)
	v.Set("requester_pays", cfg.RequesterPays)
	v.Set("topic_id", cfg.TopicID)
	v.Set("subscription_id", cfg.SubscriptionID)
	v.Set("key_ring_id", cfg.KeyRingID)
	v.Set("crypto_key_id", cfg.CryptoKeyID)
	v.Set("probe_service_account_id", cfg.ProbeServiceAccountID)
	v.Set("target_service_account", cfg.TargetServiceAccount)
	v.Set("credentials.kind", cfg.Credentials.Kind)
	v.Set("credentials.audience", cfg.Credentials.Audience)
	v.Set("credentials.target_service_account", cfg.Credentials.TargetServiceAccount)
	v.Set("credentials.key_file", cfg.Credentials.KeyFile)
	v.Set("log_level", cfg.LogLevel)

	if err = v.WriteConfigAs(configFilePath); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	if err = os.Chmod(configFilePath, constants.ConfigFilePermissions); err != nil {
		return fmt.Errorf("error setting config file permissions: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	currentUser, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("error getting current user: %w", err)
	}

	return filepath.Join(constants.ConfigDirPath(currentUser.HomeDir), constants.ConfigFileName), nil
}

// ToEnv maps CLI configuration onto a probe Env so `verify` and `serve` can
// drive the same check runner the deployed probe uses.
func (c *Config) ToEnv() *Env {
	e := &Env{
		Port:            constants.DefaultProbePort,
		Environment:     "cli",
		BucketName:      c.BucketName,
		TargetProjectID: c.TargetProjectID,
		TopicID:         c.TopicID,
		SubscriptionID:  c.SubscriptionID,
		Region:          c.Region,
		KeyRingID:       c.KeyRingID,
		CryptoKeyID:     c.CryptoKeyID,
		MaxListObjects:  25,
		CheckTimeout:    constants.DefaultCheckTimeout,
		Credentials:     c.Credentials,
		LogLevel:        c.GetLogLevel(),
	}
	if c.RequesterPays {
		e.BillingProject = c.ComputeProjectID
	}
	return e
}

// GetLogLevel returns the slog.Level from the string configuration.
// Defaults to INFO if the level string is invalid.
func (c *Config) GetLogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Helper functions

func setDefaults(v *viper.Viper) {
	v.SetDefault("region", "us-central1")
	v.SetDefault("topic_id", constants.DefaultTopicID)
	v.SetDefault("subscription_id", constants.DefaultSubscriptionID)
	v.SetDefault("key_ring_id", constants.DefaultKeyRingID)
	v.SetDefault("crypto_key_id", constants.DefaultCryptoKeyID)
	v.SetDefault("probe_service_account_id", constants.ProbeServiceAccountID)
	v.SetDefault("credentials.kind", credentials.KindADC)
	v.SetDefault("log_level", "INFO")
}

func loadConfigFile(v *viper.Viper) error {
	currentUser, err := user.Current()
	if err != nil {
		return fmt.Errorf("error getting current user: %w", err)
	}

	configFile := filepath.Join(
		constants.ConfigDirPath(currentUser.HomeDir), constants.ConfigFileName)

	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")

	return v.ReadInConfig()
}

// bindEnvVars binds each config key explicitly so AutomaticEnv picks up
// nested keys like credentials.kind.
func bindEnvVars(v *viper.Viper) {
	keys := []string{
		"compute_project_id",
		"target_project_id",
		"region",
		"bucket_name",
		"requester_pays",
		"topic_id",
		"subscription_id",
		"key_ring_id",
		"crypto_key_id",
		"probe_service_account_id",
		"target_service_account",
		"credentials.kind",
		"credentials.audience",
		"credentials.target_service_account",
		"credentials.key_file",
		"credentials.access_token",
		"log_level",
	}
	for _, key := range keys {
		// Errors only occur with zero arguments.
		_ = v.BindEnv(key)
	}
}

// Package constants defines global constants used throughout crossgrant.
// It includes version information, paths, and configuration keys.
package constants

var version = "0.0.0-development" // Updated by CI/CD pipeline at build time

// GetVersion returns the current version of crossgrant.
func GetVersion() *string {
	return &version
}

// ProjectName is the name of the CLI tool and application.
const ProjectName = "crossgrant"

// EnvPrefix is the prefix for CLI environment variable overrides.
const EnvPrefix = "CROSSGRANT"

// Environment represents the runtime environment of a component.
type Environment string

const (
	// Production is the deployed probe service environment.
	Production Environment = "production"
	// Development is a locally running probe service.
	Development Environment = "development"
	// CLI is the operator command line environment.
	CLI Environment = "cli"
)

// ConfigDirName is the name of the configuration directory in the user's home directory.
const ConfigDirName = "." + ProjectName

// ConfigFileName is the name of the global configuration file.
const ConfigFileName = "config.yaml"

// ConfigDirPath returns the full path to the global configuration directory.
func ConfigDirPath(homeDir string) string {
	return homeDir + "/" + ConfigDirName
}

// ConfigFilePath returns the full path to the global configuration file.
func ConfigFilePath(homeDir string) string {
	return ConfigDirPath(homeDir) + "/" + ConfigFileName
}

// ConfigDirPermissions is the file system permissions for the config directory (0750).
const ConfigDirPermissions = 0o750

// ConfigFilePermissions is the file system permissions for the config file (0600).
const ConfigFilePermissions = 0o600

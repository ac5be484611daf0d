package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/andrew-woosnam/crossgrant/internal/config"
	"github.com/andrew-woosnam/crossgrant/internal/output"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Configure the project pair and resource names",
	Long: `Configure the compute project, target project, and resource names.
This creates or updates the configuration file at ` + output.Bold("~/.crossgrant/config.yaml"),
	Run: runConfigure,
}

func init() {
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(_ *cobra.Command, _ []string) {
	existingConfig, err := config.Load()
	configExists := err == nil
	if configExists {
		output.Success("Found existing configuration")
	} else {
		existingConfig = &config.Config{}
		output.Info("Creating new configuration")
	}

	computeProject := promptWithDefault("Compute project ID", existingConfig.ComputeProjectID)
	if computeProject == "" {
		output.Fatal("Compute project ID is required")
	}

	targetProject := promptWithDefault("Target project ID", existingConfig.TargetProjectID)
	if targetProject == "" {
		output.Fatal("Target project ID is required")
	}
	if targetProject == computeProject {
		output.Fatal("Compute and target projects must differ")
	}

	bucketName := promptWithDefault("Bucket name", existingConfig.BucketName)
	if bucketName == "" {
		output.Fatal("Bucket name is required")
	}

	region := promptWithDefault("Region", existingConfig.Region)
	if region == "" {
		region = "us-central1"
		output.Info("Using default region: %s", region)
	}

	requesterPays := promptBoolWithDefault("Enable requester pays on the bucket?", existingConfig.RequesterPays)

	targetSA := promptWithDefault(
		"Target service account to impersonate (optional)", existingConfig.TargetServiceAccount)

	cfg := existingConfig
	cfg.ComputeProjectID = computeProject
	cfg.TargetProjectID = targetProject
	cfg.BucketName = bucketName
	cfg.Region = region
	cfg.RequesterPays = requesterPays
	cfg.TargetServiceAccount = targetSA

	if err := config.Save(cfg); err != nil {
		output.Fatal("Failed to save configuration: %v", err)
	}

	configPath, err := config.GetConfigPath()
	if err != nil {
		output.Fatal("Failed to get config path: %v", err)
	}

	output.Success("Configuration saved successfully")
	output.KeyValue("Configuration path", configPath)
	output.Info("Run %s to review what will be created", output.Bold("crossgrant plan"))
}

// promptWithDefault asks for a value and falls back to the existing one when
// the operator presses enter.
func promptWithDefault(label, existing string) string {
	if existing != "" {
		label += " [" + existing + "]"
	}
	answer := output.Prompt(label)
	if answer == "" {
		return existing
	}
	return answer
}

// promptBoolWithDefault asks a yes/no question and falls back to the existing
// value when the operator presses enter.
func promptBoolWithDefault(label string, existing bool) bool {
	hint := "y/N"
	if existing {
		hint = "Y/n"
	}
	answer := output.Prompt(label + " [" + hint + "]")
	return parseBoolAnswer(answer, existing)
}

func parseBoolAnswer(answer string, existing bool) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "":
		return existing
	case "y", "yes":
		return true
	default:
		return false
	}
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/andrew-woosnam/crossgrant/internal/infra"
	"github.com/andrew-woosnam/crossgrant/internal/output"
)

var outputsCmd = &cobra.Command{
	Use:   "outputs",
	Short: "Show the coordinates of the provisioned resources",
	Run:   runOutputs,
}

func init() {
	rootCmd.AddCommand(outputsCmd)
}

func runOutputs(cmd *cobra.Command, _ []string) {
	cfg := mustLoadConfig()
	ctx := cmd.Context()

	plan := infra.PlanFromConfig(cfg)
	if err := plan.Validate(); err != nil {
		output.Fatal("Invalid plan: %v", err)
	}

	provisioner := mustProvisioner(ctx)
	outputs, err := provisioner.Outputs(ctx, plan)
	if err != nil {
		output.Fatal("Failed to resolve outputs: %v", err)
	}

	output.Header("Deployment outputs")
	output.KeyValue("Compute project", outputs.ComputeProjectID+" ("+outputs.ComputeProjectNumber+")")
	output.KeyValue("Target project", outputs.TargetProjectID+" ("+outputs.TargetProjectNumber+")")
	output.KeyValue("Region", outputs.Region)
	output.KeyValue("Probe service account", outputs.ProbeServiceAccount)
	if outputs.TargetServiceAccount != "" {
		output.KeyValue("Target service account", outputs.TargetServiceAccount)
	}
	output.KeyValue("Bucket", outputs.BucketName)
	output.KeyValue("Topic", outputs.TopicID)
	output.KeyValue("Subscription", outputs.SubscriptionID)
	if outputs.CryptoKeyName != "" {
		output.KeyValue("Crypto key", outputs.CryptoKeyName)
	}

	output.Blank()
	printProbeEnv(outputs)
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/andrew-woosnam/crossgrant/internal/infra"
	"github.com/andrew-woosnam/crossgrant/internal/output"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create the cross-project resources and IAM grants",
	Long: `Create everything the plan describes: the probe service account, the target
bucket, the Pub/Sub topic and subscription, the KMS key, and the IAM role
grants that let the probe reach them across projects. Safe to re-run;
existing resources are left untouched.`,
	Run: runProvision,
}

func init() {
	rootCmd.AddCommand(provisionCmd)
}

func runProvision(cmd *cobra.Command, _ []string) {
	cfg := mustLoadConfig()
	ctx := cmd.Context()

	plan := infra.PlanFromConfig(cfg)
	if err := plan.Validate(); err != nil {
		output.Fatal("Invalid plan: %v", err)
	}

	output.Header("Provisioning " + plan.ComputeProjectID + " -> " + plan.TargetProjectID)

	provisioner := mustProvisioner(ctx)

	stepNum := 0
	outputs, err := provisioner.Apply(ctx, plan, func(description string) {
		stepNum++
		output.Step(stepNum, 8, description)
	})
	if err != nil {
		output.Fatal("Provisioning failed: %v", err)
	}

	output.Blank()
	output.Success("Provisioning complete")
	output.KeyValue("Probe service account", outputs.ProbeServiceAccount)
	output.KeyValue("Compute project number", outputs.ComputeProjectNumber)
	output.KeyValue("Target project number", outputs.TargetProjectNumber)
	if outputs.CryptoKeyName != "" {
		output.KeyValue("Crypto key", outputs.CryptoKeyName)
	}

	output.Blank()
	printProbeEnv(outputs)
	output.Blank()
	output.Info("Run %s to check the wiring end to end", output.Bold("crossgrant verify"))
}

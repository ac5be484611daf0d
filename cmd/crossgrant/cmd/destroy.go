package cmd

import (
	"github.com/spf13/cobra"

	"github.com/andrew-woosnam/crossgrant/internal/infra"
	"github.com/andrew-woosnam/crossgrant/internal/output"
)

var destroyForce bool

var destroyCmd = &cobra.Command{
	Use:   "destroy",
	Short: "Remove the provisioned resources and revoke the grants",
	Long: `Revoke the cross-project IAM grants and delete the bucket, Pub/Sub pair,
and probe service account. KMS key rings and keys cannot be deleted on GCP
and are left in place.`,
	Run: runDestroy,
}

func init() {
	destroyCmd.Flags().BoolVar(&destroyForce, "force", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(destroyCmd)
}

func runDestroy(cmd *cobra.Command, _ []string) {
	cfg := mustLoadConfig()
	ctx := cmd.Context()

	plan := infra.PlanFromConfig(cfg)
	if err := plan.Validate(); err != nil {
		output.Fatal("Invalid plan: %v", err)
	}

	output.Warning("This deletes bucket %s and all objects in it", plan.BucketName)
	if !destroyForce && !output.Confirm("Destroy resources in "+plan.TargetProjectID+"?") {
		output.Info("Aborted")
		return
	}

	provisioner := mustProvisioner(ctx)

	stepNum := 0
	err := provisioner.Destroy(ctx, plan, func(description string) {
		stepNum++
		output.Step(stepNum, 5, description)
	})
	if err != nil {
		output.Fatal("Destroy failed: %v", err)
	}

	output.Blank()
	output.Success("Destroy complete")
	output.Info("KMS key ring %s was left in place (GCP does not delete key rings)", plan.KeyRingID)
}

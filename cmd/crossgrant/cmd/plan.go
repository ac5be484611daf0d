package cmd

import (
	"github.com/spf13/cobra"

	"github.com/andrew-woosnam/crossgrant/internal/infra"
	"github.com/andrew-woosnam/crossgrant/internal/output"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what provision would create and grant",
	Run:   runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(_ *cobra.Command, _ []string) {
	cfg := mustLoadConfig()

	plan := infra.PlanFromConfig(cfg)
	if err := plan.Validate(); err != nil {
		output.Fatal("Invalid plan: %v", err)
	}

	rendered, err := plan.Render()
	if err != nil {
		output.Fatal("Failed to render plan: %v", err)
	}

	output.Header("Provisioning plan")
	output.KeyValue("Probe service account", plan.ProbeServiceAccountEmail())
	output.Blank()
	output.Println(rendered)
}

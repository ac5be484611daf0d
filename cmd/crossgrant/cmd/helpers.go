package cmd

import (
	"context"
	"log/slog"

	"github.com/andrew-woosnam/crossgrant/internal/config"
	"github.com/andrew-woosnam/crossgrant/internal/infra"
	"github.com/andrew-woosnam/crossgrant/internal/output"
)

// mustLoadConfig loads the CLI configuration or exits with a pointer to
// `crossgrant configure`.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		output.Error("Failed to load configuration: %v", err)
		output.Info("Run %s first", output.Bold("crossgrant configure"))
		output.Fatal("No usable configuration")
	}
	return cfg
}

// mustProvisioner builds the GCP service clients and a provisioner, exiting
// on client construction failure.
func mustProvisioner(ctx context.Context) *infra.Provisioner {
	clients, err := infra.NewServiceClients(ctx)
	if err != nil {
		output.Fatal("Failed to create GCP clients: %v", err)
	}
	return infra.NewProvisioner(clients, slog.Default())
}

// printProbeEnv prints the environment variable block a probe deployment
// needs for the given outputs.
func printProbeEnv(outputs *infra.Outputs) {
	output.Header("Probe service environment")
	for _, v := range outputs.ProbeEnv() {
		output.Printf("%s=%s\n", output.Cyan(v.Name), v.Value)
	}
}

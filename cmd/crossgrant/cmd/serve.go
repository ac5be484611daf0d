package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/andrew-woosnam/crossgrant/internal/constants"
	"github.com/andrew-woosnam/crossgrant/internal/logger"
	"github.com/andrew-woosnam/crossgrant/internal/output"
	"github.com/andrew-woosnam/crossgrant/internal/server"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the probe HTTP service locally",
	Long: `Run the probe service on this machine using the CLI configuration instead
of PROBE_* environment variables. Useful for trying the check API before
deploying the probe to Cloud Run.`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", constants.DefaultProbePort, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) {
	cfg := mustLoadConfig()

	env := cfg.ToEnv()
	env.Port = servePort
	env.Environment = string(constants.Development)
	if env.Credentials.TargetServiceAccount == "" {
		env.Credentials.TargetServiceAccount = cfg.TargetServiceAccount
	}

	logger.Initialize(constants.Development, env.LogLevel)

	output.Info("Probe service listening on port %s", servePort)
	output.Info("Try: curl http://localhost:%s/api/v1/check", servePort)

	// The server installs its own signal handling; a background context keeps
	// the CLI's --timeout from killing a long-running server.
	if err := server.Run(context.Background(), env, slog.Default()); err != nil {
		output.Fatal("Server error: %v", err)
	}
}

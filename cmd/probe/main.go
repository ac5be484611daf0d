// Package main runs the probe service: an HTTP server that exercises
// cross-project access (storage, pubsub, kms) with a configurable credential
// source and reports pass/fail per check. Configured entirely through PROBE_*
// environment variables, so it deploys unchanged to Cloud Run.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/andrew-woosnam/crossgrant/internal/config"
	"github.com/andrew-woosnam/crossgrant/internal/constants"
	"github.com/andrew-woosnam/crossgrant/internal/logger"
	"github.com/andrew-woosnam/crossgrant/internal/server"
)

func main() {
	cfg := config.MustLoadEnv()

	env := constants.Development
	if cfg.Environment == string(constants.Production) {
		env = constants.Production
	}
	logger.Initialize(env, cfg.LogLevel)

	log := slog.Default()
	log.Info("starting probe service",
		"version", *constants.GetVersion(),
		"port", cfg.Port,
		"credential", cfg.Credentials.Kind,
		"bucket", cfg.BucketName,
		"target_project", cfg.TargetProjectID)

	if err := server.Run(context.Background(), cfg, log); err != nil {
		log.Error("probe service exited", "error", err)
		os.Exit(1)
	}
}

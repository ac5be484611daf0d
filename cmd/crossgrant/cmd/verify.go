package cmd

import (
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrew-woosnam/crossgrant/internal/credentials"
	"github.com/andrew-woosnam/crossgrant/internal/output"
	"github.com/andrew-woosnam/crossgrant/internal/probe"
)

var (
	verifyJSON       bool
	verifySequential bool
	verifyCredential string
)

var verifyCmd = &cobra.Command{
	Use:   "verify [check]",
	Short: "Run the access checks against the provisioned resources",
	Long: `Run the live access checks (storage, pubsub, kms, token) using the
configured credential source. With a check name, run only that check.
Exits non-zero when any check fails.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runVerify,
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "Print the report as JSON")
	verifyCmd.Flags().BoolVar(&verifySequential, "sequential", false, "Run checks one at a time")
	verifyCmd.Flags().StringVar(&verifyCredential, "credential", "", "Override the credential kind (adc, idtoken, impersonate, keyfile, token)")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	ctx := cmd.Context()

	src := cfg.Credentials
	if verifyCredential != "" {
		src.Kind = verifyCredential
	}
	if src.TargetServiceAccount == "" {
		src.TargetServiceAccount = cfg.TargetServiceAccount
	}

	provider, err := credentials.New(src)
	if err != nil {
		output.Fatal("Invalid credential source: %v", err)
	}

	runner, err := probe.NewRunner(ctx, cfg.ToEnv(), provider, slog.Default())
	if err != nil {
		output.Fatal("Failed to initialize checks: %v", err)
	}

	var report *probe.Report
	switch {
	case len(args) == 1:
		started := time.Now().UTC()
		result, runErr := runner.Run(ctx, args[0])
		if runErr != nil {
			output.Fatal("Check failed to run: %v", runErr)
		}
		report = singleCheckReport(provider.Name(), result, started)
	case verifySequential:
		report = runner.RunAll(ctx)
	default:
		report = runner.RunAllParallel(ctx)
	}

	if verifyJSON {
		encoder := json.NewEncoder(output.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			output.Fatal("Failed to encode report: %v", err)
		}
	} else {
		printReport(report)
	}

	if !report.OK {
		os.Exit(1)
	}
}

func printReport(report *probe.Report) {
	output.Header("Access check report")
	output.KeyValue("Credential", report.Credential)

	rows := make([][]string, 0, len(report.Checks))
	for _, check := range report.Checks {
		detail := check.Error
		if check.OK {
			detail = summarizeDetail(check)
		}
		rows = append(rows, []string{
			check.Name,
			output.StatusBadge(check.OK),
			output.Duration(time.Duration(check.Duration)),
			detail,
		})
	}
	output.Table([]string{"CHECK", "STATUS", "DURATION", "DETAIL"}, rows)

	output.Blank()
	if report.OK {
		output.Success("All checks passed in %s", output.Duration(time.Duration(report.Duration)))
	} else {
		output.Error("One or more checks failed")
	}
}

// singleCheckReport wraps a lone check result in a report so the table and
// JSON paths render it the same way as a full run.
func singleCheckReport(credential string, result probe.CheckResult, started time.Time) *probe.Report {
	return &probe.Report{
		Credential: credential,
		StartedAt:  started,
		Duration:   probe.Duration(time.Since(started)),
		Checks:     []probe.CheckResult{result},
		OK:         result.OK,
	}
}

// summarizeDetail picks the single most useful detail field per check for the
// table; the full detail map is available with --json.
func summarizeDetail(check probe.CheckResult) string {
	keys := map[string]string{
		probe.CheckStorage: "bucket",
		probe.CheckPubSub:  "round_trip",
		probe.CheckKMS:     "key",
		probe.CheckToken:   "token_type",
	}
	key, ok := keys[check.Name]
	if !ok {
		return ""
	}
	if value, ok := check.Detail[key].(string); ok {
		return value
	}
	return ""
}

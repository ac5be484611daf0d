// Package probe runs cross-project access checks against Google Cloud. One
// configurable runner covers every authentication strategy through the
// credentials.Provider abstraction.
package probe

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/andrew-woosnam/crossgrant/internal/config"
	"github.com/andrew-woosnam/crossgrant/internal/credentials"
	"github.com/andrew-woosnam/crossgrant/internal/errors"
	"github.com/andrew-woosnam/crossgrant/internal/logger"
)

// Check names.
const (
	CheckStorage = "storage"
	CheckPubSub  = "pubsub"
	CheckKMS     = "kms"
	CheckToken   = "token"
)

// EventSink receives progress notifications while checks run. Implementations
// must be safe for calls from multiple goroutines.
type EventSink interface {
	CheckStarted(name string)
	CheckFinished(result CheckResult)
}

// Runner executes access checks with a fixed credential source.
type Runner struct {
	cfg      *config.Env
	provider credentials.Provider
	log      *slog.Logger

	storage storageAPI
	pubsub  pubsubAPI
	kms     kmsAPI
	sink    EventSink
}

// NewRunner builds a Runner and its API clients using the configured
// credential source. Client construction failures surface here so the caller
// can distinguish "cannot authenticate at all" from individual check failures.
func NewRunner(
	ctx context.Context,
	cfg *config.Env,
	provider credentials.Provider,
	log *slog.Logger,
) (*Runner, error) {
	opts, err := provider.ClientOptions(ctx)
	if err != nil {
		return nil, err
	}

	storageClient, err := newDefaultStorageClient(ctx, opts)
	if err != nil {
		return nil, errors.ErrCredentialError("failed to create storage client", err)
	}

	pubsubClient, err := newDefaultPubSubClient(ctx, opts)
	if err != nil {
		return nil, errors.ErrCredentialError("failed to create pubsub client", err)
	}

	runner := &Runner{
		cfg:      cfg,
		provider: provider,
		log:      log,
		storage:  storageClient,
		pubsub:   pubsubClient,
	}

	if cfg.KMSConfigured() {
		kmsClient, kmsErr := newDefaultKMSClient(ctx, opts)
		if kmsErr != nil {
			return nil, errors.ErrCredentialError("failed to create kms client", kmsErr)
		}
		runner.kms = kmsClient
	}

	return runner, nil
}

// WithSink returns a shallow copy of the runner that reports check progress
// to sink.
func (r *Runner) WithSink(sink EventSink) *Runner {
	clone := *r
	clone.sink = sink
	return &clone
}

// RunAllStreaming runs every configured check sequentially while reporting
// progress to sink.
func (r *Runner) RunAllStreaming(ctx context.Context, sink EventSink) *Report {
	return r.WithSink(sink).RunAll(ctx)
}

// CheckNames returns the checks this runner is configured to perform.
func (r *Runner) CheckNames() []string {
	names := []string{CheckStorage, CheckPubSub}
	if r.kms != nil {
		names = append(names, CheckKMS)
	}
	names = append(names, CheckToken)
	return names
}

// Run executes a single named check with its own timeout.
func (r *Runner) Run(ctx context.Context, name string) (CheckResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.checkTimeout())
	defer cancel()

	if r.sink != nil {
		r.sink.CheckStarted(name)
	}

	var result CheckResult
	switch name {
	case CheckStorage:
		result = r.runStorageCheck(ctx)
	case CheckPubSub:
		result = r.runPubSubCheck(ctx)
	case CheckKMS:
		if r.kms == nil {
			return CheckResult{}, errors.ErrUnknownCheck(name)
		}
		result = r.runKMSCheck(ctx)
	case CheckToken:
		result = r.runTokenCheck(ctx)
	default:
		return CheckResult{}, errors.ErrUnknownCheck(name)
	}

	if r.sink != nil {
		r.sink.CheckFinished(result)
	}

	checkLog := r.log.With("check", name, "ok", result.OK, "duration", time.Duration(result.Duration).String())
	if result.OK {
		checkLog.Info("check passed")
	} else {
		attrs := append([]any{"error", result.Error}, logger.GetDeadlineInfo(ctx)...)
		checkLog.Warn("check failed", attrs...)
	}

	return result, nil
}

// RunAll executes every configured check sequentially and aggregates the
// results. Individual failures never abort the run.
func (r *Runner) RunAll(ctx context.Context) *Report {
	started := time.Now()
	report := &Report{
		Credential: r.provider.Name(),
		StartedAt:  started,
		OK:         true,
	}

	for _, name := range r.CheckNames() {
		result, err := r.Run(ctx, name)
		if err != nil {
			result = failed(name, started, err)
		}
		report.Checks = append(report.Checks, result)
		if !result.OK {
			report.OK = false
		}
	}

	report.Duration = Duration(time.Since(started))
	return report
}

// RunAllParallel executes the configured checks concurrently. Results are
// ordered as CheckNames returns them regardless of completion order.
func (r *Runner) RunAllParallel(ctx context.Context) *Report {
	started := time.Now()
	names := r.CheckNames()
	results := make([]CheckResult, len(names))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, name := range names {
		group.Go(func() error {
			result, err := r.Run(groupCtx, name)
			if err != nil {
				result = failed(name, started, err)
			}
			results[i] = result
			// Failures are carried in the result, never as group errors,
			// so one failing check cannot cancel its siblings.
			return nil
		})
	}
	// Goroutines only ever return nil.
	_ = group.Wait()

	report := &Report{
		Credential: r.provider.Name(),
		StartedAt:  started,
		Checks:     results,
		OK:         true,
		Duration:   Duration(time.Since(started)),
	}
	for _, result := range results {
		if !result.OK {
			report.OK = false
		}
	}
	return report
}

func (r *Runner) checkTimeout() time.Duration {
	if r.cfg.CheckTimeout > 0 {
		return r.cfg.CheckTimeout
	}
	return 30 * time.Second
}

// newNonce returns a random hex string used to tag round-trip messages.
func newNonce() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return hex.EncodeToString([]byte(time.Now().String()))
	}
	return hex.EncodeToString(b)
}

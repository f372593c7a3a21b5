package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/oktay-be/gcp-testing-agent/internal/config"
	"github.com/oktay-be/gcp-testing-agent/internal/intent"
	"github.com/oktay-be/gcp-testing-agent/internal/output"
	"github.com/oktay-be/gcp-testing-agent/internal/provider/cloudlogging"
	"github.com/oktay-be/gcp-testing-agent/internal/provider/functions"
	"github.com/oktay-be/gcp-testing-agent/internal/provider/gcs"
	"github.com/oktay-be/gcp-testing-agent/internal/stimulus"
	"github.com/oktay-be/gcp-testing-agent/internal/verify"
)

var (
	verifyDeadline    time.Duration
	verifyConcurrency int
	verifyJSON        bool
	verifyTrigger     bool
)

var errVerificationNotPassed = errors.New("verification did not pass")

var verifyCmd = &cobra.Command{
	Use:   "verify <intent-file>",
	Short: "Run a verification intent against live GCP state",
	Long: `Run a verification intent against live GCP state.

The intent file is a YAML document listing named assertions:

  name: scraper-pipeline-output
  assertions:
    - name: result-artifact-written
      kind: object-exists
      target: gs://my-artifacts/out/result.json
    - name: no-function-errors
      kind: log-absent
      target: function:scraper-pipeline
      expect:
        severity: ERROR
        window: 30m

Each assertion is resolved into one retryable check; independent checks
run concurrently. The command prints the report and exits non-zero unless
the verdict is PASSED.

Examples:
  gcp-testing-agent verify intents/pipeline.yaml
  gcp-testing-agent verify intents/pipeline.yaml --trigger --deadline 10m --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVerify(cmd.Context(), args[0])
	},
}

func init() {
	verifyCmd.Flags().DurationVar(&verifyDeadline, "deadline", 5*time.Minute, "Global deadline for the whole run")
	verifyCmd.Flags().IntVar(&verifyConcurrency, "concurrency", 4, "Number of checks to run in parallel")
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "Emit the report as JSON instead of human-readable output")
	verifyCmd.Flags().BoolVar(&verifyTrigger, "trigger", false, "Publish a pipeline trigger before verifying")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(ctx context.Context, intentPath string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	in, err := intent.NewLoader(Logger).Load(intentPath)
	if err != nil {
		return err
	}

	if verifyTrigger {
		if err := triggerPipeline(ctx, cfg); err != nil {
			return err
		}
	}

	providers, cleanup, err := buildProviders(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	orchestrator := verify.NewOrchestrator(&verify.OrchestratorConfig{
		Logger:      Logger,
		Providers:   providers,
		Concurrency: verifyConcurrency,
		Resolver: verify.ResolverConfig{
			CheckTimeout: cfg.CheckTimeout,
			Retry: verify.RetryPolicy{
				MaxAttempts:     cfg.MaxAttempts,
				InitialInterval: cfg.InitialBackoff,
				MaxInterval:     cfg.MaxBackoff,
				Multiplier:      2,
			},
		},
	})

	report, err := orchestrator.Run(ctx, in, verifyDeadline)
	if err != nil {
		return fmt.Errorf("verification aborted: %w", err)
	}

	formatter := output.NewFormatter(os.Stdout)
	if verifyJSON {
		if err := formatter.PrintJSON(report); err != nil {
			return err
		}
	} else {
		formatter.PrintReport(report)
	}

	if report.Verdict != verify.VerdictPassed {
		return fmt.Errorf("%w: %s", errVerificationNotPassed, report.Summary)
	}

	return nil
}

// buildProviders constructs the live GCP capability providers. The cleanup
// closes every client that was successfully created.
func buildProviders(ctx context.Context, cfg *config.Config) (verify.Providers, func(), error) {
	objects, err := gcs.NewStore(ctx, Logger)
	if err != nil {
		return verify.Providers{}, nil, fmt.Errorf("creating object store provider: %w", err)
	}

	logs, err := cloudlogging.NewReader(ctx, Logger, cfg.ProjectID)
	if err != nil {
		_ = objects.Close()
		return verify.Providers{}, nil, fmt.Errorf("creating log store provider: %w", err)
	}

	fns, err := functions.NewAdmin(ctx, Logger, cfg.ProjectID, cfg.Region)
	if err != nil {
		_ = objects.Close()
		_ = logs.Close()
		return verify.Providers{}, nil, fmt.Errorf("creating function admin provider: %w", err)
	}

	cleanup := func() {
		if err := fns.Close(); err != nil {
			Logger.WithError(err).Warn("failed to close function admin provider")
		}
		if err := logs.Close(); err != nil {
			Logger.WithError(err).Warn("failed to close log store provider")
		}
		if err := objects.Close(); err != nil {
			Logger.WithError(err).Warn("failed to close object store provider")
		}
	}

	return verify.Providers{
		Objects:   objects,
		Logs:      logs,
		Functions: fns,
	}, cleanup, nil
}

func triggerPipeline(ctx context.Context, cfg *config.Config) error {
	publisher, err := stimulus.NewPublisher(ctx, Logger, cfg.ProjectID, cfg.PipelineTopic)
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			Logger.WithError(err).Warn("failed to close publisher")
		}
	}()

	id, err := publisher.Publish(ctx, stimulus.DefaultRequest())
	if err != nil {
		return fmt.Errorf("triggering pipeline: %w", err)
	}

	fmt.Printf("Pipeline trigger published (message %s)\n", id)
	return nil
}

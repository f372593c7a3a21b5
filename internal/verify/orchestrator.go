package verify

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/oktay-be/gcp-testing-agent/internal/intent"
)

const defaultConcurrency = 4

// OrchestratorConfig contains configuration for verification runs.
type OrchestratorConfig struct {
	Logger      logrus.FieldLogger
	Providers   Providers
	Resolver    ResolverConfig
	Concurrency int
}

// Orchestrator drives one verification run end to end: resolve the intent
// into checks, execute independent checks concurrently under a global
// deadline, and aggregate the outcomes into a report.
type Orchestrator struct {
	resolver    *Resolver
	executor    *Executor
	concurrency int
	log         logrus.FieldLogger

	// now is injected into resolution so runs are reproducible in tests.
	now func() time.Time
}

// NewOrchestrator creates a verification orchestrator.
func NewOrchestrator(cfg *OrchestratorConfig) *Orchestrator {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	return &Orchestrator{
		resolver:    NewResolver(cfg.Resolver),
		executor:    NewExecutor(cfg.Logger, cfg.Providers),
		concurrency: concurrency,
		log:         cfg.Logger.WithField("component", "orchestrator"),
		now:         time.Now,
	}
}

// Run verifies one intent and returns the report. The error return covers
// intent-level validation and resolution failures only, which abort the
// run before any check executes. Once execution starts every failure mode
// is represented as an outcome status in the report.
func (o *Orchestrator) Run(ctx context.Context, in *intent.Intent, deadline time.Duration) (*Report, error) {
	start := o.now()

	checks, err := o.resolver.Resolve(in, start)
	if err != nil {
		return nil, fmt.Errorf("resolving plan: %w", err)
	}

	o.log.WithFields(logrus.Fields{
		"intent":      in.Name,
		"checks":      len(checks),
		"deadline":    deadline,
		"concurrency": o.concurrency,
	}).Info("running verification")

	if deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}

	outcomes := o.executeChecks(ctx, checks)

	report := Aggregate(in, outcomes, time.Since(start))

	o.log.WithFields(logrus.Fields{
		"intent":    in.Name,
		"verdict":   report.Verdict,
		"satisfied": report.Satisfied(),
		"total":     len(report.Results),
		"elapsed":   report.Elapsed,
	}).Info("verification complete")

	return report, nil
}

// executeChecks runs all checks concurrently on a bounded semaphore. Each
// goroutine writes to a unique index, so no mutex is needed on the result
// slice; ordering is restored by the aggregator regardless.
func (o *Orchestrator) executeChecks(ctx context.Context, checks []*Check) map[string]*Outcome {
	results := make([]*Outcome, len(checks))
	g, gCtx := errgroup.WithContext(ctx)

	sem := make(chan struct{}, o.concurrency)
	for i, check := range checks {
		i, check := i, check
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-gCtx.Done():
				// Never dispatched: the global deadline expired first.
				return nil
			}

			results[i] = o.executor.Execute(gCtx, check)
			return nil
		})
	}

	// Workers never return errors; all failure modes live in the outcomes.
	_ = g.Wait()

	outcomes := make(map[string]*Outcome, len(results))
	for i, outcome := range results {
		if outcome == nil {
			outcome = &Outcome{
				Check:  checks[i].Name,
				Kind:   checks[i].Kind,
				Status: StatusTimedOut,
				Reason: "global deadline expired before check started",
			}
		}

		outcomes[outcome.Check] = outcome
	}

	return outcomes
}

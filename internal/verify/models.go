// Package verify provides the verification orchestration core: resolving a
// structured intent into executable checks, running them with retry against
// capability providers, and folding the outcomes into one report.
package verify

import (
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/oktay-be/gcp-testing-agent/internal/intent"
)

// Status is the terminal state of one executed check.
type Status string

// Check outcome statuses.
const (
	StatusSatisfied     Status = "satisfied"
	StatusFailed        Status = "failed"
	StatusTimedOut      Status = "timed-out"
	StatusProviderError Status = "provider-error"
)

// Verdict is the overall result of a verification run.
type Verdict string

// Report verdicts.
const (
	VerdictPassed       Verdict = "PASSED"
	VerdictFailed       Verdict = "FAILED"
	VerdictInconclusive Verdict = "INCONCLUSIVE"
)

// RetryPolicy controls the executor's backoff schedule for one check.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// newBackOff builds the jittered exponential schedule for this policy.
func (p RetryPolicy) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.Multiplier = p.Multiplier
	// Attempt and deadline budgets are enforced by the executor, not the
	// schedule.
	b.MaxElapsedTime = 0
	b.Reset()

	return b
}

// Check is a resolved, executable unit derived from exactly one assertion.
// It carries concrete provider parameters; which fields apply depends on
// the kind. Owned by the executor that runs it.
type Check struct {
	Name string
	Kind intent.Kind

	// Object storage parameters (object-* and count-in-range kinds).
	Bucket string
	Prefix string
	Object string

	// Log query parameters (log-* kinds).
	Filter string

	// Function metadata parameters (function-healthy kind).
	Function string

	// Success predicate parameters.
	Contains string
	MinCount int
	MaxCount int
	Limit    int

	Budget time.Duration
	Retry  RetryPolicy
}

// Outcome is the immutable result of executing one check.
type Outcome struct {
	Check    string        `json:"check"`
	Kind     intent.Kind   `json:"kind"`
	Status   Status        `json:"status"`
	Reason   string        `json:"reason,omitempty"`
	Evidence []string      `json:"evidence,omitempty"`
	Attempts int           `json:"attempts"`
	Elapsed  time.Duration `json:"elapsed"`
}

// AssertionResult is the per-assertion entry in a report, in intent
// declaration order.
type AssertionResult struct {
	Name     string        `json:"name"`
	Kind     intent.Kind   `json:"kind"`
	Status   Status        `json:"status"`
	Reason   string        `json:"reason,omitempty"`
	Evidence []string      `json:"evidence,omitempty"`
	Attempts int           `json:"attempts"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Report is the aggregated verdict and evidence for an entire intent.
// Owned by the caller after return; serializable for the upstream bridge.
type Report struct {
	ID      string             `json:"id"`
	Intent  string             `json:"intent"`
	Verdict Verdict            `json:"verdict"`
	Results []*AssertionResult `json:"results"`
	Elapsed time.Duration      `json:"elapsed"`
	Summary string             `json:"summary"`
}

// Satisfied counts results with a satisfied status.
func (r *Report) Satisfied() int {
	n := 0
	for _, result := range r.Results {
		if result.Status == StatusSatisfied {
			n++
		}
	}

	return n
}

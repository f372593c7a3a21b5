package verify

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oktay-be/gcp-testing-agent/internal/intent"
)

// Aggregate folds the outcomes of one run into a report. Pure: the same
// outcome set always yields the same verdict, and results keep the
// intent's assertion declaration order regardless of completion order.
//
// Verdict rules: FAILED if any outcome failed; otherwise INCONCLUSIVE if
// any outcome timed out or hit a provider error; otherwise PASSED. An
// intent with zero assertions is vacuously PASSED.
func Aggregate(in *intent.Intent, outcomes map[string]*Outcome, elapsed time.Duration) *Report {
	report := &Report{
		ID:      uuid.NewString(),
		Intent:  in.Name,
		Verdict: VerdictPassed,
		Results: make([]*AssertionResult, 0, len(in.Assertions)),
		Elapsed: elapsed,
	}

	var failed, inconclusive int

	for _, assertion := range in.Assertions {
		outcome, ok := outcomes[assertion.Name]
		if !ok {
			// A missing outcome means the check never ran, which is an
			// orchestrator invariant violation; report it rather than
			// dropping the assertion silently.
			outcome = &Outcome{
				Check:  assertion.Name,
				Kind:   assertion.Kind,
				Status: StatusProviderError,
				Reason: "no outcome produced for check",
			}
		}

		switch outcome.Status {
		case StatusFailed:
			failed++
		case StatusTimedOut, StatusProviderError:
			inconclusive++
		}

		report.Results = append(report.Results, &AssertionResult{
			Name:     assertion.Name,
			Kind:     outcome.Kind,
			Status:   outcome.Status,
			Reason:   outcome.Reason,
			Evidence: outcome.Evidence,
			Attempts: outcome.Attempts,
			Elapsed:  outcome.Elapsed,
		})
	}

	switch {
	case failed > 0:
		report.Verdict = VerdictFailed
	case inconclusive > 0:
		report.Verdict = VerdictInconclusive
	}

	report.Summary = summarize(report, failed, inconclusive)

	return report
}

func summarize(report *Report, failed, inconclusive int) string {
	total := len(report.Results)
	if total == 0 {
		return fmt.Sprintf("%s: no assertions to verify", report.Verdict)
	}

	summary := fmt.Sprintf("%s: %d/%d assertions satisfied", report.Verdict, report.Satisfied(), total)

	if failed > 0 {
		summary += fmt.Sprintf(", %d failed", failed)
	}

	if inconclusive > 0 {
		summary += fmt.Sprintf(", %d inconclusive", inconclusive)
	}

	return summary
}

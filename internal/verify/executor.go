package verify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oktay-be/gcp-testing-agent/internal/intent"
	"github.com/oktay-be/gcp-testing-agent/internal/provider"
)

const maxEvidenceItems = 10

// Providers bundles the capability providers checks execute against. All
// are read-only and safely shared across concurrent checks.
type Providers struct {
	Objects   provider.ObjectStore
	Logs      provider.LogStore
	Functions provider.FunctionAdmin
}

// Executor runs a single check to a terminal outcome: query the bound
// provider, classify the observation against the check's predicate, and
// retry on the backoff schedule while the condition is unmet and time
// remains. Remote state is eventually consistent, which is why a "not
// found yet" observation is a reason to wait rather than a failure.
type Executor struct {
	providers Providers
	log       logrus.FieldLogger
}

// NewExecutor creates a check executor over the given providers.
func NewExecutor(log logrus.FieldLogger, providers Providers) *Executor {
	return &Executor{
		providers: providers,
		log:       log.WithField("component", "check_executor"),
	}
}

// disposition classifies one observation against a check's predicate.
type disposition int

const (
	// dispositionSatisfied means the condition holds.
	dispositionSatisfied disposition = iota
	// dispositionPending means the condition does not hold yet but may
	// once remote state catches up.
	dispositionPending
	// dispositionViolated means the observation contradicts the condition
	// outright; waiting cannot help.
	dispositionViolated
)

// observation is the raw provider result for one query attempt.
type observation struct {
	objects  []provider.ObjectInfo
	records  []provider.LogRecord
	function *provider.FunctionInfo
	content  []byte
	found    bool
}

// Execute drives one check to its terminal outcome. All failure modes are
// represented in the outcome status; Execute never fails past this
// boundary.
func (e *Executor) Execute(ctx context.Context, check *Check) *Outcome {
	var (
		start   = time.Now()
		outcome = &Outcome{Check: check.Name, Kind: check.Kind}
		log     = e.log.WithFields(logrus.Fields{"check": check.Name, "kind": check.Kind})
	)

	ctx, cancel := context.WithTimeout(ctx, check.Budget)
	defer cancel()

	schedule := check.Retry.newBackOff()

	for attempt := 1; ; attempt++ {
		outcome.Attempts = attempt

		obs, err := e.probe(ctx, check)

		switch {
		case err != nil && provider.IsPermanent(err):
			outcome.Status = StatusProviderError
			outcome.Reason = err.Error()

		case err != nil && ctx.Err() != nil:
			outcome.Status = StatusTimedOut
			outcome.Reason = fmt.Sprintf("deadline expired during attempt %d: %v", attempt, err)

		case err != nil:
			// Transient provider failure: consumes an attempt, then
			// retries like any unmet condition.
			if attempt >= check.Retry.MaxAttempts {
				outcome.Status = StatusTimedOut
				outcome.Reason = fmt.Sprintf("retry budget exhausted after %d attempts: %v", attempt, err)
				break
			}

			log.WithError(err).WithField("attempt", attempt).Debug("transient provider failure, retrying")

			if !e.wait(ctx, schedule.NextBackOff()) {
				outcome.Status = StatusTimedOut
				outcome.Reason = fmt.Sprintf("deadline expired after %d attempts: %v", attempt, err)
				break
			}
			continue

		default:
			disp, reason, evidence := judge(check, obs)
			outcome.Evidence = evidence

			switch disp {
			case dispositionSatisfied:
				outcome.Status = StatusSatisfied

			case dispositionViolated:
				outcome.Status = StatusFailed
				outcome.Reason = reason

			case dispositionPending:
				if attempt >= check.Retry.MaxAttempts {
					outcome.Status = StatusTimedOut
					outcome.Reason = fmt.Sprintf("%s (after %d attempts)", reason, attempt)
					break
				}

				log.WithFields(logrus.Fields{
					"attempt": attempt,
					"max":     check.Retry.MaxAttempts,
					"reason":  reason,
				}).Debug("condition not met yet, retrying")

				if !e.wait(ctx, schedule.NextBackOff()) {
					outcome.Status = StatusTimedOut
					outcome.Reason = fmt.Sprintf("%s (deadline expired after %d attempts)", reason, attempt)
					break
				}
				continue
			}
		}

		break
	}

	outcome.Elapsed = time.Since(start)

	log.WithFields(logrus.Fields{
		"status":   outcome.Status,
		"attempts": outcome.Attempts,
		"elapsed":  outcome.Elapsed,
	}).Debug("check executed")

	return outcome
}

// wait sleeps for the backoff interval. Returns false if the deadline
// expires first.
func (e *Executor) wait(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// probe runs the provider query for one attempt.
func (e *Executor) probe(ctx context.Context, check *Check) (*observation, error) {
	switch check.Kind {
	case intent.KindObjectExists, intent.KindObjectAbsent, intent.KindCountInRange:
		objects, err := e.providers.Objects.ListObjects(ctx, check.Bucket, check.Prefix, check.Limit)
		if err != nil {
			return nil, err
		}
		return &observation{objects: objects}, nil

	case intent.KindObjectContent:
		content, err := e.providers.Objects.ReadObject(ctx, check.Bucket, check.Object)
		if errors.Is(err, provider.ErrNotFound) {
			return &observation{found: false}, nil
		}
		if err != nil {
			return nil, err
		}
		return &observation{content: content, found: true}, nil

	case intent.KindLogContains, intent.KindLogAbsent:
		records, err := e.providers.Logs.QueryEntries(ctx, check.Filter, check.Limit)
		if err != nil {
			return nil, err
		}
		return &observation{records: records}, nil

	case intent.KindFunctionHealthy:
		fn, err := e.providers.Functions.DescribeFunction(ctx, check.Function)
		if err != nil {
			return nil, err
		}
		return &observation{function: fn}, nil

	default:
		// The resolver's registry guarantees this is unreachable.
		return nil, provider.Permanent(fmt.Errorf("no provider bound for kind %q", check.Kind))
	}
}

// judge classifies an observation against the check's success predicate.
func judge(check *Check, obs *observation) (disposition, string, []string) {
	switch check.Kind {
	case intent.KindObjectExists:
		if len(obs.objects) >= check.MinCount {
			return dispositionSatisfied, "", objectEvidence(obs.objects)
		}
		return dispositionPending,
			fmt.Sprintf("matched %d of %d expected objects under gs://%s/%s", len(obs.objects), check.MinCount, check.Bucket, check.Prefix),
			objectEvidence(obs.objects)

	case intent.KindObjectAbsent:
		if len(obs.objects) == 0 {
			return dispositionSatisfied, "", nil
		}
		return dispositionViolated,
			fmt.Sprintf("expected no objects under gs://%s/%s, found %d", check.Bucket, check.Prefix, len(obs.objects)),
			objectEvidence(obs.objects)

	case intent.KindObjectContent:
		if !obs.found {
			return dispositionPending,
				fmt.Sprintf("gs://%s/%s does not exist yet", check.Bucket, check.Object), nil
		}
		if bytes.Contains(obs.content, []byte(check.Contains)) {
			return dispositionSatisfied, "", []string{contentSnippet(obs.content, check.Contains)}
		}
		return dispositionViolated,
			fmt.Sprintf("gs://%s/%s does not contain %q", check.Bucket, check.Object, check.Contains),
			[]string{contentSnippet(obs.content, "")}

	case intent.KindLogContains:
		matched := matchRecords(obs.records, check.Contains)
		if len(matched) >= check.MinCount {
			return dispositionSatisfied, "", recordEvidence(matched)
		}
		return dispositionPending,
			fmt.Sprintf("matched %d of %d expected log entries", len(matched), check.MinCount),
			recordEvidence(matched)

	case intent.KindLogAbsent:
		matched := matchRecords(obs.records, check.Contains)
		if len(matched) == 0 {
			return dispositionSatisfied, "", nil
		}
		return dispositionViolated,
			fmt.Sprintf("expected no matching log entries, found %d", len(matched)),
			recordEvidence(matched)

	case intent.KindCountInRange:
		n := len(obs.objects)
		if check.MaxCount >= 0 && n > check.MaxCount {
			return dispositionViolated,
				fmt.Sprintf("found %d objects under gs://%s/%s, expected at most %d", n, check.Bucket, check.Prefix, check.MaxCount),
				objectEvidence(obs.objects)
		}
		if n >= check.MinCount {
			return dispositionSatisfied, "", objectEvidence(obs.objects)
		}
		return dispositionPending,
			fmt.Sprintf("found %d objects under gs://%s/%s, expected at least %d", n, check.Bucket, check.Prefix, check.MinCount),
			objectEvidence(obs.objects)

	case intent.KindFunctionHealthy:
		evidence := []string{functionEvidence(obs.function)}
		switch obs.function.State {
		case "ACTIVE":
			return dispositionSatisfied, "", evidence
		case "FAILED":
			return dispositionViolated,
				fmt.Sprintf("function %s deployment is in FAILED state", check.Function), evidence
		default:
			return dispositionPending,
				fmt.Sprintf("function %s is in state %s", check.Function, obs.function.State), evidence
		}

	default:
		return dispositionViolated, fmt.Sprintf("no predicate for kind %q", check.Kind), nil
	}
}

// matchRecords filters records to those containing the substring. An empty
// substring matches every record.
func matchRecords(records []provider.LogRecord, contains string) []provider.LogRecord {
	if contains == "" {
		return records
	}

	matched := make([]provider.LogRecord, 0, len(records))
	for _, record := range records {
		if strings.Contains(record.Text, contains) {
			matched = append(matched, record)
		}
	}

	return matched
}

func objectEvidence(objects []provider.ObjectInfo) []string {
	evidence := make([]string, 0, len(objects))
	for _, obj := range objects {
		if len(evidence) >= maxEvidenceItems {
			break
		}
		evidence = append(evidence, fmt.Sprintf("%s (%d bytes, updated %s)", obj.Name, obj.Size, obj.Updated.Format(time.RFC3339)))
	}

	return evidence
}

func recordEvidence(records []provider.LogRecord) []string {
	evidence := make([]string, 0, len(records))
	for _, record := range records {
		if len(evidence) >= maxEvidenceItems {
			break
		}
		evidence = append(evidence, fmt.Sprintf("[%s] %s %s", record.Timestamp.Format(time.RFC3339), record.Severity, record.Text))
	}

	return evidence
}

func functionEvidence(fn *provider.FunctionInfo) string {
	return fmt.Sprintf("state=%s runtime=%s updated=%s", fn.State, fn.Runtime, fn.UpdateTime.Format(time.RFC3339))
}

// contentSnippet keeps evidence small: the region around the match, or the
// head of the content when there is no match to anchor on.
func contentSnippet(content []byte, match string) string {
	const window = 160

	text := string(content)
	if match != "" {
		if idx := strings.Index(text, match); idx >= 0 {
			end := idx + len(match) + window/2
			if end > len(text) {
				end = len(text)
			}
			start := idx - window/2
			if start < 0 {
				start = 0
			}
			return text[start:end]
		}
	}

	if len(text) > window {
		return text[:window]
	}

	return text
}

package verify

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oktay-be/gcp-testing-agent/internal/intent"
	"github.com/oktay-be/gcp-testing-agent/internal/provider"
	"github.com/oktay-be/gcp-testing-agent/internal/provider/cloudlogging"
)

// Resolution errors. Both reject the intent before any check executes.
var (
	ErrUnsupportedAssertion = errors.New("unsupported assertion kind")
	ErrMalformedTarget      = errors.New("malformed assertion target")
)

const (
	defaultLogWindow  = time.Hour
	defaultListLimit  = 20
	defaultQueryLimit = 50
	defaultCountLimit = 1000

	functionTargetPrefix = "function:"
)

// ResolverConfig carries the execution defaults stamped into each check.
type ResolverConfig struct {
	CheckTimeout time.Duration
	Retry        RetryPolicy
}

// Resolver maps a validated intent into an ordered sequence of checks.
// Resolution is pure and deterministic: the same intent and the same
// reference time always yield the same checks.
type Resolver struct {
	cfg ResolverConfig
}

// NewResolver creates a plan resolver with the given execution defaults.
func NewResolver(cfg ResolverConfig) *Resolver {
	return &Resolver{cfg: cfg}
}

// builder resolves one assertion kind into check parameters.
type builder func(r *Resolver, check *Check, a *intent.Assertion, now time.Time) error

// builders is the closed registry of supported assertion kinds.
var builders = map[intent.Kind]builder{
	intent.KindObjectExists:    (*Resolver).buildObjectListing,
	intent.KindObjectAbsent:    (*Resolver).buildObjectListing,
	intent.KindObjectContent:   (*Resolver).buildObjectContent,
	intent.KindLogContains:     (*Resolver).buildLogQuery,
	intent.KindLogAbsent:       (*Resolver).buildLogQuery,
	intent.KindCountInRange:    (*Resolver).buildCountInRange,
	intent.KindFunctionHealthy: (*Resolver).buildFunctionHealthy,
}

// Resolve maps every assertion to exactly one check, in declaration order.
// The reference time is injected so relative log windows resolve
// deterministically.
func (r *Resolver) Resolve(in *intent.Intent, now time.Time) ([]*Check, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("validating intent: %w", err)
	}

	checks := make([]*Check, 0, len(in.Assertions))
	for _, assertion := range in.Assertions {
		check, err := r.resolveAssertion(assertion, now)
		if err != nil {
			return nil, err
		}

		checks = append(checks, check)
	}

	return checks, nil
}

func (r *Resolver) resolveAssertion(a *intent.Assertion, now time.Time) (*Check, error) {
	build, ok := builders[a.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s has kind %q", ErrUnsupportedAssertion, a.Name, a.Kind)
	}

	check := &Check{
		Name:   a.Name,
		Kind:   a.Kind,
		Budget: r.cfg.CheckTimeout,
		Retry:  r.cfg.Retry,
	}

	if err := build(r, check, a, now); err != nil {
		return nil, err
	}

	return check, nil
}

// buildObjectListing resolves object-exists and object-absent targets.
func (r *Resolver) buildObjectListing(check *Check, a *intent.Assertion, _ time.Time) error {
	bucket, prefix, err := provider.SplitObjectPath(a.Target)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedTarget, a.Name, err)
	}

	check.Bucket = bucket
	check.Prefix = prefix
	check.MinCount = 1
	check.Limit = defaultListLimit

	if a.Expect != nil && a.Expect.MinCount != nil {
		check.MinCount = *a.Expect.MinCount
	}

	return nil
}

// buildObjectContent resolves object-content targets: a full object path
// plus a required substring to look for.
func (r *Resolver) buildObjectContent(check *Check, a *intent.Assertion, _ time.Time) error {
	bucket, object, err := provider.SplitObjectPath(a.Target)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedTarget, a.Name, err)
	}

	if object == "" {
		return fmt.Errorf("%w: %s: target %q has no object name", ErrMalformedTarget, a.Name, a.Target)
	}

	if a.Expect == nil || a.Expect.Contains == "" {
		return fmt.Errorf("%w: %s: object-content requires expect.contains", ErrMalformedTarget, a.Name)
	}

	check.Bucket = bucket
	check.Object = object
	check.Contains = a.Expect.Contains

	return nil
}

// buildLogQuery resolves log-contains and log-absent targets. The target is
// either "function:NAME" (expanded into a Cloud Logging filter against the
// injected reference time) or a raw filter used verbatim.
func (r *Resolver) buildLogQuery(check *Check, a *intent.Assertion, now time.Time) error {
	window := defaultLogWindow
	severity := ""

	if a.Expect != nil {
		if a.Expect.Window > 0 {
			window = a.Expect.Window.Std()
		}
		severity = a.Expect.Severity
		check.Contains = a.Expect.Contains
	}

	if name, ok := strings.CutPrefix(a.Target, functionTargetPrefix); ok {
		if name == "" {
			return fmt.Errorf("%w: %s: empty function name", ErrMalformedTarget, a.Name)
		}

		check.Filter = cloudlogging.FunctionFilter(name, now.Add(-window), severity)
	} else {
		check.Filter = a.Target
	}

	check.MinCount = 1
	check.Limit = defaultQueryLimit

	if a.Expect != nil && a.Expect.MinCount != nil {
		check.MinCount = *a.Expect.MinCount
	}

	return nil
}

// buildCountInRange resolves count-in-range targets: an object prefix whose
// listing size must fall within the inclusive expected bounds.
func (r *Resolver) buildCountInRange(check *Check, a *intent.Assertion, _ time.Time) error {
	bucket, prefix, err := provider.SplitObjectPath(a.Target)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedTarget, a.Name, err)
	}

	if a.Expect == nil || (a.Expect.MinCount == nil && a.Expect.MaxCount == nil) {
		return fmt.Errorf("%w: %s: count-in-range requires expect.min_count or expect.max_count", ErrMalformedTarget, a.Name)
	}

	check.Bucket = bucket
	check.Prefix = prefix
	check.MinCount = 0
	check.MaxCount = -1 // unbounded
	check.Limit = defaultCountLimit

	if a.Expect.MinCount != nil {
		check.MinCount = *a.Expect.MinCount
	}

	if a.Expect.MaxCount != nil {
		check.MaxCount = *a.Expect.MaxCount
		// One past the bound is enough to prove the range is exceeded.
		check.Limit = check.MaxCount + 1
	}

	if check.MaxCount >= 0 && check.MinCount > check.MaxCount {
		return fmt.Errorf("%w: %s: min_count %d exceeds max_count %d", ErrMalformedTarget, a.Name, check.MinCount, check.MaxCount)
	}

	return nil
}

// buildFunctionHealthy resolves function-healthy targets: a function short
// name whose deployment state must be ACTIVE.
func (r *Resolver) buildFunctionHealthy(check *Check, a *intent.Assertion, _ time.Time) error {
	name := strings.TrimPrefix(a.Target, functionTargetPrefix)
	if name == "" || strings.ContainsAny(name, " /") {
		return fmt.Errorf("%w: %s: invalid function name %q", ErrMalformedTarget, a.Name, a.Target)
	}

	check.Function = name

	return nil
}

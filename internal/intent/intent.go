// Package intent defines the structured verification intent contract.
// An Intent is produced upstream (by the natural-language bridge) and
// describes what to verify (assertions over remote state) as opposed to
// how to verify it (see verify.Check for execution parameters).
package intent

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Kind identifies one verification goal type from the closed set.
type Kind string

// Supported assertion kinds.
const (
	KindObjectExists    Kind = "object-exists"
	KindObjectAbsent    Kind = "object-absent"
	KindObjectContent   Kind = "object-content"
	KindLogContains     Kind = "log-contains"
	KindLogAbsent       Kind = "log-absent"
	KindCountInRange    Kind = "count-in-range"
	KindFunctionHealthy Kind = "function-healthy"
)

// Kinds lists every supported assertion kind in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindObjectExists,
		KindObjectAbsent,
		KindObjectContent,
		KindLogContains,
		KindLogAbsent,
		KindCountInRange,
		KindFunctionHealthy,
	}
}

var (
	errIntentNameRequired     = errors.New("intent name is required")
	errAssertionMissingName   = errors.New("assertion missing name")
	errAssertionMissingKind   = errors.New("assertion missing kind")
	errAssertionUnknownKind   = errors.New("assertion has unknown kind")
	errAssertionMissingTarget = errors.New("assertion missing target")
	errAssertionDuplicateName = errors.New("duplicate assertion name")
)

// Intent is an ordered set of named assertions. Immutable once validated;
// assertion order is the order results are reported in.
type Intent struct {
	Name       string       `yaml:"name" json:"name"`
	Assertions []*Assertion `yaml:"assertions" json:"assertions"`
}

// Assertion is a single named verification goal.
type Assertion struct {
	Name   string  `yaml:"name" json:"name"`
	Kind   Kind    `yaml:"kind" json:"kind"`
	Target string  `yaml:"target" json:"target"`
	Expect *Expect `yaml:"expect,omitempty" json:"expect,omitempty"`
}

// Expect carries the optional expected value/range for an assertion.
// Which fields apply depends on the kind:
//   - Contains: substring required in object content or log payloads
//   - MinCount/MaxCount: inclusive bounds for count-in-range and log-contains
//   - Severity: minimum log severity (e.g. "ERROR") for log kinds
//   - Window: how far back to query logs, relative to resolution time
type Expect struct {
	Contains string   `yaml:"contains,omitempty" json:"contains,omitempty"`
	MinCount *int     `yaml:"min_count,omitempty" json:"min_count,omitempty"`
	MaxCount *int     `yaml:"max_count,omitempty" json:"max_count,omitempty"`
	Severity string   `yaml:"severity,omitempty" json:"severity,omitempty"`
	Window   Duration `yaml:"window,omitempty" json:"window,omitempty"`
}

// Duration is a time.Duration that unmarshals from YAML strings like "30m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("decoding duration: %w", err)
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", raw, err)
	}

	*d = Duration(parsed)

	return nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Validate ensures the intent is structurally sound: every assertion is
// named, uniquely so, and uses a known kind with a non-empty target.
// An intent with zero assertions is valid (vacuously true).
func (in *Intent) Validate() error {
	if in.Name == "" {
		return errIntentNameRequired
	}

	seen := make(map[string]bool, len(in.Assertions))
	for i, assertion := range in.Assertions {
		if assertion.Name == "" {
			return fmt.Errorf("%w at index %d", errAssertionMissingName, i)
		}

		if seen[assertion.Name] {
			return fmt.Errorf("%w: %s", errAssertionDuplicateName, assertion.Name)
		}
		seen[assertion.Name] = true

		if assertion.Kind == "" {
			return fmt.Errorf("%w: %s", errAssertionMissingKind, assertion.Name)
		}

		if !knownKind(assertion.Kind) {
			return fmt.Errorf("%w: %s has kind %q", errAssertionUnknownKind, assertion.Name, assertion.Kind)
		}

		if assertion.Target == "" {
			return fmt.Errorf("%w: %s", errAssertionMissingTarget, assertion.Name)
		}
	}

	return nil
}

func knownKind(k Kind) bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Package provider defines the capability provider interfaces the
// verification core queries remote state through. Providers are read-only,
// idempotent and safe to call concurrently; every query may be retried.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ObjectInfo describes one stored object returned by a listing.
type ObjectInfo struct {
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	Updated     time.Time `json:"updated"`
	ContentType string    `json:"content_type"`
}

// LogRecord is one log entry returned by a log query.
type LogRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Severity  string    `json:"severity"`
	Resource  string    `json:"resource"`
	Text      string    `json:"text"`
}

// FunctionInfo describes the deployment state of a cloud function.
type FunctionInfo struct {
	Name       string            `json:"name"`
	State      string            `json:"state"`
	Runtime    string            `json:"runtime"`
	UpdateTime time.Time         `json:"update_time"`
	Labels     map[string]string `json:"labels,omitempty"`
}

// ObjectStore lists and reads objects in a storage bucket.
type ObjectStore interface {
	// ListObjects returns up to limit objects under the prefix.
	ListObjects(ctx context.Context, bucket, prefix string, limit int) ([]ObjectInfo, error)
	// ReadObject returns the raw content of a single object.
	ReadObject(ctx context.Context, bucket, object string) ([]byte, error)
}

// LogStore fetches log records matching a filter within a time window.
type LogStore interface {
	QueryEntries(ctx context.Context, filter string, limit int) ([]LogRecord, error)
}

// FunctionAdmin reads deployment metadata for a cloud function.
type FunctionAdmin interface {
	DescribeFunction(ctx context.Context, name string) (*FunctionInfo, error)
}

// PermanentError marks a provider failure that retrying cannot fix, such
// as invalid credentials or a query the provider rejected outright.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as non-retryable. Returns nil if err is nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err is marked non-retryable.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// ErrNotFound reports that a queried object does not exist (yet). It is
// the expected eventually-consistent case and is always retryable.
var ErrNotFound = errors.New("object not found")

var errMissingBucket = errors.New("object path missing bucket")

// SplitObjectPath normalizes a storage path into bucket and object parts.
// Accepts "gs://bucket/prefix", "bucket/prefix" or a bare bucket name;
// the object part may be empty.
func SplitObjectPath(path string) (bucket, object string, err error) {
	trimmed := strings.TrimPrefix(path, "gs://")
	if trimmed == "" {
		return "", "", fmt.Errorf("%w: %q", errMissingBucket, path)
	}

	parts := strings.SplitN(trimmed, "/", 2)
	if parts[0] == "" {
		return "", "", fmt.Errorf("%w: %q", errMissingBucket, path)
	}

	if len(parts) == 1 {
		return parts[0], "", nil
	}

	return parts[0], parts[1], nil
}

// Package cloudlogging implements the log store capability provider on top
// of Cloud Logging.
package cloudlogging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/logging"
	"cloud.google.com/go/logging/logadmin"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oktay-be/gcp-testing-agent/internal/provider"
)

const defaultQueryLimit = 50

// Reader is a read-only LogStore backed by Cloud Logging.
type Reader struct {
	client *logadmin.Client
	log    logrus.FieldLogger
}

// NewReader creates a Cloud Logging reader scoped to one project.
func NewReader(ctx context.Context, log logrus.FieldLogger, projectID string) (*Reader, error) {
	client, err := logadmin.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating logadmin client: %w", err)
	}

	return &Reader{
		client: client,
		log:    log.WithField("component", "cloudlogging_reader"),
	}, nil
}

// QueryEntries returns up to limit records matching the filter, newest first.
func (r *Reader) QueryEntries(ctx context.Context, filter string, limit int) ([]provider.LogRecord, error) {
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	r.log.WithFields(logrus.Fields{
		"filter": filter,
		"limit":  limit,
	}).Debug("querying log entries")

	it := r.client.Entries(ctx, logadmin.Filter(filter), logadmin.NewestFirst())

	results := make([]provider.LogRecord, 0, limit)
	for len(results) < limit {
		entry, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing entries for %q: %w", filter, classify(err))
		}

		results = append(results, toRecord(entry))
	}

	return results, nil
}

// Close releases the underlying client.
func (r *Reader) Close() error {
	return r.client.Close()
}

func toRecord(entry *logging.Entry) provider.LogRecord {
	record := provider.LogRecord{
		Timestamp: entry.Timestamp,
		Severity:  entry.Severity.String(),
	}

	if entry.Resource != nil {
		record.Resource = entry.Resource.Type
	}

	switch payload := entry.Payload.(type) {
	case string:
		record.Text = payload
	case *structpb.Struct:
		// Structured payloads carry the human text under "message".
		if msg, ok := payload.GetFields()["message"]; ok {
			record.Text = msg.GetStringValue()
		} else {
			record.Text = payload.String()
		}
	default:
		record.Text = fmt.Sprintf("%v", payload)
	}

	return record
}

// classify marks caller-fixable gRPC failures as permanent so the executor
// does not burn its retry budget on them.
func classify(err error) error {
	switch status.Code(err) {
	case codes.InvalidArgument, codes.PermissionDenied, codes.Unauthenticated:
		return provider.Permanent(err)
	default:
		return err
	}
}

// FunctionFilter builds a Cloud Logging filter for one cloud function's
// entries since the given time, optionally floored at a severity.
func FunctionFilter(functionName string, since time.Time, severity string) string {
	filters := []string{
		`resource.type="cloud_function"`,
		fmt.Sprintf(`resource.labels.function_name=%q`, functionName),
		fmt.Sprintf(`timestamp>=%q`, since.UTC().Format(time.RFC3339)),
	}

	if severity != "" {
		filters = append(filters, fmt.Sprintf("severity>=%s", strings.ToUpper(severity)))
	}

	return strings.Join(filters, " AND ")
}

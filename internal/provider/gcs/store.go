// Package gcs implements the object store capability provider on top of
// Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"cloud.google.com/go/storage"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"

	"github.com/oktay-be/gcp-testing-agent/internal/provider"
)

const defaultListLimit = 20

// Store is a read-only ObjectStore backed by GCS.
type Store struct {
	client *storage.Client
	log    logrus.FieldLogger
}

// NewStore creates a GCS-backed object store. The client uses application
// default credentials; the project is implied by the buckets queried.
func NewStore(ctx context.Context, log logrus.FieldLogger) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating gcs client: %w", err)
	}

	return &Store{
		client: client,
		log:    log.WithField("component", "gcs_store"),
	}, nil
}

// ListObjects returns up to limit objects under the prefix.
func (s *Store) ListObjects(ctx context.Context, bucket, prefix string, limit int) ([]provider.ObjectInfo, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	s.log.WithFields(logrus.Fields{
		"bucket": bucket,
		"prefix": prefix,
		"limit":  limit,
	}).Debug("listing objects")

	it := s.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	results := make([]provider.ObjectInfo, 0, limit)
	for len(results) < limit {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing gs://%s/%s: %w", bucket, prefix, classify(err))
		}

		results = append(results, provider.ObjectInfo{
			Name:        attrs.Name,
			Size:        attrs.Size,
			Updated:     attrs.Updated,
			ContentType: attrs.ContentType,
		})
	}

	return results, nil
}

// ReadObject returns the raw content of a single object.
func (s *Store) ReadObject(ctx context.Context, bucket, object string) ([]byte, error) {
	s.log.WithFields(logrus.Fields{
		"bucket": bucket,
		"object": object,
	}).Debug("reading object")

	reader, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("gs://%s/%s: %w", bucket, object, provider.ErrNotFound)
		}
		return nil, fmt.Errorf("reading gs://%s/%s: %w", bucket, object, classify(err))
	}
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading gs://%s/%s: %w", bucket, object, err)
	}

	return data, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// classify marks caller-fixable HTTP failures as permanent so the executor
// does not burn its retry budget on them.
func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return provider.Permanent(err)
		}
	}

	if errors.Is(err, storage.ErrBucketNotExist) {
		return provider.Permanent(err)
	}

	return err
}

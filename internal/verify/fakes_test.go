package verify

import (
	"context"
	"sync"
	"time"

	"github.com/oktay-be/gcp-testing-agent/internal/provider"
)

// listResponse scripts one ListObjects call for the fake object store.
type listResponse struct {
	objects []provider.ObjectInfo
	err     error
}

// readResponse scripts one ReadObject call.
type readResponse struct {
	content []byte
	err     error
}

// fakeObjectStore replays scripted responses; the last response repeats
// once the script runs out. Safe for concurrent use.
type fakeObjectStore struct {
	mu    sync.Mutex
	lists []listResponse
	reads []readResponse
	calls int
	delay time.Duration
}

func (f *fakeObjectStore) ListObjects(ctx context.Context, _, _ string, _ int) ([]provider.ObjectInfo, error) {
	if err := f.sleep(ctx); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	resp := f.lists[minInt(f.calls, len(f.lists)-1)]
	f.calls++

	return resp.objects, resp.err
}

func (f *fakeObjectStore) ReadObject(ctx context.Context, _, _ string) ([]byte, error) {
	if err := f.sleep(ctx); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	resp := f.reads[minInt(f.calls, len(f.reads)-1)]
	f.calls++

	return resp.content, resp.err
}

func (f *fakeObjectStore) sleep(ctx context.Context) error {
	if f.delay <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(f.delay):
		return nil
	}
}

func (f *fakeObjectStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

// fakeLogStore returns the same records on every query.
type fakeLogStore struct {
	records []provider.LogRecord
	err     error
}

func (f *fakeLogStore) QueryEntries(_ context.Context, _ string, _ int) ([]provider.LogRecord, error) {
	return f.records, f.err
}

// fakeFunctionAdmin returns the same function info on every call.
type fakeFunctionAdmin struct {
	info *provider.FunctionInfo
	err  error
}

func (f *fakeFunctionAdmin) DescribeFunction(_ context.Context, _ string) (*provider.FunctionInfo, error) {
	return f.info, f.err
}

// fastRetry is a retry policy with negligible waits for tests.
func fastRetry(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     maxAttempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
		Multiplier:      1,
	}
}

func objects(names ...string) []provider.ObjectInfo {
	result := make([]provider.ObjectInfo, 0, len(names))
	for _, name := range names {
		result = append(result, provider.ObjectInfo{Name: name, Size: 42, Updated: time.Unix(1700000000, 0).UTC()})
	}

	return result
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

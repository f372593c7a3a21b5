package provider

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitObjectPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{name: "gs scheme with object", path: "gs://bucket/out/result.json", wantBucket: "bucket", wantObject: "out/result.json"},
		{name: "gs scheme bare bucket", path: "gs://bucket", wantBucket: "bucket"},
		{name: "no scheme", path: "bucket/prefix/", wantBucket: "bucket", wantObject: "prefix/"},
		{name: "bare bucket", path: "bucket", wantBucket: "bucket"},
		{name: "empty", path: "", wantErr: true},
		{name: "scheme only", path: "gs://", wantErr: true},
		{name: "leading slash", path: "gs:///object", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			bucket, object, err := SplitObjectPath(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.wantBucket, bucket)
			require.Equal(t, tt.wantObject, object)
		})
	}
}

func TestPermanent(t *testing.T) {
	t.Parallel()

	base := errors.New("invalid credentials")

	require.Nil(t, Permanent(nil))
	require.False(t, IsPermanent(base))
	require.True(t, IsPermanent(Permanent(base)))

	// Marker survives wrapping.
	wrapped := fmt.Errorf("querying provider: %w", Permanent(base))
	require.True(t, IsPermanent(wrapped))
	require.ErrorIs(t, wrapped, base)
}

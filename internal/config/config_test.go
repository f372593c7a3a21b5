package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GCP_PROJECT_ID", "test-project")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "test-project", cfg.ProjectID)
	require.Equal(t, "us-central1", cfg.Region)
	require.Equal(t, "scraping-requests", cfg.PipelineTopic)
	require.Equal(t, 5, cfg.MaxAttempts)
	require.Equal(t, 2*time.Second, cfg.InitialBackoff)
	require.Equal(t, 30*time.Second, cfg.MaxBackoff)
	require.Equal(t, 2*time.Minute, cfg.CheckTimeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GCP_PROJECT_ID", "test-project")
	t.Setenv("VERIFY_MAX_ATTEMPTS", "9")
	t.Setenv("VERIFY_INITIAL_BACKOFF", "500ms")
	t.Setenv("VERIFY_CHECK_TIMEOUT", "45s")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 9, cfg.MaxAttempts)
	require.Equal(t, 500*time.Millisecond, cfg.InitialBackoff)
	require.Equal(t, 45*time.Second, cfg.CheckTimeout)
}

func TestLoad_InvalidDurationFails(t *testing.T) {
	t.Setenv("VERIFY_INITIAL_BACKOFF", "soon")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "VERIFY_INITIAL_BACKOFF")
}

func TestString_ShowsPlaceholders(t *testing.T) {
	t.Setenv("GCP_PROJECT_ID", "")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")

	cfg, err := Load()
	require.NoError(t, err)

	rendered := cfg.String()
	require.Contains(t, rendered, "GCP Project:         (not set)")
	require.Contains(t, rendered, "Pipeline Topic:      scraping-requests")
}

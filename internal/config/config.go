// Package config handles configuration loading and management
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	ProjectID        string
	Region           string
	ArtifactBucket   string
	PipelineTopic    string
	PipelineFunction string

	// Retry/backoff knobs for check execution. Eventual consistency of
	// remote GCP state is the reason these exist; tune per deployment.
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	CheckTimeout   time.Duration
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// It's okay if the file doesn't exist
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		ProjectID:        getEnv("GCP_PROJECT_ID", getEnv("GOOGLE_CLOUD_PROJECT", "")),
		Region:           getEnv("REGION", "us-central1"),
		ArtifactBucket:   getEnv("ARTIFACT_BUCKET", ""),
		PipelineTopic:    getEnv("SCRAPING_REQUESTS_TOPIC", "scraping-requests"),
		PipelineFunction: getEnv("PIPELINE_FUNCTION", "scraper-pipeline"),
	}

	maxAttempts, err := strconv.Atoi(getEnv("VERIFY_MAX_ATTEMPTS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid VERIFY_MAX_ATTEMPTS: %w", err)
	}
	cfg.MaxAttempts = maxAttempts

	initialBackoff, err := time.ParseDuration(getEnv("VERIFY_INITIAL_BACKOFF", "2s"))
	if err != nil {
		return nil, fmt.Errorf("invalid VERIFY_INITIAL_BACKOFF: %w", err)
	}
	cfg.InitialBackoff = initialBackoff

	maxBackoff, err := time.ParseDuration(getEnv("VERIFY_MAX_BACKOFF", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid VERIFY_MAX_BACKOFF: %w", err)
	}
	cfg.MaxBackoff = maxBackoff

	checkTimeout, err := time.ParseDuration(getEnv("VERIFY_CHECK_TIMEOUT", "2m"))
	if err != nil {
		return nil, fmt.Errorf("invalid VERIFY_CHECK_TIMEOUT: %w", err)
	}
	cfg.CheckTimeout = checkTimeout

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) String() string {
	projectDisplay := c.ProjectID
	if projectDisplay == "" {
		projectDisplay = "(not set)"
	}

	bucketDisplay := c.ArtifactBucket
	if bucketDisplay == "" {
		bucketDisplay = "(not set)"
	}

	return fmt.Sprintf(`Current Configuration:
======================
GCP Project:         %s
Region:              %s
Artifact Bucket:     %s
Pipeline Topic:      %s
Pipeline Function:   %s
Max Attempts:        %d
Initial Backoff:     %s
Max Backoff:         %s
Check Timeout:       %s`,
		projectDisplay,
		c.Region,
		bucketDisplay,
		c.PipelineTopic,
		c.PipelineFunction,
		c.MaxAttempts,
		c.InitialBackoff,
		c.MaxBackoff,
		c.CheckTimeout,
	)
}

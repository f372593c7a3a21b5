package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/oktay-be/gcp-testing-agent/internal/intent"
	"github.com/oktay-be/gcp-testing-agent/internal/verify"
)

func sampleReport() *verify.Report {
	return &verify.Report{
		ID:      "0d9d1cb2-5f0e-4a3e-9a53-8f2c6cba1f00",
		Intent:  "scraper-pipeline-output",
		Verdict: verify.VerdictFailed,
		Results: []*verify.AssertionResult{
			{
				Name:     "result-artifact-written",
				Kind:     intent.KindObjectExists,
				Status:   verify.StatusSatisfied,
				Attempts: 3,
				Elapsed:  4200 * time.Millisecond,
			},
			{
				Name:     "no-function-errors",
				Kind:     intent.KindLogAbsent,
				Status:   verify.StatusFailed,
				Reason:   "expected no matching log entries, found 1",
				Evidence: []string{"[2025-06-01T11:45:00Z] ERROR scrape worker crashed"},
				Attempts: 1,
				Elapsed:  300 * time.Millisecond,
			},
		},
		Elapsed: 5 * time.Second,
		Summary: "FAILED: 1/2 assertions satisfied, 1 failed",
	}
}

func TestPrintReport(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	NewFormatter(&buf).PrintReport(sampleReport())

	out := buf.String()
	require.Contains(t, out, "▸ scraper-pipeline-output")
	require.Contains(t, out, "✓ result-artifact-written")
	require.Contains(t, out, "✗ no-function-errors")
	require.Contains(t, out, "expected no matching log entries, found 1")
	require.Contains(t, out, "evidence: [2025-06-01T11:45:00Z] ERROR scrape worker crashed")
	require.Contains(t, out, "FAILED: 1/2 assertions satisfied, 1 failed")
}

func TestPrintReport_SatisfiedResultsOmitEvidence(t *testing.T) {
	color.NoColor = true

	report := sampleReport()
	report.Results = report.Results[:1]

	var buf bytes.Buffer
	NewFormatter(&buf).PrintReport(report)

	require.NotContains(t, buf.String(), "evidence:")
}

func TestPrintJSON_RoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf).PrintJSON(sampleReport()))

	var decoded verify.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	require.Equal(t, verify.VerdictFailed, decoded.Verdict)
	require.Len(t, decoded.Results, 2)
	require.Equal(t, "no-function-errors", decoded.Results[1].Name)
}

// Package output renders verification reports for humans and bridges.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/oktay-be/gcp-testing-agent/internal/verify"
)

// Formatter provides clean, human-friendly report output
type Formatter struct {
	writer io.Writer

	green  *color.Color
	red    *color.Color
	yellow *color.Color
	blue   *color.Color
	gray   *color.Color
}

// NewFormatter creates a new report formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
		green:  color.New(color.FgGreen),
		red:    color.New(color.FgRed),
		yellow: color.New(color.FgYellow),
		blue:   color.New(color.FgBlue),
		gray:   color.New(color.FgHiBlack),
	}
}

// PrintReport renders the verdict banner, the per-assertion breakdown in
// declaration order, and evidence for everything that did not pass.
func (f *Formatter) PrintReport(report *verify.Report) {
	f.blue.Fprintf(f.writer, "\n▸ %s\n", report.Intent)

	for _, result := range report.Results {
		f.printResult(result)
	}

	fmt.Fprintln(f.writer)

	switch report.Verdict {
	case verify.VerdictPassed:
		f.green.Fprintf(f.writer, "%s\n", report.Summary)
	case verify.VerdictFailed:
		f.red.Fprintf(f.writer, "%s\n", report.Summary)
	default:
		f.yellow.Fprintf(f.writer, "%s\n", report.Summary)
	}

	f.gray.Fprintf(f.writer, "run %s completed in %s\n", report.ID, formatDuration(report.Elapsed))
}

// PrintJSON emits the report as a structured document for the calling
// bridge.
func (f *Formatter) PrintJSON(report *verify.Report) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	return nil
}

func (f *Formatter) printResult(result *verify.AssertionResult) {
	glyph, c := f.statusStyle(result.Status)

	c.Fprintf(f.writer, "  %s %s", glyph, result.Name)
	f.gray.Fprintf(f.writer, " [%s, %d attempt(s), %s]\n", result.Kind, result.Attempts, formatDuration(result.Elapsed))

	if result.Status == verify.StatusSatisfied {
		return
	}

	if result.Reason != "" {
		c.Fprintf(f.writer, "      %s\n", result.Reason)
	}

	for _, evidence := range result.Evidence {
		f.gray.Fprintf(f.writer, "      evidence: %s\n", evidence)
	}
}

func (f *Formatter) statusStyle(status verify.Status) (string, *color.Color) {
	switch status {
	case verify.StatusSatisfied:
		return "✓", f.green
	case verify.StatusFailed:
		return "✗", f.red
	default:
		return "?", f.yellow
	}
}

// formatDuration formats duration in human-readable format
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}

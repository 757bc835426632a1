// Package outwriter has output and writer logic.
package outwriter

import (
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/huangsam/runlens/internal/contract"
	"github.com/huangsam/runlens/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the commands.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteDashboard prints a dashboard snapshot using the configured output format.
func (ow *OutWriter) WriteDashboard(snap schema.DashboardSnapshot, cfg *contract.Config, duration time.Duration) error {
	return renderTo(cfg.OutputFile, "dashboard", func(w io.Writer) error {
		return WriteDashboard(w, snap, cfg, duration)
	})
}

// WriteAnalytics prints an advanced analytics snapshot using the configured output format.
func (ow *OutWriter) WriteAnalytics(snap schema.AdvancedSnapshot, cfg *contract.Config, duration time.Duration) error {
	return renderTo(cfg.OutputFile, "analytics", func(w io.Writer) error {
		return WriteAnalytics(w, snap, cfg, duration)
	})
}

// WriteMetric prints one metric using the configured output format.
func (ow *OutWriter) WriteMetric(metric schema.MetricName, value any, cfg *contract.Config, duration time.Duration) error {
	return renderTo(cfg.OutputFile, string(metric), func(w io.Writer) error {
		return WriteMetric(w, metric, value, cfg, duration)
	})
}

// getTerminalWidth returns the configured width, the detected terminal width, or 80.
func getTerminalWidth(cfg *contract.Config) int {
	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		return cfg.Width
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		// Conservative default for narrow terminals and CI
		return 80
	}
	return detectedWidth
}

// getMaxTextWidth calculates the maximum width of a free-text column (package names,
// messages) in table output, based on terminal width and the number of other columns.
func getMaxTextWidth(cfg *contract.Config, otherColumns int) int {
	// Reserve space for the fixed columns, borders and padding
	available := getTerminalWidth(cfg) - otherColumns*12 - 10
	if available < 15 {
		return 15
	}
	if available > 70 {
		return 70
	}
	return available
}

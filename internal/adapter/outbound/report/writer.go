// Package report renders a BatchResult as the output artifacts of a run:
// a decisions CSV, a JSON dump, a Markdown summary, and a Prometheus
// textfile metrics dump. The core exposes BatchResult as plain data; all
// formatting lives here.
package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/certward/certward/internal/domain/cert"
)

// Output file names within the output directory.
const (
	DecisionsCSV  = "decisions.csv"
	DecisionsJSON = "decisions.json"
	SummaryMD     = "report.md"
	MetricsProm   = "metrics.prom"
)

// Writer writes all report artifacts for a batch result.
type Writer struct {
	// flaggedSamples caps how many flagged decisions the Markdown summary
	// lists. Zero means all.
	flaggedSamples int
	logger         *slog.Logger
}

// NewWriter creates a report writer.
func NewWriter(flaggedSamples int, logger *slog.Logger) *Writer {
	return &Writer{flaggedSamples: flaggedSamples, logger: logger}
}

// WriteAll creates dir if needed and writes every artifact. Called only
// after the whole batch evaluated successfully, so a failed run never leaves
// partial output behind.
func (w *Writer) WriteAll(dir string, result cert.BatchResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	artifacts := []struct {
		name  string
		write func(string, cert.BatchResult) error
	}{
		{DecisionsCSV, writeCSV},
		{DecisionsJSON, writeJSON},
		{SummaryMD, w.writeMarkdown},
		{MetricsProm, writeMetrics},
	}
	for _, a := range artifacts {
		path := filepath.Join(dir, a.name)
		if err := a.write(path, result); err != nil {
			return fmt.Errorf("write %s: %w", a.name, err)
		}
		w.logger.Info("report written", "path", path)
	}
	return nil
}

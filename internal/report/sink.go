// Package report writes analysis and reconciliation reports to durable
// storage as timestamped JSON documents.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"invoiceguard/internal/logger"
)

// Sink serializes reports into a directory.
type Sink struct {
	dir string
	log zerolog.Logger
}

// NewSink creates a sink writing into dir. An empty dir means the current
// working directory.
func NewSink(dir string) *Sink {
	if dir == "" {
		dir = "."
	}
	return &Sink{
		dir: dir,
		log: logger.WithComponent("report-sink"),
	}
}

// WriteFraudReport persists a fraud-analysis report and returns its path.
func (s *Sink) WriteFraudReport(report any, at time.Time) (string, error) {
	return s.write("fraud_analysis", report, at)
}

// WriteReconciliationReport persists a reconciliation report and returns
// its path.
func (s *Sink) WriteReconciliationReport(report any, at time.Time) (string, error) {
	return s.write("reconciliation", report, at)
}

func (s *Sink) write(prefix string, report any, at time.Time) (string, error) {
	const op = "write"

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%s: failed to marshal %s report: %w", op, prefix, err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("%s: failed to create report directory: %w", op, err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", prefix, at.Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("%s: failed to write %s report: %w", op, prefix, err)
	}

	s.log.Info().Str("path", path).Msg("Report saved")
	return path, nil
}

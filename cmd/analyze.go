package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"invoiceguard/internal/config"
	"invoiceguard/internal/fraud"
	"invoiceguard/internal/logger"
	"invoiceguard/internal/report"
	"invoiceguard/pkg/enums"
	"invoiceguard/pkg/models"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <invoice.json>",
	Short: "Run fraud analysis on a candidate invoice",
	Long: `Run the full fraud-analysis workflow on a candidate invoice.

The candidate is evaluated against the historical invoice store (duplicate,
round-number, velocity and calculation rules), its supplier is risk-scored,
and the optional advisory hook annotates the findings. The resulting status
verdict is applied, the candidate is appended to the store, and a report is
written to the report directory.

Relevant environment variables:
  STORE_BACKEND / STORE_PATH - historical invoice store (json or sqlite)
  OPENAI_API_KEY             - enables the advisory hook (optional)
  REPORT_DIR                 - where analysis reports are written`,
	Example: `  # Analyze an extracted invoice
  invoiceguard analyze result_20240210_220724.json

  # Analyze against a fixed reference date (deterministic time windows)
  invoiceguard analyze invoice.json --at 2024-02-10

  # Evaluate without touching the store or writing a report
  invoiceguard analyze invoice.json --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("at", "", "Reference time for time-window rules (RFC3339 or YYYY-MM-DD, default: now)")
	analyzeCmd.Flags().Bool("dry-run", false, "Analyze but don't update the store or write a report")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	const op = "runAnalyze"
	log := logger.WithComponent("analyze")

	atStr, _ := cmd.Flags().GetString("at")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	now, err := parseReferenceTime(atStr)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	candidate, err := loadCandidate(args[0], now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info().
		Str("invoice_number", candidate.InvoiceNumber).
		Str("supplier", candidate.SupplierName).
		Str("amount", candidate.TotalAmount.Raw()).
		Str("currency", candidate.Currency).
		Bool("dry_run", dryRun).
		Msg("Starting fraud analysis workflow")

	ctx := context.Background()

	invoiceStore, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("%s: failed to initialize invoice store: %w", op, err)
	}
	if err := invoiceStore.Load(ctx); err != nil {
		return fmt.Errorf("%s: failed to load invoice store: %w", op, err)
	}

	analyzer, err := fraud.NewAnalyzer(fraud.NewEngine(), fraud.NewScorer(), buildAdvisor(cfg))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	analysis, err := analyzer.Analyze(ctx, candidate, invoiceStore.All(), now)
	if err != nil {
		return fmt.Errorf("%s: analysis failed: %w", op, err)
	}

	log.Info().
		Int("issues", analysis.TotalIssues).
		Int("risk_score", analysis.SupplierRisk.Score).
		Str("risk_level", string(analysis.SupplierRisk.Level)).
		Str("fraud_probability", string(analysis.Advisory.FraudProbability)).
		Str("recommended_action", string(analysis.Advisory.RecommendedAction)).
		Str("verdict", string(analysis.Verdict)).
		Msg("Analysis summary")

	if dryRun {
		log.Info().Msg("Dry run mode: store and report left untouched")
		return nil
	}

	// Apply the verdict and persist the candidate so future passes see it.
	candidate.Status = analysis.Verdict
	for _, finding := range analysis.Findings {
		candidate.Flags = append(candidate.Flags, finding.Reason)
	}
	invoiceStore.Append(*candidate)
	if err := invoiceStore.Save(ctx); err != nil {
		return fmt.Errorf("%s: failed to save invoice store: %w", op, err)
	}

	sink := report.NewSink(cfg.ReportDir)
	path, err := sink.WriteFraudReport(analysis, now)
	if err != nil {
		return fmt.Errorf("%s: failed to write report: %w", op, err)
	}

	log.Info().Str("report", path).Msg("Fraud analysis workflow completed")
	return nil
}

// loadCandidate reads a candidate invoice from a JSON file. Extraction
// results sometimes wrap the invoice under an "analysis" key; both shapes
// are accepted.
func loadCandidate(path string, now time.Time) (*models.InvoiceRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read invoice file: %w", err)
	}

	var wrapped struct {
		Analysis *models.InvoiceRecord `json:"analysis"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Analysis != nil {
		return normalizeCandidate(wrapped.Analysis, now), nil
	}

	var candidate models.InvoiceRecord
	if err := json.Unmarshal(data, &candidate); err != nil {
		return nil, fmt.Errorf("failed to parse invoice file: %w", err)
	}
	return normalizeCandidate(&candidate, now), nil
}

func normalizeCandidate(candidate *models.InvoiceRecord, now time.Time) *models.InvoiceRecord {
	if candidate.Status == "" {
		candidate.Status = enums.StatusPending
	}
	if candidate.Timestamp.IsZero() {
		candidate.Timestamp = models.NewTimestamp(now)
	}
	return candidate
}

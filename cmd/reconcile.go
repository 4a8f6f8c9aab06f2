package cmd

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"invoiceguard/internal/config"
	"invoiceguard/internal/logger"
	"invoiceguard/internal/reconcile"
	"invoiceguard/internal/report"
	"invoiceguard/pkg/enums"
	"invoiceguard/pkg/models"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <wallet>",
	Short: "Reconcile observed payments with pending invoices",
	Long: `Match payment events observed for a wallet against pending invoices.

Payment events come from the ledger-monitoring collaborator, either a JSON
events file (PAYMENT_EVENTS_FILE or --events) or a built-in mock event in
--mock mode. Each payment is matched against pending invoices under the
amount tolerance; exact matches mark the invoice paid.

Relevant environment variables:
  STORE_BACKEND / STORE_PATH - historical invoice store (json or sqlite)
  PAYMENT_EVENTS_FILE        - JSON document of observed payment events
  REPORT_DIR                 - where reconciliation reports are written`,
	Example: `  # Reconcile against observed events
  invoiceguard reconcile 0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb --events payments.json

  # Development mode with a mock payment
  invoiceguard reconcile 0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb --mock`,
	Args: cobra.ExactArgs(1),
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().String("events", "", "JSON file of payment events (overrides PAYMENT_EVENTS_FILE)")
	reconcileCmd.Flags().String("from", "latest", "Starting point for the ledger watcher")
	reconcileCmd.Flags().Float64("tolerance", 0.01, "Amount tolerance for exact matches")
	reconcileCmd.Flags().Bool("mock", false, "Use a built-in mock payment instead of a watcher")
	reconcileCmd.Flags().Bool("dry-run", false, "Match but don't update invoice statuses or write a report")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	const op = "runReconcile"
	log := logger.WithComponent("reconcile")

	wallet := args[0]
	eventsFile, _ := cmd.Flags().GetString("events")
	from, _ := cmd.Flags().GetString("from")
	toleranceFlag, _ := cmd.Flags().GetFloat64("tolerance")
	mockMode, _ := cmd.Flags().GetBool("mock")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if eventsFile == "" {
		eventsFile = cfg.PaymentEventsFile
	}

	matcher, err := reconcile.NewMatcher(decimal.NewFromFloat(toleranceFlag))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info().
		Str("wallet", wallet).
		Str("from", from).
		Bool("mock", mockMode).
		Bool("dry_run", dryRun).
		Float64("tolerance", toleranceFlag).
		Msg("Starting payment reconciliation")

	ctx := context.Background()
	now := timeNow()

	invoiceStore, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("%s: failed to initialize invoice store: %w", op, err)
	}
	if err := invoiceStore.Load(ctx); err != nil {
		return fmt.Errorf("%s: failed to load invoice store: %w", op, err)
	}

	pendingInvoices := invoiceStore.Pending()
	if len(pendingInvoices) == 0 {
		log.Info().Msg("No pending invoices to reconcile")
		return nil
	}
	log.Info().Int("pending_invoices", len(pendingInvoices)).Msg("Pending invoices loaded")

	watcher := buildWatcher(eventsFile, mockMode)
	payments := watcher.Payments(ctx, wallet, from)
	if len(payments) == 0 {
		log.Info().Msg("No new payments found")
		return nil
	}
	log.Info().Int("payments", len(payments)).Msg("Payment events observed")

	matches := matcher.Match(pendingInvoices, payments)
	result := reconcile.NewReport(wallet, matches, now)

	log.Info().
		Int("total_payments", result.TotalPayments).
		Int("matched", result.MatchedPayments).
		Int("unmatched", result.UnmatchedPayments).
		Msg("Reconciliation summary")

	if dryRun {
		log.Info().Msg("Dry run mode: store and report left untouched")
		return nil
	}

	// Exact matches close out their invoices.
	for _, match := range matches {
		if match.Matched && match.MatchType == enums.MatchTypeExact {
			invoiceStore.SetStatus(match.Invoice.InvoiceNumber, enums.StatusPaid)
		}
	}
	if err := invoiceStore.Save(ctx); err != nil {
		return fmt.Errorf("%s: failed to save invoice store: %w", op, err)
	}

	sink := report.NewSink(cfg.ReportDir)
	path, err := sink.WriteReconciliationReport(result, now)
	if err != nil {
		return fmt.Errorf("%s: failed to write report: %w", op, err)
	}

	log.Info().Str("report", path).Msg("Payment reconciliation completed")
	return nil
}

// buildWatcher selects the payment event source. Mock mode mirrors the
// development fixture used before a real ledger watcher is wired up.
func buildWatcher(eventsFile string, mockMode bool) reconcile.Watcher {
	if mockMode || eventsFile == "" {
		return reconcile.StaticWatcher{
			Events: []models.PaymentEvent{
				{
					TxRef:      "0xmock123abc",
					From:       "0x1234567890123456789012345678901234567890",
					Value:      decimal.NewFromFloat(2380.00),
					ObservedAt: models.NewTimestamp(timeNow()),
					BlockRef:   12345678,
				},
			},
		}
	}
	return reconcile.NewFileWatcher(eventsFile)
}

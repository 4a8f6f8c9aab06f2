package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"invoiceguard/internal/config"
	"invoiceguard/internal/fraud"
	"invoiceguard/internal/logger"
)

var riskCmd = &cobra.Command{
	Use:   "risk <supplier>",
	Short: "Compute a supplier's risk score",
	Long: `Compute a supplier's risk score from the historical invoice store.

The score is derived fresh from current store contents on every run; a
supplier with no history scores a neutral 50/medium.`,
	Example: `  invoiceguard risk "Acme GmbH"`,
	Args:    cobra.ExactArgs(1),
	RunE:    runRisk,
}

func init() {
	rootCmd.AddCommand(riskCmd)
}

func runRisk(cmd *cobra.Command, args []string) error {
	const op = "runRisk"
	log := logger.WithComponent("risk")

	supplier := args[0]

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()
	invoiceStore, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("%s: failed to initialize invoice store: %w", op, err)
	}
	if err := invoiceStore.Load(ctx); err != nil {
		return fmt.Errorf("%s: failed to load invoice store: %w", op, err)
	}

	score := fraud.NewScorer().Score(supplier, invoiceStore.BySupplier(supplier))

	log.Info().
		Str("supplier", supplier).
		Int("score", score.Score).
		Str("level", string(score.Level)).
		Int("total_invoices", score.TotalInvoices).
		Int("flagged_invoices", score.FlaggedInvoices).
		Msg("Supplier risk computed")

	fmt.Printf("Supplier risk for %q: %d/100 (%s)\n", supplier, score.Score, score.Level)
	if score.Reason != "" {
		fmt.Printf("  %s\n", score.Reason)
	} else {
		fmt.Printf("  Historical invoices: %d (%d flagged)\n", score.TotalInvoices, score.FlaggedInvoices)
	}
	return nil
}

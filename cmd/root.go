package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"invoiceguard/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "invoiceguard",
	Short: "Invoiceguard - fraud analysis and payment reconciliation for invoices",
	Long: `Invoiceguard analyzes invoices for fraud patterns, scores supplier risk
from historical data, and reconciles incoming payments against open invoices.

The historical invoice store, advisory hook and report location are
configured through environment variables; see the analyze, risk and
reconcile subcommands for details.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("Invoiceguard executed")

		fmt.Println("Welcome to Invoiceguard!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}

// Package cmd provides CLI commands for payout-sync.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile      string
	accountsFile string
	debug        bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "payout-sync",
	Short: "Post payment processor payouts to Xero as manual journals",
	Long: `payout-sync reconciles payouts from Stripe and GoCardless into
Xero. Each payout becomes one posted manual journal that splits the
gross takings into sales, processor commission and the net amount
received.

Payouts already in Xero are recognised by the payout id in the journal
narration, so every import can be re-run safely. Runs against the same
Xero organisation must not overlap.

Example:
  payout-sync gocardless
  payout-sync stripe --dry-run
  payout-sync stats`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Setup logging
		logLevel := slog.LevelInfo
		if debug || os.Getenv("DEBUG") == "true" {
			logLevel = slog.LevelDebug
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&accountsFile, "accounts", "", "account codes file (default is $PAYOUT_SYNC_ACCOUNTS or config/accounts.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(gocardlessCmd)
	rootCmd.AddCommand(gocardlessBillsCmd)
	rootCmd.AddCommand(stripeCmd)
	rootCmd.AddCommand(statsCmd)
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}

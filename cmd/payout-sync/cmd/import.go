package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/payout-sync/pkg/archive"
	"github.com/shunichi-ikebuchi/payout-sync/pkg/config"
	"github.com/shunichi-ikebuchi/payout-sync/pkg/db"
	"github.com/shunichi-ikebuchi/payout-sync/pkg/gocardless"
	"github.com/shunichi-ikebuchi/payout-sync/pkg/journal"
	"github.com/shunichi-ikebuchi/payout-sync/pkg/reconcile"
	"github.com/shunichi-ikebuchi/payout-sync/pkg/stripe"
	"github.com/shunichi-ikebuchi/payout-sync/pkg/xero"
)

// importer describes one payout source the CLI can reconcile.
type importer struct {
	processor string     // Account requirements, see config.Accounts.Validate
	required  [][]string // Configuration the source needs besides Xero
	newSource func(cfg *config.Config, accounts *config.Accounts, logger *slog.Logger) reconcile.Source
}

var gocardlessImporter = importer{
	processor: config.ProcessorGoCardless,
	required: [][]string{
		{"gocardless", "accessToken"},
		{"gocardless", "merchantId"},
	},
	newSource: func(cfg *config.Config, accounts *config.Accounts, _ *slog.Logger) reconcile.Source {
		return gocardless.NewPayoutSource(newGoCardlessClient(cfg), goCardlessAccounts(accounts))
	},
}

var gocardlessBillsImporter = importer{
	processor: config.ProcessorGoCardless,
	required: [][]string{
		{"gocardless", "accessToken"},
		{"gocardless", "merchantId"},
	},
	newSource: func(cfg *config.Config, accounts *config.Accounts, logger *slog.Logger) reconcile.Source {
		return gocardless.NewBillSource(newGoCardlessClient(cfg), goCardlessAccounts(accounts), logger)
	},
}

var stripeImporter = importer{
	processor: config.ProcessorStripe,
	required: [][]string{
		{"stripe", "apiUrl"},
		{"stripe", "secretKey"},
		{"sync", "baseCurrency"},
	},
	newSource: func(cfg *config.Config, accounts *config.Accounts, logger *slog.Logger) reconcile.Source {
		client := stripe.NewClient(stripe.ClientConfig{
			APIURL:    cfg.Stripe.APIURL,
			SecretKey: cfg.Stripe.SecretKey,
			Timeout:   30 * time.Second,
		})
		return stripe.NewTransferSource(client, stripe.Accounts{
			Sales:                accounts.SalesAccount,
			Commission:           accounts.CommissionAccount,
			Clearing:             accounts.StripeAccount,
			ReverseChargeTaxType: accounts.ReverseChargeTaxType,
		}, cfg.Sync.BaseCurrency, logger)
	},
}

var gocardlessCmd = newImportCmd(gocardlessImporter, &cobra.Command{
	Use:   "gocardless",
	Short: "Post GoCardless payouts to Xero",
	Long: `Post one journal per GoCardless payout paid in the last 300 days.

Each journal credits sales with the payout amount plus fees, debits
commission with the fees and debits the GoCardless account with the
amount paid out.

Example:
  payout-sync gocardless
  payout-sync gocardless --dry-run`,
})

var gocardlessBillsCmd = newImportCmd(gocardlessBillsImporter, &cobra.Command{
	Use:   "gocardless-bills",
	Short: "Post withdrawn GoCardless bills to Xero",
	Long: `Post one journal per withdrawn GoCardless bill, naming the payer in
the sales line.

Bills are not limited to the last 300 days. A withdrawn bill older than
that is posted again if its journal is outside the lookback, and a
warning is logged for it.

Example:
  payout-sync gocardless-bills --dry-run`,
})

var stripeCmd = newImportCmd(stripeImporter, &cobra.Command{
	Use:   "stripe",
	Short: "Post Stripe transfers to Xero",
	Long: `Post one journal per Stripe transfer created in the last 300 days in
the base currency (BASE_CURRENCY, default GBP). Transfers in other
currencies are skipped.

Stripe fees are posted with the reverse charge tax type, and refunds
in the transfer summary get their own lines.

Example:
  payout-sync stripe
  payout-sync stripe --dry-run`,
})

func newImportCmd(imp importer, cmd *cobra.Command) *cobra.Command {
	var dryRun bool
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Dry run mode (print journals, submit nothing)")
	cmd.Args = cobra.NoArgs
	cmd.Run = func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		runImport(ctx, cmd.Name(), imp, dryRun)
	}
	return cmd
}

func runImport(ctx context.Context, name string, imp importer, dryRun bool) {
	slog.Info("Starting import", "source", name, "dry_run", dryRun)

	// Load configuration
	cfg, err := config.Load(cfgFile)
	exitOnError(err, "failed to load configuration")
	if accountsFile != "" {
		cfg.Sync.AccountsFile = accountsFile
	}

	// Validate required fields
	required := append([][]string{
		{"xero", "apiUrl"},
		{"xero", "tenantId"},
		{"xero", "credentials"},
		{"sync", "accountsFile"},
		{"sync", "dbPath"},
	}, imp.required...)
	if err := cfg.Validate(required...); err != nil {
		exitOnError(err, "invalid configuration")
	}

	accounts, err := config.LoadAccounts(cfg.Sync.AccountsFile)
	exitOnError(err, "failed to load account codes")
	exitOnError(accounts.Validate(imp.processor), "invalid account codes")

	// Open database
	slog.Debug("Opening database", "path", cfg.Sync.DBPath)
	conn, err := db.Open(cfg.Sync.DBPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	history := db.NewHistory(conn)

	// Initialize Xero API client
	xeroClient := xero.NewClient(xero.ClientConfig{
		APIURL:   cfg.Xero.APIURL,
		TenantID: cfg.Xero.TenantID,
		HTTPClient: xero.NewHTTPClient(ctx, xero.AuthConfig{
			ClientID:     cfg.Xero.ClientID,
			ClientSecret: cfg.Xero.ClientSecret,
			AccessToken:  cfg.Xero.AccessToken,
			TokenURL:     cfg.Xero.TokenURL,
			Timeout:      30 * time.Second,
		}),
	})

	logger := slog.Default()
	src := imp.newSource(cfg, accounts, logger)

	reconciler := reconcile.New(xeroClient, reconcile.Options{
		DryRun: dryRun,
		Logger: logger,
	})

	startedAt := time.Now()
	result, runErr := reconciler.Run(ctx, src)

	// Journals accepted before a failure are recorded too
	if result != nil {
		runID, err := history.RecordRun(ctx, runFromResult(result, startedAt), submittedJournals(result))
		if err != nil {
			slog.Error("Failed to record run history", "error", err)
		} else {
			slog.Debug("Recorded run", "run_id", runID)
		}

		if cfg.Sync.ArchiveDir != "" {
			archiveJournals(archive.New(cfg.Sync.ArchiveDir), result, runID)
		}
	}
	exitOnError(runErr, "import failed")

	if dryRun {
		for _, entry := range result.Entries {
			fmt.Println(journal.Format(entry))
		}
		fmt.Printf("[DRY RUN] Would submit %d journals\n", len(result.Entries))
	}

	// Display summary
	fmt.Println("\n=== Import Summary ===")
	fmt.Printf("Source:          %s\n", result.Source)
	fmt.Printf("Window:          %s to %s\n",
		result.Window.Start.Format(time.DateOnly), result.Window.End.Format(time.DateOnly))
	fmt.Printf("Fetched:         %d\n", result.Fetched)
	fmt.Printf("Already posted:  %d\n", result.AlreadyPosted)
	fmt.Printf("Submitted:       %d (%d batches)\n", result.Submitted, result.Batches)
	fmt.Println()

	slog.Info("Import completed",
		"source", result.Source,
		"submitted", result.Submitted,
		"already_posted", result.AlreadyPosted,
	)
}

// archiveJournals appends the submitted journals to the archive. Failures
// are logged only; the journals are already in Xero.
func archiveJournals(a *archive.Archive, result *reconcile.Result, runID string) {
	if result.DryRun {
		return
	}

	comment := fmt.Sprintf("%s run %s", result.Source, runID)
	for _, entry := range result.Entries[:result.Submitted] {
		if err := a.Append(entry, comment); err != nil {
			slog.Error("Failed to archive journal", "narration", entry.Narration, "error", err)
		}
	}
	slog.Debug("Archived journals", "root", a.Root(), "count", result.Submitted)
}

func newGoCardlessClient(cfg *config.Config) *gocardless.Client {
	return gocardless.NewClient(gocardless.ClientConfig{
		APIURL:      cfg.GoCardless.APIURL,
		Environment: cfg.GoCardless.Environment,
		AccessToken: cfg.GoCardless.AccessToken,
		MerchantID:  cfg.GoCardless.MerchantID,
		Timeout:     30 * time.Second,
	})
}

func goCardlessAccounts(accounts *config.Accounts) gocardless.Accounts {
	return gocardless.Accounts{
		Sales:      accounts.SalesAccount,
		Commission: accounts.CommissionAccount,
		Clearing:   accounts.GoCardlessAccount,
	}
}

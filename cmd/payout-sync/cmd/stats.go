package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/payout-sync/pkg/config"
	"github.com/shunichi-ikebuchi/payout-sync/pkg/db"
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display run statistics",
	Long: `Display statistics from the local run history.

Shows, per source:
- Number of runs (dry runs included)
- Number of journals submitted
- Last run timestamp and its counts

The history is informational. Xero remains the record of what has
been posted.

Example:
  payout-sync stats`,
	Args: cobra.NoArgs,
	Run:  runStats,
}

func runStats(cmd *cobra.Command, args []string) {
	slog.Info("Loading configuration")

	// Load configuration
	cfg, err := config.Load(cfgFile)
	exitOnError(err, "failed to load configuration")

	// Validate required fields
	if err := cfg.Validate([]string{"sync", "dbPath"}); err != nil {
		exitOnError(err, "invalid configuration")
	}

	// Open database connection
	slog.Debug("Opening database", "path", cfg.Sync.DBPath)
	conn, err := db.Open(cfg.Sync.DBPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	history := db.NewHistory(conn)
	ctx := cmd.Context()

	stats, err := history.GetStats(ctx)
	exitOnError(err, "failed to get statistics")

	// Display statistics
	fmt.Println("\n=== Run Statistics ===")
	if len(stats) == 0 {
		fmt.Println("No runs recorded")
	}

	for _, s := range stats {
		fmt.Printf("\n[%s]\n", s.Source)
		fmt.Printf("Runs:               %d\n", s.Runs)
		fmt.Printf("Journals submitted: %d\n", s.Journals)

		last, err := history.LastRun(ctx, s.Source)
		exitOnError(err, "failed to get last run")
		if last == nil {
			continue
		}

		mode := ""
		if last.DryRun {
			mode = " (dry run)"
		}
		fmt.Printf("Last run:           %s%s\n", last.StartedAt.Local().Format(time.DateTime), mode)
		fmt.Printf("  fetched %d, already posted %d, submitted %d\n",
			last.Fetched, last.AlreadyPosted, last.Submitted)
	}

	fmt.Println()

	slog.Info("Statistics displayed successfully")
}

package cmd

import (
	"time"

	"github.com/shunichi-ikebuchi/payout-sync/pkg/db"
	"github.com/shunichi-ikebuchi/payout-sync/pkg/journal"
	"github.com/shunichi-ikebuchi/payout-sync/pkg/reconcile"
)

func runFromResult(result *reconcile.Result, startedAt time.Time) db.Run {
	return db.Run{
		Source:        result.Source,
		WindowStart:   result.Window.Start,
		WindowEnd:     result.Window.End,
		Fetched:       result.Fetched,
		AlreadyPosted: result.AlreadyPosted,
		Submitted:     result.Submitted,
		Batches:       result.Batches,
		DryRun:        result.DryRun,
		StartedAt:     startedAt,
	}
}

// submittedJournals lists the journals the ledger accepted. Entries are
// submitted in order, so the first Submitted of them made it.
func submittedJournals(result *reconcile.Result) []db.SubmittedJournal {
	if result.DryRun {
		return nil
	}

	journals := make([]db.SubmittedJournal, 0, result.Submitted)
	for i := range result.Submitted {
		rec, entry := result.Records[i], result.Entries[i]
		journals = append(journals, db.SubmittedJournal{
			Source:      result.Source,
			PayoutID:    rec.ID,
			Narration:   entry.Narration,
			JournalDate: entry.Date.Format(time.DateOnly),
			NetAmount:   journal.FormatAmount(rec.Net),
			Currency:    rec.Currency,
		})
	}
	return journals
}

// Package reconcile posts journals to the ledger for payouts it has not
// recorded yet.
//
// A payout counts as recorded when a posted journal inside the lookback
// window carries the payout id in its narration (see journal.Marker). There
// is no other dedup store, so runs for the same ledger must not overlap.
package reconcile

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"time"

	"github.com/shunichi-ikebuchi/payout-sync/pkg/journal"
	"github.com/shunichi-ikebuchi/payout-sync/pkg/payout"
)

// MaxBatchSize is the largest number of journals the ledger accepts per call.
const MaxBatchSize = 100

// Source fetches payouts from one processor and turns them into journals.
type Source interface {
	// Name identifies the source in logs and run history.
	Name() string
	// Marker embeds and extracts payout ids in narrations.
	Marker() *journal.Marker
	// Payouts yields the payouts eligible for the window. Each call queries
	// the processor again.
	Payouts(ctx context.Context, window payout.Window) iter.Seq2[payout.Record, error]
	// Build returns the journal entry for a payout. It must not do I/O.
	Build(rec payout.Record) (journal.Entry, error)
}

// Ledger is the accounting ledger journals are read from and written to.
type Ledger interface {
	PostedNarrations(ctx context.Context, since time.Time) ([]string, error)
	SubmitJournals(ctx context.Context, entries []journal.Entry) error
}

// Options configures a Reconciler.
type Options struct {
	Lookback  time.Duration    // Default: payout.Lookback
	BatchSize int              // Default and maximum: MaxBatchSize
	DryRun    bool             // Build journals without submitting them
	Now       func() time.Time // Default: time.Now
	Logger    *slog.Logger     // Default: slog.Default()
}

// Reconciler runs one reconciliation pass per call to Run.
type Reconciler struct {
	ledger    Ledger
	lookback  time.Duration
	batchSize int
	dryRun    bool
	now       func() time.Time
	logger    *slog.Logger
}

// New creates a new Reconciler.
func New(ledger Ledger, opts Options) *Reconciler {
	lookback := opts.Lookback
	if lookback <= 0 {
		lookback = payout.Lookback
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 || batchSize > MaxBatchSize {
		batchSize = MaxBatchSize
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		ledger:    ledger,
		lookback:  lookback,
		batchSize: batchSize,
		dryRun:    opts.DryRun,
		now:       now,
		logger:    logger,
	}
}

// Result summarizes a reconciliation pass.
type Result struct {
	Source        string
	Window        payout.Window
	Fetched       int // Payouts yielded by the source
	AlreadyPosted int // Payouts skipped because the ledger has them
	Submitted     int // Journals accepted by the ledger
	Batches       int
	DryRun        bool
	Records       []payout.Record // Payouts journals were built for
	Entries       []journal.Entry // Parallel to Records
}

// PostedIDs returns the payout ids found in posted journal narrations since
// the given time. Narrations without the marker are ignored.
func PostedIDs(ctx context.Context, ledger Ledger, marker *journal.Marker, since time.Time) (map[string]struct{}, error) {
	narrations, err := ledger.PostedNarrations(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to read posted journals: %w", err)
	}

	ids := make(map[string]struct{})
	for _, narration := range narrations {
		if id, ok := marker.Extract(narration); ok {
			ids[id] = struct{}{}
		}
	}
	return ids, nil
}

// Run performs one pass for the source. Any error aborts the pass. When a
// batch fails, the returned Result still counts the batches accepted before
// it; those journals stay in the ledger and are detected on rerun.
func (r *Reconciler) Run(ctx context.Context, src Source) (*Result, error) {
	window := payout.NewWindow(r.now(), r.lookback)
	logger := r.logger.With("source", src.Name())

	result := &Result{
		Source: src.Name(),
		Window: window,
		DryRun: r.dryRun,
	}

	// 1. Payout ids already in the ledger
	posted, err := PostedIDs(ctx, r.ledger, src.Marker(), window.Start)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded posted journals", "count", len(posted), "since", window.Start.Format(time.RFC3339))

	// 2. Journals for payouts not posted yet
	seen := make(map[string]struct{})
	for rec, err := range src.Payouts(ctx, window) {
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s payouts: %w", src.Name(), err)
		}
		result.Fetched++

		if _, ok := posted[rec.ID]; ok {
			result.AlreadyPosted++
			logger.Debug("Payout already posted", "payout_id", rec.ID)
			continue
		}
		if _, ok := seen[rec.ID]; ok {
			logger.Debug("Duplicate payout in source listing", "payout_id", rec.ID)
			continue
		}
		seen[rec.ID] = struct{}{}

		entry, err := src.Build(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to build journal for payout %s: %w", rec.ID, err)
		}
		if err := entry.Validate(); err != nil {
			return nil, fmt.Errorf("invalid journal for payout %s: %w", rec.ID, err)
		}

		result.Records = append(result.Records, rec)
		result.Entries = append(result.Entries, entry)
	}

	logger.Info("Journals to submit",
		"new", len(result.Entries),
		"fetched", result.Fetched,
		"already_posted", result.AlreadyPosted,
	)

	if r.dryRun {
		return result, nil
	}

	// 3. Submit within the ledger's per-call limit
	for batch := range slices.Chunk(result.Entries, r.batchSize) {
		if err := r.ledger.SubmitJournals(ctx, batch); err != nil {
			return result, fmt.Errorf("failed to submit batch %d (%d journals submitted before): %w",
				result.Batches+1, result.Submitted, err)
		}
		result.Batches++
		result.Submitted += len(batch)
		logger.Debug("Submitted batch", "batch", result.Batches, "size", len(batch))
	}

	return result, nil
}

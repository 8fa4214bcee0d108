package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run represents one reconciliation run.
type Run struct {
	ID            string
	Source        string
	WindowStart   time.Time
	WindowEnd     time.Time
	Fetched       int
	AlreadyPosted int
	Submitted     int
	Batches       int
	DryRun        bool
	StartedAt     time.Time
	FinishedAt    time.Time
}

// SubmittedJournal represents a journal accepted by the ledger.
type SubmittedJournal struct {
	RunID       string
	Source      string
	PayoutID    string
	Narration   string
	JournalDate string
	NetAmount   string
	Currency    string
	SubmittedAt time.Time
}

// SourceStats summarizes the history of one source.
type SourceStats struct {
	Source    string
	Runs      int
	Journals  int
	LastRunAt time.Time
}

// History manages run history records.
type History struct {
	conn *Connection
}

// NewHistory creates a new History instance.
func NewHistory(conn *Connection) *History {
	return &History{conn: conn}
}

// RecordRun stores a run together with the journals it submitted and returns
// the run id. A new UUID is assigned when run.ID is empty.
//
// A payout id already on record for the source is re-pointed at this run,
// which happens when a journal was voided in the ledger and posted again.
func (h *History) RecordRun(ctx context.Context, run Run, journals []SubmittedJournal) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}

	err := h.conn.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sync_runs (id, source, window_start, window_end, fetched, already_posted,
				submitted, batches, dry_run, started_at, finished_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID, run.Source, run.WindowStart.UTC(), run.WindowEnd.UTC(),
			run.Fetched, run.AlreadyPosted, run.Submitted, run.Batches,
			run.DryRun, run.StartedAt.UTC(), run.FinishedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO submitted_journals (run_id, source, payout_id, narration, journal_date, net_amount, currency)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(source, payout_id) DO UPDATE SET
				run_id = excluded.run_id,
				narration = excluded.narration,
				journal_date = excluded.journal_date,
				net_amount = excluded.net_amount,
				currency = excluded.currency,
				submitted_at = CURRENT_TIMESTAMP
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare journal insert: %w", err)
		}
		defer stmt.Close()

		for _, j := range journals {
			source := j.Source
			if source == "" {
				source = run.Source
			}
			if _, err := stmt.ExecContext(ctx, run.ID, source, j.PayoutID, j.Narration,
				j.JournalDate, j.NetAmount, j.Currency); err != nil {
				return fmt.Errorf("failed to record journal for payout %s: %w", j.PayoutID, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return run.ID, nil
}

// LastRun returns the most recent run for the source, or nil if there is none.
func (h *History) LastRun(ctx context.Context, source string) (*Run, error) {
	row := h.conn.QueryRowContext(ctx, `
		SELECT id, source, window_start, window_end, fetched, already_posted,
			submitted, batches, dry_run, started_at, finished_at
		FROM sync_runs
		WHERE source = ?
		ORDER BY started_at DESC
		LIMIT 1
	`, source)

	var run Run
	err := row.Scan(
		&run.ID,
		&run.Source,
		&run.WindowStart,
		&run.WindowEnd,
		&run.Fetched,
		&run.AlreadyPosted,
		&run.Submitted,
		&run.Batches,
		&run.DryRun,
		&run.StartedAt,
		&run.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last run: %w", err)
	}

	return &run, nil
}

// JournalsForRun returns the journals recorded for a run, ordered by payout id.
func (h *History) JournalsForRun(ctx context.Context, runID string) ([]SubmittedJournal, error) {
	rows, err := h.conn.QueryContext(ctx, `
		SELECT run_id, source, payout_id, narration, journal_date, net_amount, currency, submitted_at
		FROM submitted_journals
		WHERE run_id = ?
		ORDER BY payout_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get journals: %w", err)
	}
	defer rows.Close()

	var journals []SubmittedJournal
	for rows.Next() {
		var j SubmittedJournal
		if err := rows.Scan(
			&j.RunID,
			&j.Source,
			&j.PayoutID,
			&j.Narration,
			&j.JournalDate,
			&j.NetAmount,
			&j.Currency,
			&j.SubmittedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan journal: %w", err)
		}
		journals = append(journals, j)
	}

	return journals, rows.Err()
}

// GetStats returns per-source statistics ordered by source name.
func (h *History) GetStats(ctx context.Context) ([]SourceStats, error) {
	rows, err := h.conn.QueryContext(ctx, `
		SELECT r.source,
			COUNT(*),
			(SELECT COUNT(*) FROM submitted_journals j WHERE j.source = r.source)
		FROM sync_runs r
		GROUP BY r.source
		ORDER BY r.source
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	var stats []SourceStats
	for rows.Next() {
		var s SourceStats
		if err := rows.Scan(&s.Source, &s.Runs, &s.Journals); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		stats = append(stats, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	// Aggregates lose the column type, so the timestamp comes from the row itself
	for i := range stats {
		last, err := h.LastRun(ctx, stats[i].Source)
		if err != nil {
			return nil, err
		}
		if last != nil {
			stats[i].LastRunAt = last.StartedAt
		}
	}

	return stats, nil
}

// Package db provides SQLite storage for reconciliation run history.
//
// The history is an audit trail only. Whether a payout was already posted is
// always decided from the ledger itself.
package db

// Schema defines the SQL statements to create database tables.
const Schema = `
-- Reconciliation runs
-- One row per invocation of a source, dry runs included
CREATE TABLE IF NOT EXISTS sync_runs (
    id TEXT PRIMARY KEY,               -- UUID
    source TEXT NOT NULL,              -- 'stripe', 'gocardless', 'gocardless-bills'
    window_start TIMESTAMP NOT NULL,
    window_end TIMESTAMP NOT NULL,
    fetched INTEGER NOT NULL,
    already_posted INTEGER NOT NULL,
    submitted INTEGER NOT NULL,
    batches INTEGER NOT NULL,
    dry_run INTEGER NOT NULL DEFAULT 0,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sync_runs_source
    ON sync_runs(source, started_at);

-- Journals submitted to the ledger
CREATE TABLE IF NOT EXISTS submitted_journals (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES sync_runs(id),
    source TEXT NOT NULL,
    payout_id TEXT NOT NULL,           -- Processor payout / transfer / bill id
    narration TEXT NOT NULL,
    journal_date TEXT NOT NULL,        -- YYYY-MM-DD
    net_amount TEXT NOT NULL,          -- Exact decimal string
    currency TEXT NOT NULL,
    submitted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(source, payout_id)
);

CREATE INDEX IF NOT EXISTS idx_submitted_journals_run
    ON submitted_journals(run_id);
`

// InitializeSchema initializes the database schema.
// It creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.Exec(Schema); err != nil {
		return err
	}
	return nil
}

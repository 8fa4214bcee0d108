package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *Connection {
	t.Helper()

	conn, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestOpenCreatesDirectory(t *testing.T) {
	conn := openTestDB(t)

	_, err := os.Stat(filepath.Dir(conn.Path()))
	assert.NoError(t, err)

	// Schema creation is idempotent
	assert.NoError(t, InitializeSchema(conn))
}

func TestRecordRun(t *testing.T) {
	ctx := context.Background()
	history := NewHistory(openTestDB(t))

	started := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	run := Run{
		Source:        "stripe",
		WindowStart:   started.Add(-300 * 24 * time.Hour),
		WindowEnd:     started,
		Fetched:       3,
		AlreadyPosted: 1,
		Submitted:     2,
		Batches:       1,
		StartedAt:     started,
		FinishedAt:    started.Add(time.Minute),
	}
	journals := []SubmittedJournal{
		{PayoutID: "tr_B", Narration: "Stripe payout tr_B", JournalDate: "2026-10-01", NetAmount: "10.00", Currency: "GBP"},
		{PayoutID: "tr_A", Narration: "Stripe payout tr_A", JournalDate: "2026-09-01", NetAmount: "922.45", Currency: "GBP"},
	}

	runID, err := history.RecordRun(ctx, run, journals)
	require.NoError(t, err)
	assert.Len(t, runID, 36)

	last, err := history.LastRun(ctx, "stripe")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, runID, last.ID)
	assert.Equal(t, 2, last.Submitted)
	assert.Equal(t, 1, last.AlreadyPosted)
	assert.False(t, last.DryRun)
	assert.True(t, started.Equal(last.StartedAt))
	assert.True(t, run.WindowStart.Equal(last.WindowStart))

	recorded, err := history.JournalsForRun(ctx, runID)
	require.NoError(t, err)
	require.Len(t, recorded, 2)
	assert.Equal(t, "tr_A", recorded[0].PayoutID)
	assert.Equal(t, "stripe", recorded[0].Source)
	assert.Equal(t, "922.45", recorded[0].NetAmount)
	assert.Equal(t, "Stripe payout tr_B", recorded[1].Narration)
}

func TestRecordRunRepointsResubmittedPayout(t *testing.T) {
	ctx := context.Background()
	history := NewHistory(openTestDB(t))

	journal := SubmittedJournal{PayoutID: "P1", Narration: "GoCardless payout P1", JournalDate: "2026-10-01", NetAmount: "98.00", Currency: "GBP"}
	started := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	first, err := history.RecordRun(ctx, Run{Source: "gocardless", StartedAt: started}, []SubmittedJournal{journal})
	require.NoError(t, err)
	second, err := history.RecordRun(ctx, Run{Source: "gocardless", StartedAt: started.Add(time.Hour)}, []SubmittedJournal{journal})
	require.NoError(t, err)

	firstJournals, err := history.JournalsForRun(ctx, first)
	require.NoError(t, err)
	assert.Empty(t, firstJournals)

	secondJournals, err := history.JournalsForRun(ctx, second)
	require.NoError(t, err)
	assert.Len(t, secondJournals, 1)

	last, err := history.LastRun(ctx, "gocardless")
	require.NoError(t, err)
	assert.Equal(t, second, last.ID)
}

func TestLastRunNone(t *testing.T) {
	history := NewHistory(openTestDB(t))

	last, err := history.LastRun(context.Background(), "stripe")
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestGetStats(t *testing.T) {
	ctx := context.Background()
	history := NewHistory(openTestDB(t))

	base := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	_, err := history.RecordRun(ctx, Run{Source: "stripe", StartedAt: base, DryRun: true}, nil)
	require.NoError(t, err)
	_, err = history.RecordRun(ctx, Run{Source: "stripe", StartedAt: base.Add(time.Hour)}, []SubmittedJournal{
		{PayoutID: "tr_1", Narration: "Stripe payout tr_1", JournalDate: "2026-10-17", NetAmount: "1.00", Currency: "GBP"},
	})
	require.NoError(t, err)
	_, err = history.RecordRun(ctx, Run{Source: "gocardless-bills", StartedAt: base}, nil)
	require.NoError(t, err)

	stats, err := history.GetStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, "gocardless-bills", stats[0].Source)
	assert.Equal(t, 1, stats[0].Runs)
	assert.Equal(t, 0, stats[0].Journals)

	assert.Equal(t, "stripe", stats[1].Source)
	assert.Equal(t, 2, stats[1].Runs)
	assert.Equal(t, 1, stats[1].Journals)
	assert.True(t, base.Add(time.Hour).Equal(stats[1].LastRunAt))
}

package archive

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shunichi-ikebuchi/payout-sync/pkg/journal"
)

func testEntry(narration string, date time.Time) journal.Entry {
	return journal.Entry{
		Narration: narration,
		Status:    journal.StatusPosted,
		Date:      date,
		Lines: []journal.Line{
			{Amount: decimal.RequireFromString("-100"), AccountCode: "200"},
			{Amount: decimal.RequireFromString("2"), AccountCode: "404"},
			{Amount: decimal.RequireFromString("98"), AccountCode: "091"},
		},
	}
}

func TestMonthFilePath(t *testing.T) {
	a := New("/var/archive")

	path, err := a.MonthFilePath("2026-03")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/var/archive", "2026", "2026-03.journal"), path)

	for _, bad := range []string{"2026", "26-03", "2026-3", ""} {
		_, err := a.MonthFilePath(bad)
		assert.Error(t, err, bad)
	}
}

func TestAppend(t *testing.T) {
	a := New(t.TempDir())
	a.now = func() time.Time { return time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC) }

	march := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, a.Append(testEntry("GoCardless payout P1", march), "run r1"))
	require.NoError(t, a.Append(testEntry("GoCardless payout P2", march.AddDate(0, 0, 1)), ""))
	require.NoError(t, a.Append(testEntry("GoCardless payout P3", march.AddDate(0, 1, 0)), ""))

	content, err := a.ReadMonthFile("2026-03")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(content, "; Payout journals for 2026-03\n; Created at 2026-10-18T00:00:00Z\n\n"))
	assert.Equal(t, 1, strings.Count(content, "; Payout journals"))
	assert.Contains(t, content, "; run r1\n2026-03-02 POSTED \"GoCardless payout P1\"\n")
	assert.Contains(t, content, "GoCardless payout P2")
	assert.NotContains(t, content, "GoCardless payout P3")

	april, err := a.ReadMonthFile("2026-04")
	require.NoError(t, err)
	assert.Contains(t, april, "GoCardless payout P3")
}

func TestReadMonthFileMissing(t *testing.T) {
	content, err := New(t.TempDir()).ReadMonthFile("2026-01")
	require.NoError(t, err)
	assert.Empty(t, content)
}

package xero

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shunichi-ikebuchi/payout-sync/pkg/journal"
)

// fakeXero serves /ManualJournals from memory.
type fakeXero struct {
	posted      []ManualJournal
	created     [][]ManualJournal
	lastWhere   string
	lastSince   string
	lastTenant  string
	idemKeys    []string
	listPages   int
	failWith    int
	failPayload string
}

func (f *fakeXero) router() http.Handler {
	r := chi.NewRouter()

	r.Get("/ManualJournals", func(w http.ResponseWriter, r *http.Request) {
		if f.failWith != 0 {
			w.WriteHeader(f.failWith)
			_, _ = w.Write([]byte(f.failPayload))
			return
		}
		f.listPages++
		f.lastWhere = r.URL.Query().Get("where")
		f.lastSince = r.Header.Get("If-Modified-Since")
		f.lastTenant = r.Header.Get("Xero-tenant-id")

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		start := (page - 1) * pageSize
		end := min(start+pageSize, len(f.posted))
		if start > len(f.posted) {
			start = end
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ManualJournals": f.posted[start:end]})
	})

	r.Put("/ManualJournals", func(w http.ResponseWriter, r *http.Request) {
		var req ManualJournalsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.created = append(f.created, req.ManualJournals)
		f.idemKeys = append(f.idemKeys, r.Header.Get("Idempotency-Key"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ManualJournals": req.ManualJournals})
	})

	return r
}

func newTestClient(t *testing.T, f *fakeXero) *Client {
	t.Helper()

	server := httptest.NewServer(f.router())
	t.Cleanup(server.Close)

	return NewClient(ClientConfig{APIURL: server.URL, TenantID: "tenant-1"})
}

func TestPostedNarrationsPaginates(t *testing.T) {
	f := &fakeXero{}
	for i := 0; i < 250; i++ {
		f.posted = append(f.posted, ManualJournal{Narration: fmt.Sprintf("Stripe payout tr_%d", i)})
	}
	client := newTestClient(t, f)

	since := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	narrations, err := client.PostedNarrations(context.Background(), since)
	require.NoError(t, err)

	assert.Len(t, narrations, 250)
	assert.Equal(t, "Stripe payout tr_249", narrations[249])
	assert.Equal(t, 3, f.listPages)
	assert.Equal(t, `Status=="POSTED"`, f.lastWhere)
	assert.Equal(t, "2026-01-02T03:04:05", f.lastSince)
	assert.Equal(t, "tenant-1", f.lastTenant)
}

func TestPostedNarrationsExactPageBoundary(t *testing.T) {
	f := &fakeXero{}
	for i := 0; i < pageSize; i++ {
		f.posted = append(f.posted, ManualJournal{Narration: fmt.Sprintf("GoCardless payout P%d", i)})
	}
	client := newTestClient(t, f)

	narrations, err := client.PostedNarrations(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Len(t, narrations, pageSize)
	// A full page is followed by one empty page.
	assert.Equal(t, 2, f.listPages)
}

func TestJournalListSingleObjectOrList(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected []string
	}{
		{"list", `{"ManualJournals":[{"Narration":"a"},{"Narration":"b"}]}`, []string{"a", "b"}},
		{"single object", `{"ManualJournals":{"Narration":"only"}}`, []string{"only"}},
		{"null", `{"ManualJournals":null}`, nil},
		{"missing", `{}`, nil},
		{"empty list", `{"ManualJournals":[]}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp ManualJournalsResponse
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &resp))

			var got []string
			for _, j := range resp.ManualJournals {
				got = append(got, j.Narration)
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSubmitJournals(t *testing.T) {
	f := &fakeXero{}
	client := newTestClient(t, f)

	entry := journal.Entry{
		Narration:       "Stripe payout tr_ABC123",
		Status:          journal.StatusPosted,
		Date:            time.Date(2026, 5, 1, 14, 30, 0, 0, time.UTC),
		LineAmountTypes: journal.LineAmountTypesInclusive,
		Lines: []journal.Line{
			{Amount: decimal.RequireFromString("-1000"), AccountCode: "200", Description: "Sales through Stripe"},
			{Amount: decimal.RequireFromString("29"), AccountCode: "404", TaxType: "ECZROUTPUTSERVICES"},
			{Amount: decimal.RequireFromString("971"), AccountCode: "090"},
		},
	}

	require.NoError(t, client.SubmitJournals(context.Background(), []journal.Entry{entry}))
	require.Len(t, f.created, 1)
	require.Len(t, f.created[0], 1)

	got := f.created[0][0]
	assert.Equal(t, "Stripe payout tr_ABC123", got.Narration)
	assert.Equal(t, "POSTED", got.Status)
	assert.Equal(t, "2026-05-01", got.Date)
	assert.Equal(t, "Inclusive", got.LineAmountTypes)
	require.Len(t, got.JournalLines, 3)
	assert.Equal(t, json.Number("-1000.00"), got.JournalLines[0].LineAmount)
	assert.Equal(t, json.Number("29.00"), got.JournalLines[1].LineAmount)
	assert.Equal(t, "ECZROUTPUTSERVICES", got.JournalLines[1].TaxType)
	assert.Equal(t, json.Number("971.00"), got.JournalLines[2].LineAmount)
	assert.NotEmpty(t, f.idemKeys[0])
}

func TestCreateManualJournalsRejectsLargeBatch(t *testing.T) {
	f := &fakeXero{}
	client := newTestClient(t, f)

	journals := make([]ManualJournal, MaxBatchSize+1)
	_, err := client.CreateManualJournals(context.Background(), journals)
	assert.True(t, errors.Is(err, ErrBatchTooLarge))
	assert.Empty(t, f.created)
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		payload  string
		contains string
	}{
		{
			name:     "validation error",
			status:   http.StatusBadRequest,
			payload:  `{"ErrorNumber":10,"Type":"ValidationException","Message":"A validation exception occurred","Elements":[{"ValidationErrors":[{"Message":"Journal lines must balance"}]}]}`,
			contains: "A validation exception occurred - Journal lines must balance",
		},
		{
			name:     "plain message",
			status:   http.StatusUnauthorized,
			payload:  `{"Type":"Unauthorized","Message":"AuthenticationUnsuccessful"}`,
			contains: "status 401): AuthenticationUnsuccessful",
		},
		{
			name:     "non-json body",
			status:   http.StatusServiceUnavailable,
			payload:  "upstream down",
			contains: "status 503): upstream down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeXero{failWith: tt.status, failPayload: tt.payload}
			client := newTestClient(t, f)

			_, err := client.PostedNarrations(context.Background(), time.Now())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

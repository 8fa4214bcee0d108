package xero

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shunichi-ikebuchi/payout-sync/pkg/journal"
)

const (
	// DefaultAPIURL is the Xero Accounting API base URL.
	DefaultAPIURL = "https://api.xero.com/api.xro/2.0"

	// MaxBatchSize is the maximum number of manual journals accepted per PUT.
	MaxBatchSize = 100

	// pageSize is the number of manual journals Xero returns per page.
	pageSize = 100
)

// ErrBatchTooLarge is returned when more than MaxBatchSize journals are submitted at once.
var ErrBatchTooLarge = errors.New("too many manual journals in one request")

// ClientConfig represents the configuration for the Xero API client.
type ClientConfig struct {
	APIURL   string
	TenantID string
	// HTTPClient carries authentication (see NewHTTPClient).
	// Default: unauthenticated client with Timeout.
	HTTPClient *http.Client
	Timeout    time.Duration // Default: 30 seconds
}

// Client is a Xero Accounting API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tenantID   string
}

// NewClient creates a new Xero API client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	baseURL := config.APIURL
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		tenantID:   config.TenantID,
	}
}

// ListOptions filters a manual journal listing.
type ListOptions struct {
	ModifiedSince time.Time
	Status        journal.Status
	Page          int // 1-based
}

// ListManualJournals lists one page of manual journals.
func (c *Client) ListManualJournals(ctx context.Context, opts ListOptions) ([]ManualJournal, error) {
	queryParams := url.Values{}
	if opts.Status != "" {
		queryParams.Set("where", fmt.Sprintf("Status==%q", string(opts.Status)))
	}
	page := opts.Page
	if page < 1 {
		page = 1
	}
	queryParams.Set("page", strconv.Itoa(page))

	endpoint := fmt.Sprintf("%s/ManualJournals?%s", c.baseURL, queryParams.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	if !opts.ModifiedSince.IsZero() {
		req.Header.Set("If-Modified-Since", opts.ModifiedSince.UTC().Format("2006-01-02T15:04:05"))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	// Xero answers 304 when nothing changed since If-Modified-Since.
	if resp.StatusCode == http.StatusNotModified {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var journalsResp ManualJournalsResponse
	if err := json.NewDecoder(resp.Body).Decode(&journalsResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return journalsResp.ManualJournals, nil
}

// FetchAllManualJournals fetches all manual journals with the given status
// modified since a point in time, following pagination.
func (c *Client) FetchAllManualJournals(ctx context.Context, since time.Time, status journal.Status) ([]ManualJournal, error) {
	var allJournals []ManualJournal

	for page := 1; ; page++ {
		journals, err := c.ListManualJournals(ctx, ListOptions{
			ModifiedSince: since,
			Status:        status,
			Page:          page,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list manual journals (page=%d): %w", page, err)
		}

		allJournals = append(allJournals, journals...)

		if len(journals) < pageSize {
			break
		}
	}

	return allJournals, nil
}

// CreateManualJournals creates up to MaxBatchSize manual journals in one request.
func (c *Client) CreateManualJournals(ctx context.Context, journals []ManualJournal) ([]ManualJournal, error) {
	if len(journals) > MaxBatchSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(journals), MaxBatchSize)
	}
	if len(journals) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(ManualJournalsRequest{ManualJournals: journals})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/ManualJournals", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.parseError(resp)
	}

	var journalsResp ManualJournalsResponse
	if err := json.NewDecoder(resp.Body).Decode(&journalsResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return journalsResp.ManualJournals, nil
}

// PostedNarrations returns the narrations of all posted manual journals
// modified since the given time.
func (c *Client) PostedNarrations(ctx context.Context, since time.Time) ([]string, error) {
	journals, err := c.FetchAllManualJournals(ctx, since, journal.StatusPosted)
	if err != nil {
		return nil, err
	}

	narrations := make([]string, 0, len(journals))
	for _, j := range journals {
		narrations = append(narrations, j.Narration)
	}
	return narrations, nil
}

// SubmitJournals creates manual journals for the given entries.
func (c *Client) SubmitJournals(ctx context.Context, entries []journal.Entry) error {
	journals := make([]ManualJournal, 0, len(entries))
	for _, e := range entries {
		journals = append(journals, FromEntry(e))
	}

	_, err := c.CreateManualJournals(ctx, journals)
	return err
}

// FromEntry converts a journal entry to its Xero representation.
func FromEntry(e journal.Entry) ManualJournal {
	lines := make([]JournalLine, 0, len(e.Lines))
	for _, l := range e.Lines {
		lines = append(lines, JournalLine{
			LineAmount:  json.Number(journal.FormatAmount(l.Amount)),
			AccountCode: l.AccountCode,
			TaxType:     l.TaxType,
			Description: l.Description,
		})
	}

	return ManualJournal{
		Narration:       e.Narration,
		Status:          string(e.Status),
		Date:            e.Date.Format("2006-01-02"),
		LineAmountTypes: e.LineAmountTypes,
		JournalLines:    lines,
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.tenantID != "" {
		req.Header.Set("Xero-tenant-id", c.tenantID)
	}
}

// parseError parses an error response from the Xero API.
func (c *Client) parseError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("xero API error (status %d): failed to read error response", resp.StatusCode)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Message == "" {
		return fmt.Errorf("xero API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if msgs := errResp.validationMessages(); len(msgs) > 0 {
		return fmt.Errorf("xero API error (status %d): %s - %s", resp.StatusCode, errResp.Message, strings.Join(msgs, "; "))
	}

	return fmt.Errorf("xero API error (status %d): %s", resp.StatusCode, errResp.Message)
}

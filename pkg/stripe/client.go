package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultAPIURL is the Stripe API base URL.
	DefaultAPIURL = "https://api.stripe.com"

	// pageLimit is the largest page Stripe list endpoints return.
	pageLimit = 100
)

// ClientConfig represents the configuration for the Stripe API client.
type ClientConfig struct {
	APIURL    string
	SecretKey string
	Timeout   time.Duration // Default: 30 seconds
}

// Client is a Stripe API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
}

// NewClient creates a new Stripe API client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	baseURL := config.APIURL
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: config.SecretKey,
	}
}

// TransferListParams filters a transfer listing by creation time.
type TransferListParams struct {
	CreatedAfter  time.Time // Exclusive
	CreatedBefore time.Time // Exclusive
	StartingAfter string    // Cursor: id of the last transfer of the previous page
	Limit         int       // Default and maximum: 100
}

// ListTransfers lists one page of transfers.
func (c *Client) ListTransfers(ctx context.Context, params TransferListParams) (*TransferList, error) {
	limit := params.Limit
	if limit <= 0 || limit > pageLimit {
		limit = pageLimit
	}

	queryParams := url.Values{}
	queryParams.Set("limit", strconv.Itoa(limit))
	if !params.CreatedAfter.IsZero() {
		queryParams.Set("created[gt]", strconv.FormatInt(params.CreatedAfter.Unix(), 10))
	}
	if !params.CreatedBefore.IsZero() {
		queryParams.Set("created[lt]", strconv.FormatInt(params.CreatedBefore.Unix(), 10))
	}
	if params.StartingAfter != "" {
		queryParams.Set("starting_after", params.StartingAfter)
	}

	endpoint := fmt.Sprintf("%s/v1/transfers?%s", c.baseURL, queryParams.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(c.secretKey, "")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var list TransferList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &list, nil
}

// Transfers iterates over all transfers created strictly between after and
// before, following the starting_after cursor.
func (c *Client) Transfers(ctx context.Context, after, before time.Time) iter.Seq2[Transfer, error] {
	return func(yield func(Transfer, error) bool) {
		params := TransferListParams{
			CreatedAfter:  after,
			CreatedBefore: before,
			Limit:         pageLimit,
		}

		for {
			list, err := c.ListTransfers(ctx, params)
			if err != nil {
				yield(Transfer{}, fmt.Errorf("failed to list transfers (starting_after=%q): %w", params.StartingAfter, err))
				return
			}

			for _, transfer := range list.Data {
				if !yield(transfer, nil) {
					return
				}
			}

			if !list.HasMore || len(list.Data) == 0 {
				return
			}
			params.StartingAfter = list.Data[len(list.Data)-1].ID
		}
	}
}

// parseError parses an error response from the Stripe API.
func (c *Client) parseError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("stripe API error (status %d): failed to read error response", resp.StatusCode)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return fmt.Errorf("stripe API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return fmt.Errorf("stripe API error: %s - %s", errResp.Error.Type, errResp.Error.Message)
}

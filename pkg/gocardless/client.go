package gocardless

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
	// ProductionURL is the live legacy API host.
	ProductionURL = "https://gocardless.com"
	// SandboxURL is the sandbox legacy API host.
	SandboxURL = "https://sandbox.gocardless.com"

	// perPage is the page size requested from list endpoints.
	perPage = 100
)

// ClientConfig represents the configuration for the GoCardless API client.
type ClientConfig struct {
	// APIURL overrides the host selected by Environment.
	APIURL      string
	Environment string // "production" (default) or "sandbox"
	AccessToken string
	MerchantID  string
	Timeout     time.Duration // Default: 30 seconds
}

// Client is a GoCardless legacy API client bound to one merchant.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	merchantID  string
}

// NewClient creates a new GoCardless API client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	baseURL := config.APIURL
	if baseURL == "" {
		baseURL = ProductionURL
		if config.Environment == "sandbox" {
			baseURL = SandboxURL
		}
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: config.AccessToken,
		merchantID:  config.MerchantID,
	}
}

// ListPayouts lists one page of the merchant's payouts.
func (c *Client) ListPayouts(ctx context.Context, page int) ([]Payout, error) {
	var payouts []Payout
	path := fmt.Sprintf("/api/v1/merchants/%s/payouts", url.PathEscape(c.merchantID))
	if err := c.get(ctx, path, pageParams(page), &payouts); err != nil {
		return nil, err
	}
	return payouts, nil
}

// ListBills lists one page of the merchant's bills.
func (c *Client) ListBills(ctx context.Context, page int) ([]Bill, error) {
	var bills []Bill
	path := fmt.Sprintf("/api/v1/merchants/%s/bills", url.PathEscape(c.merchantID))
	if err := c.get(ctx, path, pageParams(page), &bills); err != nil {
		return nil, err
	}
	return bills, nil
}

// GetUser fetches a customer by id.
func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	var user User
	if err := c.get(ctx, "/api/v1/users/"+url.PathEscape(id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Payouts iterates over all of the merchant's payouts.
func (c *Client) Payouts(ctx context.Context) iter.Seq2[Payout, error] {
	return paginate(ctx, "payouts", c.ListPayouts)
}

// Bills iterates over all of the merchant's bills.
func (c *Client) Bills(ctx context.Context) iter.Seq2[Bill, error] {
	return paginate(ctx, "bills", c.ListBills)
}

// paginate walks page-numbered listings until a short page.
func paginate[T any](ctx context.Context, kind string, list func(context.Context, int) ([]T, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for page := 1; ; page++ {
			items, err := list(ctx, page)
			if err != nil {
				var zero T
				yield(zero, fmt.Errorf("failed to list %s (page=%d): %w", kind, page, err))
				return
			}

			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}

			if len(items) < perPage {
				return
			}
		}
	}
}

func pageParams(page int) url.Values {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))
	return params
}

// get performs an authenticated GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("bearer %s", c.accessToken))
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// parseError parses an error response from the GoCardless API.
func (c *Client) parseError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("gocardless API error (status %d): failed to read error response", resp.StatusCode)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || len(errResp.Error) == 0 {
		return fmt.Errorf("gocardless API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return fmt.Errorf("gocardless API error (status %d): %s", resp.StatusCode, strings.Join(errResp.Error, "; "))
}

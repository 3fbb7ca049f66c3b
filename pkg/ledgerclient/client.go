/**
 * @description
 * This package provides a typed client for the external ledger service, the
 * source of truth for account balances. It exposes balance lookup, account
 * existence checks, and signed debit/credit deltas.
 *
 * Read calls (balance, existence) are idempotent and retry a bounded number
 * of times on transport errors and 5xx responses. The signed delta call never
 * retries: it carries no idempotency key, so a retry after an ambiguous
 * failure risks double-application. Transport failures on the delta call are
 * translated into a Success=false outcome instead of an error so the saga's
 * control flow stays a flat sequence of checks.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, net/http, time: Standard Go libraries.
 * - internal/domain: Ledger domain models.
 */
package ledgerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PovetkinRoman/bankApp-sub000/internal/domain"
)

const defaultRetryAttempts = 3

// Client is a client for the ledger service.
type Client struct {
	baseURL       string
	apiKey        string
	httpClient    *http.Client
	retryAttempts int
	retryBackoff  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithRetryAttempts bounds the number of attempts for idempotent read calls.
func WithRetryAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.retryAttempts = n
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryBackoff sets the base delay between read retries.
func WithRetryBackoff(d time.Duration) Option {
	return func(c *Client) { c.retryBackoff = d }
}

// NewClient creates a new ledger service client.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:        strings.TrimSpace(apiKey),
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		retryAttempts: defaultRetryAttempts,
		retryBackoff:  200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type balanceResponse struct {
	Party    string `json:"party"`
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
	Exists   bool   `json:"exists"`
}

type existsResponse struct {
	Exists bool `json:"exists"`
}

type deltaRequest struct {
	Amount    int64  `json:"amount"`
	Operation string `json:"operation"`
}

type deltaResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// GetBalance fetches the party's balance in the given currency. A party with
// no account in the currency comes back with Exists=false (and the ledger's
// negative sentinel amount, which callers must not treat as spendable).
func (c *Client) GetBalance(ctx context.Context, party string, currency domain.Currency) (domain.AccountBalance, error) {
	endpoint := fmt.Sprintf("%s/api/v1/accounts/%s/balances/%s", c.baseURL, url.PathEscape(party), currency)

	body, err := c.getWithRetry(ctx, "get_balance", endpoint)
	if err != nil {
		return domain.AccountBalance{}, err
	}

	var resp balanceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.AccountBalance{}, fmt.Errorf("failed to decode balance response: %w", err)
	}

	return domain.AccountBalance{
		Party:    party,
		Currency: currency,
		Amount:   resp.Amount,
		Exists:   resp.Exists,
	}, nil
}

// HasAccount reports whether the party holds an account in the currency.
func (c *Client) HasAccount(ctx context.Context, party string, currency domain.Currency) (bool, error) {
	endpoint := fmt.Sprintf("%s/api/v1/accounts/%s/exists?currency=%s", c.baseURL, url.PathEscape(party), currency)

	body, err := c.getWithRetry(ctx, "has_account", endpoint)
	if err != nil {
		return false, err
	}

	var resp existsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return false, fmt.Errorf("failed to decode existence response: %w", err)
	}
	return resp.Exists, nil
}

// ApplyDelta applies a signed amount to the party's account in the currency.
// Negative amounts debit, positive amounts credit. Any transport or business
// failure is reported as Success=false; the call is never retried because it
// carries no idempotency key.
func (c *Client) ApplyDelta(ctx context.Context, party string, currency domain.Currency, signedAmount int64, opTag string) domain.LedgerOperationOutcome {
	endpoint := fmt.Sprintf("%s/api/v1/accounts/%s/balances/%s/delta", c.baseURL, url.PathEscape(party), currency)

	payload, err := json.Marshal(deltaRequest{Amount: signedAmount, Operation: opTag})
	if err != nil {
		return domain.LedgerOperationOutcome{Success: false, Message: fmt.Sprintf("failed to marshal delta request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return domain.LedgerOperationOutcome{Success: false, Message: fmt.Sprintf("failed to create delta request: %v", err)}
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("level=warn component=ledger_client op=apply_delta party=%s currency=%s tag=%s msg=\"transport failure\" err=%v", party, currency, opTag, err)
		return domain.LedgerOperationOutcome{Success: false, Message: "ledger service unreachable"}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.LedgerOperationOutcome{Success: false, Message: "failed to read ledger response"}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("level=warn component=ledger_client op=apply_delta party=%s currency=%s tag=%s status=%d", party, currency, opTag, resp.StatusCode)
		return domain.LedgerOperationOutcome{Success: false, Message: fmt.Sprintf("ledger rejected operation (status %d)", resp.StatusCode)}
	}

	var outcome deltaResponse
	if err := json.Unmarshal(bodyBytes, &outcome); err != nil {
		return domain.LedgerOperationOutcome{Success: false, Message: "failed to decode ledger response"}
	}
	return domain.LedgerOperationOutcome{Success: outcome.Success, Message: outcome.Message}
}

// getWithRetry executes an idempotent GET, retrying on transport errors and
// 5xx responses up to the configured attempt budget.
func (c *Client) getWithRetry(ctx context.Context, op, endpoint string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt-1) * c.retryBackoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s request: %w", op, err)
		}
		c.setHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("failed to execute %s request: %w", op, err)
			log.Printf("level=warn component=ledger_client op=%s attempt=%d msg=\"transport failure\" err=%v", op, attempt, err)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("failed to read %s response: %w", op, readErr)
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("ledger service error on %s (status %d)", op, resp.StatusCode)
			log.Printf("level=warn component=ledger_client op=%s attempt=%d status=%d", op, attempt, resp.StatusCode)
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("ledger service rejected %s (status %d)", op, resp.StatusCode)
		}
		return body, nil
	}
	return nil, lastErr
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Internal-API-Key", c.apiKey)
	}
}

package solscan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/vietddude/tokenlens/internal/core/domain"
	"github.com/vietddude/tokenlens/internal/metrics"
)

// Config holds upstream client settings.
type Config struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MaxAttempts int
}

// Client issues paged GET requests against the Solscan token-data API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retry      RetryConfig

	mu           sync.RWMutex
	health       HealthStatus
	totalLatency time.Duration
	successCount int
	failureCount int
	requestCount int
}

// HealthStatus describes the client's view of the upstream API.
type HealthStatus struct {
	Available     bool
	Latency       time.Duration
	ErrorRate     float64
	LastSuccessAt time.Time
	LastFailureAt time.Time
}

// NewClient creates a new Solscan API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, domain.Configf("solscan api key is not set")
	}

	retry := DefaultRetryConfig
	if cfg.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.MaxAttempts
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retry: retry,
		health: HealthStatus{
			Available:     true,
			LastSuccessAt: time.Now(),
		},
	}, nil
}

type holderRow struct {
	Owner    string  `json:"owner"`
	UIAmount float64 `json:"uiAmount"`
	Decimals int     `json:"decimals"`
	Rank     int     `json:"rank"`
}

type holderPayload struct {
	Data  []holderRow `json:"data"`
	Total int         `json:"total"`
}

// TokenHolders fetches one page of holders for a token, ordered by rank.
func (c *Client) TokenHolders(
	ctx context.Context,
	token string,
	offset, limit int,
) (domain.HolderPage, error) {
	var payload holderPayload
	err := c.getPage(ctx, "token/holders", url.Values{
		"tokenAddress": {token},
		"offset":       {strconv.Itoa(offset)},
		"limit":        {strconv.Itoa(limit)},
	}, &payload)
	if err != nil {
		return domain.HolderPage{}, err
	}

	page := domain.HolderPage{
		Holders: make([]domain.TokenHolder, 0, len(payload.Data)),
		Total:   payload.Total,
	}
	for _, row := range payload.Data {
		page.Holders = append(page.Holders, domain.TokenHolder{
			Owner:    row.Owner,
			UIAmount: row.UIAmount,
			Decimals: row.Decimals,
			Rank:     row.Rank,
		})
	}
	return page, nil
}

type transferRow struct {
	Owner        string `json:"owner"`
	BlockTime    int64  `json:"blockTime"`
	ChangeAmount int64  `json:"changeAmount"`
	Decimals     int    `json:"decimals"`
}

type transferPayload struct {
	Data  []transferRow `json:"data"`
	Total int           `json:"total"`
}

// TokenTransfers fetches one page of transfer records for a token.
func (c *Client) TokenTransfers(
	ctx context.Context,
	token string,
	offset, limit int,
) (domain.TransferPage, error) {
	var payload transferPayload
	err := c.getPage(ctx, "token/transfer", url.Values{
		"tokenAddress": {token},
		"offset":       {strconv.Itoa(offset)},
		"limit":        {strconv.Itoa(limit)},
	}, &payload)
	if err != nil {
		return domain.TransferPage{}, err
	}

	page := domain.TransferPage{
		Transfers: make([]domain.RawTransfer, 0, len(payload.Data)),
		Total:     payload.Total,
	}
	for _, row := range payload.Data {
		page.Transfers = append(page.Transfers, domain.RawTransfer{
			Owner:        row.Owner,
			BlockTime:    row.BlockTime,
			ChangeAmount: row.ChangeAmount,
			Decimals:     row.Decimals,
		})
	}
	return page, nil
}

// getPage performs one GET with retry and decodes the JSON payload.
func (c *Client) getPage(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, path, query.Encode())

	err := CallWithRetry(ctx, c.retry, func(ctx context.Context) error {
		return c.doGet(ctx, path, endpoint, out)
	})
	if err != nil {
		return domain.Upstreamf(err, "failed to fetch %s", path)
	}
	return nil
}

func (c *Client) doGet(ctx context.Context, operation, endpoint string, out any) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.recordFailure(operation)
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure(operation)
		return fmt.Errorf("upstream call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordFailure(operation)
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.recordFailure(operation)
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.recordFailure(operation)
		return fmt.Errorf("parse response: %w", err)
	}

	latency := time.Since(start)
	c.recordSuccess(operation, latency)
	return nil
}

// GetHealth returns the client's health status.
func (c *Client) GetHealth() HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.health
}

// Close cleans up idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) recordSuccess(operation string, latency time.Duration) {
	metrics.UpstreamCallsTotal.WithLabelValues(operation, "ok").Inc()
	metrics.UpstreamLatency.WithLabelValues(operation).Observe(latency.Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()

	c.successCount++
	c.requestCount++
	c.totalLatency += latency
	c.health.LastSuccessAt = time.Now()
	c.health.Available = true

	if c.requestCount > 0 {
		c.health.ErrorRate = float64(c.failureCount) / float64(c.requestCount)
	}
	if c.successCount > 0 {
		c.health.Latency = c.totalLatency / time.Duration(c.successCount)
	}
}

func (c *Client) recordFailure(operation string) {
	metrics.UpstreamCallsTotal.WithLabelValues(operation, "error").Inc()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.failureCount++
	c.requestCount++
	c.health.LastFailureAt = time.Now()

	if c.requestCount > 0 {
		c.health.ErrorRate = float64(c.failureCount) / float64(c.requestCount)
	}

	if c.health.ErrorRate > 0.5 {
		c.health.Available = false
	}
}

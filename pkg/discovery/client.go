// Package discovery provides a client for the startup discovery API, the
// backend that ingests SEC Form D filings and enriches the resulting
// companies.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is where the discovery API listens in a local setup.
const DefaultBaseURL = "http://127.0.0.1:8000"

// Client defines the discovery API operations. Calls are never retried.
type Client interface {
	// ListCompanies returns the companies matching the filter.
	ListCompanies(ctx context.Context, filter Filter) ([]Company, error)
	// TriggerIngest starts a scan for new filings. Not idempotent: every
	// call may run another backend scan.
	TriggerIngest(ctx context.Context, limit int) (*IngestResponse, error)
	// TriggerEnrichOne queues AI enrichment for one company.
	TriggerEnrichOne(ctx context.Context, companyID int) (*EnrichResponse, error)
	// TriggerEnrichAll queues AI enrichment for every pending company.
	TriggerEnrichAll(ctx context.Context) (*EnrichAllResponse, error)
	// EnrichmentStatus returns the point-in-time enrichment status.
	EnrichmentStatus(ctx context.Context, companyID int) (*StatusResponse, error)
}

// Option configures the discovery client.
type Option func(*httpClient)

// WithBaseURL sets the API base address.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit paces outgoing requests. A zero limit disables pacing.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *httpClient) {
		if limit <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) {
		c.userAgent = ua
	}
}

type httpClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a discovery API client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:   DefaultBaseURL,
		userAgent: "discovery-cli/1.0",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do sends a request and decodes a 2xx JSON body into out. Every failure
// is returned as a *NetworkError.
func (c *httpClient) do(ctx context.Context, op, method, path string, query url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &NetworkError{Op: op, Err: eris.Wrap(err, "rate limit wait")}
		}
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return &NetworkError{Op: op, Err: eris.Wrap(err, "create request")}
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		zap.L().Debug("discovery: request failed",
			zap.String("op", op),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: eris.Wrap(err, "read response body")}
	}

	zap.L().Debug("discovery: request complete",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("url", reqURL),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &NetworkError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        eris.Errorf("unexpected status: %s", truncate(string(body), 200)),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: eris.Wrap(err, "unmarshal response")}
	}
	return nil
}

func (c *httpClient) ListCompanies(ctx context.Context, filter Filter) ([]Company, error) {
	var companies []Company
	if err := c.do(ctx, "list companies", http.MethodGet, "/companies", filter.Query(), &companies); err != nil {
		return nil, err
	}
	if companies == nil {
		// A JSON null is not the array shape the contract promises.
		return nil, &NetworkError{Op: "list companies", StatusCode: http.StatusOK, Err: eris.New("response is not an array")}
	}
	return companies, nil
}

func (c *httpClient) TriggerIngest(ctx context.Context, limit int) (*IngestResponse, error) {
	if limit <= 0 {
		return nil, eris.Errorf("discovery: ingest limit must be positive, got %d", limit)
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))

	var out IngestResponse
	if err := c.do(ctx, "ingest", http.MethodPost, "/ingest", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) TriggerEnrichOne(ctx context.Context, companyID int) (*EnrichResponse, error) {
	var out EnrichResponse
	path := fmt.Sprintf("/companies/%d/enrich", companyID)
	if err := c.do(ctx, "enrich company", http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) TriggerEnrichAll(ctx context.Context) (*EnrichAllResponse, error) {
	var out EnrichAllResponse
	if err := c.do(ctx, "enrich all", http.MethodPost, "/enrich-all", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) EnrichmentStatus(ctx context.Context, companyID int) (*StatusResponse, error) {
	var out StatusResponse
	path := fmt.Sprintf("/companies/%d/enrichment-status", companyID)
	if err := c.do(ctx, "enrichment status", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package backend

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// MetricsRecorder observes every backend round trip. status is 0 when no
// response was received.
type MetricsRecorder interface {
	RecordBackendRequest(endpoint string, status int, duration time.Duration)
}

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64 // requests per second, 0 disables limiting
	HTTPClient *http.Client
	Metrics    MetricsRecorder
}

// Client talks to the scheduling backend on behalf of one viewer session.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	metrics MetricsRecorder
	cookies []*http.Cookie
}

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	burst := 1
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
		burst = max(1, int(opts.RateLimit))
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    httpClient,
		limiter: rate.NewLimiter(limit, burst),
		metrics: opts.Metrics,
	}
}

// WithCookies returns a client that sends the given session cookies as
// credentials. The transport and rate limiter are shared with c.
func (c *Client) WithCookies(cookies []*http.Cookie) *Client {
	cp := *c
	cp.cookies = cookies
	return &cp
}

type response struct {
	status int
	body   []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, contentType string) (*response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.record(endpoint, 0, start)
		slog.Warn("backend request failed",
			slog.String("endpoint", endpoint),
			slog.String("request_id", req.Header.Get("X-Request-ID")),
			slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	c.record(endpoint, resp.StatusCode, start)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	slog.Debug("backend request",
		slog.String("method", method),
		slog.String("endpoint", endpoint),
		slog.Int("status", resp.StatusCode),
		slog.Duration("took", time.Since(start)))

	return &response{status: resp.StatusCode, body: data}, nil
}

func (c *Client) record(endpoint string, status int, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordBackendRequest(endpoint, status, time.Since(start))
	}
}

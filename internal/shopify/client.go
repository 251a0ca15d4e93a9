package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/shopops/pickticket/internal/common"
)

// Client talks to the Admin GraphQL endpoint of a single shop.
// All calls share one rate limiter so page fetches and tag commits
// count against the same request budget.
type Client struct {
	httpClient  *http.Client
	endpoint    string
	token       string
	limiter     *rate.Limiter
	maxAttempts int
	backoffBase time.Duration
	backoffCap  time.Duration
	logger      *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithBackoff(attempts int, base, cap time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.maxAttempts = attempts
		}
		if base > 0 {
			c.backoffBase = base
		}
		if cap > 0 {
			c.backoffCap = cap
		}
	}
}

func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithEndpoint overrides the derived shop endpoint with a full URL.
func WithEndpoint(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.endpoint = url
		}
	}
}

func NewClient(cfg common.ShopifyConfig, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		endpoint:    endpointFor(cfg.ShopURL, cfg.APIVersion),
		token:       cfg.AccessToken,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		maxAttempts: cfg.MaxAttempts,
		backoffBase: cfg.BackoffBase,
		backoffCap:  cfg.BackoffCap,
		logger:      logger,
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = 5
	}
	if c.backoffBase <= 0 {
		c.backoffBase = time.Second
	}
	if c.backoffCap <= 0 {
		c.backoffCap = 30 * time.Second
	}
	if c.limiter == nil || c.limiter.Limit() <= 0 {
		c.limiter = rate.NewLimiter(2, 4)
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func endpointFor(shopURL, apiVersion string) string {
	host := strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(shopURL, "https://"), "http://"), "/")
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", host, apiVersion)
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

func (e graphQLError) throttled() bool {
	return e.Extensions.Code == "THROTTLED"
}

// execute posts one GraphQL document and returns the data payload.
// THROTTLED responses are retried with exponential backoff up to
// maxAttempts; every other failure surfaces immediately.
func (c *Client) execute(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	ctx = common.WithRequestID(ctx, uuid.New().String())
	logger := c.requestLogger(ctx)
	start := time.Now()

	for attempt := 1; ; attempt++ {
		data, retryable, err := c.post(ctx, query, variables)
		if err == nil {
			logger.Info("shopify.request.ok",
				"attempt", attempt,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return data, nil
		}
		if !retryable || attempt >= c.maxAttempts {
			if retryable {
				logger.Error("shopify.request.exhausted",
					"attempts", attempt,
					"error", err,
					"elapsed_ms", time.Since(start).Milliseconds(),
				)
				return nil, fmt.Errorf("%w: throttled after %d attempts: %v", common.ErrRemoteUnavailable, attempt, err)
			}
			return nil, err
		}

		delay := c.nextBackoff(attempt - 1)
		logger.Warn("shopify.request.throttled",
			"attempt", attempt,
			"retry_in", delay.String(),
		)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", common.ErrRemoteUnavailable, ctx.Err())
		case <-time.After(delay):
		}
	}
}

// requestLogger annotates the client logger with the per-call request ID
// and, when running inside a batch, the batch ID.
func (c *Client) requestLogger(ctx context.Context) *slog.Logger {
	logger := c.logger.With("req_id", common.RequestIDFromContext(ctx))
	if batchID := common.BatchIDFromContext(ctx); batchID != "" {
		logger = logger.With("batch_id", batchID)
	}
	return logger
}

// post performs a single round trip. The second return value reports
// whether the failure was a throttling signal worth retrying.
func (c *Client) post(ctx context.Context, query string, variables map[string]any) (json.RawMessage, bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, fmt.Errorf("%w: %v", common.ErrRemoteUnavailable, err)
	}

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, false, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.requestLogger(ctx).Error("shopify.request.send_error", "error", err)
		return nil, false, fmt.Errorf("%w: %v", common.ErrRemoteUnavailable, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.requestLogger(ctx).Warn("shopify.request.body_close_error", "error", cerr)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, fmt.Errorf("http status %d", resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, false, fmt.Errorf("%w: auth failure, http status %d", common.ErrRemoteUnavailable, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, false, fmt.Errorf("%w: http status %d", common.ErrRemoteUnavailable, resp.StatusCode)
	case resp.StatusCode/100 != 2:
		return nil, false, fmt.Errorf("%w: http status %d: %s", common.ErrRemoteRejected, resp.StatusCode, truncate(raw, 200))
	}

	var gr graphQLResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return nil, false, fmt.Errorf("%w: decode response: %v", common.ErrRemoteUnavailable, err)
	}
	if len(gr.Errors) > 0 {
		for _, ge := range gr.Errors {
			if ge.throttled() {
				return nil, true, fmt.Errorf("graphql throttled: %s", ge.Message)
			}
		}
		return nil, false, fmt.Errorf("%w: graphql errors: %s", common.ErrRemoteRejected, joinErrors(gr.Errors))
	}
	return gr.Data, false, nil
}

func (c *Client) nextBackoff(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts > 30 {
		attempts = 30
	}
	d := c.backoffBase * time.Duration(1<<attempts)
	if d > c.backoffCap || d <= 0 {
		d = c.backoffCap
	}
	return d
}

func joinErrors(errs []graphQLError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

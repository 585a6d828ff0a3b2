package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// HeaderRetryAfter is the retry-after header (seconds).
const HeaderRetryAfter = "Retry-After"

// defaultHTTPTimeout bounds a single attempt.
const defaultHTTPTimeout = 30 * time.Second

// Request is a single remote call. Body is JSON encoded when non-nil.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   any
}

// Response is a fully read remote response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the response has a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

// Transport executes requests with retry on throttling, server errors and
// connection failures. Callers above it never retry.
type Transport struct {
	client      *http.Client
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	limiter     *rate.Limiter
	sleep       func(ctx context.Context, d time.Duration) error
}

// TransportOption configures a Transport.
type TransportOption func(*Transport)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) TransportOption {
	return func(t *Transport) {
		if c != nil {
			t.client = c
		}
	}
}

// WithSleep replaces the backoff sleep. Used by tests to observe delays.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) TransportOption {
	return func(t *Transport) {
		if fn != nil {
			t.sleep = fn
		}
	}
}

// NewTransport creates a transport with the given retry policy.
// Zero values in settings fall back to the defaults. A non-positive
// RequestsPerSecond disables pacing.
func NewTransport(settings domain.SyncSettings, opts ...TransportOption) *Transport {
	defaults := domain.DefaultSyncSettings()
	if settings.MaxAttempts <= 0 {
		settings.MaxAttempts = defaults.MaxAttempts
	}
	if settings.BaseDelay <= 0 {
		settings.BaseDelay = defaults.BaseDelay
	}
	if settings.MaxDelay <= 0 {
		settings.MaxDelay = defaults.MaxDelay
	}

	t := &Transport{
		client:      &http.Client{Timeout: defaultHTTPTimeout},
		maxAttempts: settings.MaxAttempts,
		baseDelay:   settings.BaseDelay,
		maxDelay:    settings.MaxDelay,
		sleep:       sleepContext,
	}
	if settings.RequestsPerSecond > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(settings.RequestsPerSecond), 1)
	}

	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Do sends req, retrying 429 and 5xx responses and connection failures
// up to the attempt budget. When the budget runs out on a retryable status
// the last response is returned without error; when it runs out on a
// connection failure the error wraps domain.ErrNetwork.
func (t *Transport) Do(ctx context.Context, req Request) (*Response, error) {
	var body []byte
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = encoded
	}

	for attempt := 0; ; attempt++ {
		last := attempt >= t.maxAttempts-1

		if t.limiter != nil {
			if err := t.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := t.send(ctx, req, body)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if last {
				return nil, fmt.Errorf("%w: %s %s: %w", domain.ErrNetwork, req.Method, req.URL, err)
			}
			delay := t.retryDelay(attempt, "")
			logger.Warn("%s %s failed (%v), retrying in %s", req.Method, req.URL, err, delay)
			if err := t.sleep(ctx, delay); err != nil {
				return nil, err
			}
			continue
		}

		if !retryable(resp.StatusCode) || last {
			return resp, nil
		}

		delay := t.retryDelay(attempt, resp.Header.Get(HeaderRetryAfter))
		logger.Warn("%s %s returned %d, retrying in %s", req.Method, req.URL, resp.StatusCode, delay)
		if err := t.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func (t *Transport) send(ctx context.Context, req Request, body []byte) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, reader)
	if err != nil {
		return nil, err
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       respBody,
	}, nil
}

// retryDelay returns the wait before retry number attempt+1.
// A numeric Retry-After header wins over the exponential schedule.
func (t *Transport) retryDelay(attempt int, retryAfterHeader string) time.Duration {
	if retryAfter := parseRetryAfterSeconds(retryAfterHeader); retryAfter > 0 {
		return min(retryAfter, t.maxDelay)
	}
	delay := t.baseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= t.maxDelay {
			return t.maxDelay
		}
	}
	return min(delay, t.maxDelay)
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status <= 599)
}

func parseRetryAfterSeconds(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

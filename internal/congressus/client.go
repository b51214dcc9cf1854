// Package congressus implements the client side of the Congressus
// membership API: a low-level request executor with timeout/retry and
// pagination draining, pure response-shaping helpers, and one facade per
// supported upstream API version.
package congressus

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
	"time"

	"github.com/rs/zerolog"

	"github.com/paradoks/streeplijst-backend/internal/api/metrics"
	"github.com/paradoks/streeplijst-backend/internal/core/ports"
)

// BaseURL is the public Congressus API root. Facade constructors default to
// it; tests point clients at a local server instead.
const BaseURL = "https://api.congressus.nl"

// defaultPageSize is the page_size sent on paginated calls.
const defaultPageSize = 25

// timeoutResult is returned after all retries of a call timed out.
func timeoutResult() *ports.UpstreamResult {
	return &ports.UpstreamResult{
		Status: http.StatusRequestTimeout,
		Body:   map[string]any{"error": "Request timeout"},
	}
}

// CallOptions carries the optional parts of a call. Zero values fall back
// to the Client defaults.
type CallOptions struct {
	Query      url.Values
	Body       any           // JSON-encoded request body, nil for none
	Timeout    time.Duration // per-attempt timeout
	MaxRetries int           // attempts before giving up
}

// Client executes logical calls against one version of the Congressus API.
// It is stateless per call and safe for concurrent use. Transient failures
// (timeouts, connection errors) are retried with the same timeout per
// attempt; any other failure is fatal and propagated to the caller.
type Client struct {
	httpClient *http.Client
	baseURL    string
	version    string
	authHeader func() string
	timeout    time.Duration
	maxRetries int
	log        zerolog.Logger
}

// NewClient builds a Client for one upstream version rooted at baseURL.
// authHeader is invoked per request so token rotation does not require a
// restart. timeout and maxRetries become the per-call defaults.
func NewClient(baseURL, version string, authHeader func() string, timeout time.Duration, maxRetries int, log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    baseURL,
		version:    version,
		authHeader: authHeader,
		timeout:    timeout,
		maxRetries: maxRetries,
		log:        log.With().Str("component", "congressus").Str("version", version).Logger(),
	}
}

// CallSingle issues one logical request where a single, non-paginated
// response is expected. On a timeout or connection failure the attempt is
// repeated up to maxRetries times; after exhaustion a synthetic 408 result
// with body {"error": "Request timeout"} is returned. Non-transient
// failures are returned as errors and are never retried.
func (c *Client) CallSingle(ctx context.Context, method, endpoint string, opts CallOptions) (*ports.UpstreamResult, error) {
	timeout, maxRetries := c.defaults(opts)

	for retries := 0; retries < maxRetries; {
		res, err := c.do(ctx, method, endpoint, opts.Query, opts.Body, timeout)
		if err != nil {
			if !isTransient(err) {
				return nil, err
			}
			retries++
			continue
		}
		return res, nil
	}

	metrics.UpstreamTimeoutsTotal.WithLabelValues(c.version).Inc()
	return timeoutResult(), nil
}

// CallPaginated issues a request that is expected to answer with the
// Congressus pagination envelope ({"data": [...], "has_next": bool}) and
// drains all pages into one flat array, starting at page 1. The retry
// budget applies per page: it resets after every successfully fetched page.
//
// Three early exits mirror the upstream contract:
//   - a non-success page is returned verbatim, discarding pages already read
//   - a response without a "data" field is not paginated and is returned as-is
//   - retry exhaustion on any page yields the synthetic 408 result
func (c *Client) CallPaginated(ctx context.Context, method, endpoint string, opts CallOptions) (*ports.UpstreamResult, error) {
	timeout, maxRetries := c.defaults(opts)

	params := url.Values{}
	for k, vs := range opts.Query {
		params[k] = vs
	}
	params.Set("page_size", strconv.Itoa(defaultPageSize))

	// Starts non-nil so an all-empty drain still marshals as a JSON array.
	total := []any{}
	page := 1
	for retries := 0; retries < maxRetries; {
		params.Set("page", strconv.Itoa(page))

		res, err := c.do(ctx, method, endpoint, params, opts.Body, timeout)
		if err != nil {
			if !isTransient(err) {
				return nil, err
			}
			retries++
			continue
		}

		if !res.OK() {
			return res, nil
		}

		envelope, ok := res.Body.(map[string]any)
		if !ok {
			return res, nil
		}
		data, ok := envelope["data"].([]any)
		if !ok {
			// No pagination envelope, single response.
			return res, nil
		}
		total = append(total, data...)

		if hasNext, _ := envelope["has_next"].(bool); !hasNext {
			return &ports.UpstreamResult{Status: res.Status, Body: total}, nil
		}
		retries = 0
		page++
	}

	metrics.UpstreamTimeoutsTotal.WithLabelValues(c.version).Inc()
	return timeoutResult(), nil
}

// do performs a single HTTP attempt and decodes the JSON body. Every
// attempt, successful or not, is logged with the full endpoint, query,
// request body, status and elapsed time.
func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body any, timeout time.Duration) (*ports.UpstreamResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullURL := c.baseURL + "/" + c.version + endpoint
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	var bodyJSON []byte
	if body != nil {
		var err error
		bodyJSON, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("congressus: encode request body: %w", err)
		}
		reqBody = bytes.NewReader(bodyJSON)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, method, fullURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("congressus: build request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	httpRes, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	metrics.UpstreamRequestDuration.WithLabelValues(c.version).Observe(elapsed.Seconds())

	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(c.version, method, "timeout").Inc()
		c.logAttempt(method, fullURL, bodyJSON, 0, elapsed, err)
		return nil, err
	}
	defer httpRes.Body.Close()

	metrics.UpstreamRequestsTotal.WithLabelValues(c.version, method, strconv.Itoa(httpRes.StatusCode)).Inc()
	c.logAttempt(method, fullURL, bodyJSON, httpRes.StatusCode, elapsed, nil)

	raw, err := io.ReadAll(httpRes.Body)
	if err != nil {
		return nil, fmt.Errorf("congressus: read response body: %w", err)
	}

	var decoded any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, fmt.Errorf("congressus: decode response body: %w", err)
		}
	}
	return &ports.UpstreamResult{Status: httpRes.StatusCode, Body: decoded}, nil
}

// logAttempt records one upstream attempt. Logging must never fail or block
// the call; zerolog writes are non-panicking and errors are swallowed by
// the writer.
func (c *Client) logAttempt(method, fullURL string, body []byte, status int, elapsed time.Duration, err error) {
	evt := c.log.Info()
	if err != nil {
		evt = c.log.Warn().Err(err)
	}
	if len(body) > 0 {
		evt = evt.RawJSON("request_body", body)
	}
	evt.
		Str("method", method).
		Str("url", fullURL).
		Int("status", status).
		Dur("elapsed", elapsed).
		Msg("congressus request")
}

func (c *Client) defaults(opts CallOptions) (time.Duration, int) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = c.maxRetries
	}
	return timeout, maxRetries
}

// isTransient reports whether err is a timeout or connection-level failure
// worth retrying. Everything else (cancelled parent context, malformed
// payloads) is fatal.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return !errors.Is(urlErr.Err, context.Canceled)
	}
	return errors.Is(err, context.DeadlineExceeded)
}

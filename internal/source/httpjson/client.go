package httpjson

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/source"
)

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 32 << 20

// Client is a thin HTTP client for a JSON message endpoint. It handles
// optional Bearer token authentication and automatic retry with
// exponential backoff on HTTP 429.
type Client struct {
	url        string
	token      string
	httpClient *http.Client
	maxRetries int
	backoff    func(attempt int) time.Duration
	log        *zap.Logger
}

// NewClient creates a client for the given endpoint URL. token may be
// empty for unauthenticated endpoints.
func NewClient(url, token string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		url:   url,
		token: token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 3,
		backoff:    exponentialBackoff,
		log:        log,
	}
}

// GetJSON performs an HTTP GET against the endpoint and unmarshals the
// JSON response into result.
func (c *Client) GetJSON(ctx context.Context, result interface{}) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing request GET %s: %w", c.url, err)
		}

		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			waitDuration := c.retryAfterDuration(resp, attempt)
			lastErr = fmt.Errorf("rate limited (429) on GET %s", c.url)
			c.log.Warn("rate limited, backing off",
				zap.Int("attempt", attempt),
				zap.Duration("wait", waitDuration),
			)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitDuration):
				continue
			}
		}

		if resp.StatusCode == http.StatusUnauthorized ||
			resp.StatusCode == http.StatusForbidden {
			return &source.AuthError{
				SourceType: model.SourceTypeHTTP,
				Message: fmt.Sprintf(
					"%s rejected credentials (%d)", c.url, resp.StatusCode,
				),
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf(
				"unexpected status %d on GET %s: %s",
				resp.StatusCode, c.url, truncate(string(respBody), 200),
			)
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshaling response from %s: %w", c.url, err)
		}

		return nil
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing,
// negative or not a number of seconds.
func (c *Client) retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil && seconds >= 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return c.backoff(attempt)
}

// exponentialBackoff: 1s, 2s, 4s, ... capped at 30s.
func exponentialBackoff(attempt int) time.Duration {
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

const userHeader = "X-Arcade-User"

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend api error: status=%d detail=%s", e.Status, e.Detail)
}

type Client struct {
	baseURL string
	http    *fasthttp.Client

	defaultTimeout time.Duration
	retryMax       int
	backoff        func(attempt int) time.Duration
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.defaultTimeout = d
		}
	}
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithDial replaces the dialer, e.g. with an in-memory listener in tests.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func withBackoff(f func(int) time.Duration) Option {
	return func(c *Client) { c.backoff = f }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
		backoff:        backoffDuration,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitResult records a finished game. token authenticates the caller; an
// empty token submits in demo mode and earns no points.
func (c *Client) SubmitResult(ctx context.Context, token string, req GameSubmitRequest) (*GameSubmitResponse, error) {
	if strings.TrimSpace(req.GameID) == "" {
		return nil, errors.New("game_id is required")
	}
	extra := map[string]string{}
	if token = strings.TrimSpace(token); token != "" {
		extra["Authorization"] = "Bearer " + token
	}
	if req.UserID != "" {
		extra[userHeader] = req.UserID
	}
	var resp GameSubmitResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/games/submit", req, &resp, extra); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AIParameters fetches the active parameters for a game and difficulty.
func (c *Client) AIParameters(ctx context.Context, gameID, difficulty string) (*AIParametersResponse, error) {
	path := "/games/ai/parameters/" + url.PathEscape(gameID) + "/" + url.PathEscape(difficulty)
	var resp AIParametersResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, path, nil, &resp, nil); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, extra map[string]string) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")

	for k, v := range extra {
		req.Header.Set(k, v)
	}

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := c.retryMax
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt == attempts {
				return lastErr
			}
			if sleepErr := c.sleepWithContext(ctx, c.backoff(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			lastErr = &StatusError{Status: status, Detail: detail(resp.Body())}
			if attempt == attempts || !shouldRetryStatus(status) {
				return lastErr
			}
			if sleepErr := c.sleepWithContext(ctx, c.backoff(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		if out != nil {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func (c *Client) sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}

func shouldRetryStatus(code int) bool {
	switch code {
	case fasthttp.StatusTooManyRequests,
		fasthttp.StatusInternalServerError,
		fasthttp.StatusBadGateway,
		fasthttp.StatusServiceUnavailable,
		fasthttp.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// detail extracts FastAPI's {"detail": ...} or falls back to the raw body.
func detail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Detail != "" {
		return eb.Detail
	}
	return truncate(string(body), 512)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

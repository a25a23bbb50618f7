package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"nav-assistant-service/internal/domain"
	"net/http"
	"time"
)

// Bodies larger than this are truncated; routing responses for city-scale
// trips are well below it.
const maxBodyBytes = 8 << 20

// Client performs single-attempt JSON GETs against external services.
// Network failures are reported as *domain.TransportError; HTTP status
// handling is left to the caller.
type Client struct {
	session   *http.Client
	userAgent string
}

func New(timeout time.Duration, userAgent string) *Client {
	return &Client{
		session:   &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// NewWithHTTPClient wraps an existing client (e.g. httptest.Server.Client()).
func NewWithHTTPClient(c *http.Client, userAgent string) *Client {
	if c == nil {
		c = http.DefaultClient
	}
	return &Client{session: c, userAgent: userAgent}
}

// Get issues the request and returns the status code and the response body.
func (c *Client) Get(ctx context.Context, op, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: create request: %w", op, err)
	}

	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.session.Do(req)
	if err != nil {
		return 0, nil, &domain.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil && !errors.Is(err, io.EOF) {
		return resp.StatusCode, nil, &domain.TransportError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	return resp.StatusCode, body, nil
}

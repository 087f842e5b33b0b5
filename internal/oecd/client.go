package oecd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client fetches data from the OECD API with retry and rate limiting.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
	logger     *zap.SugaredLogger
}

// NewClient returns a client with a 60s request timeout, 3 retries with
// linear-growing delay, and at most one request per second against the API.
func NewClient(logger *zap.SugaredLogger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
		maxRetries: 3,
		retryDelay: 2 * time.Second,
		logger:     logger,
	}
}

// FetchCSV retrieves a URL and returns the response body as text.
// Server and transport errors are retried; 4xx responses are not.
func (c *Client) FetchCSV(ctx context.Context, url string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(attempt)
			c.logger.Infof("Waiting %s before retry...", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}

		c.logger.Infof("Fetching URL (attempt %d/%d): %.100s...", attempt+1, c.maxRetries+1, url)

		body, err := c.fetchOnce(ctx, url)
		if err == nil {
			c.logger.Infof("Successfully fetched data (%d bytes)", len(body))
			return body, nil
		}

		var statusErr *statusError
		if errors.As(err, &statusErr) && statusErr.code >= 400 && statusErr.code < 500 {
			return "", err
		}

		c.logger.Warnf("Request failed on attempt %d: %v", attempt+1, err)
		lastErr = err
	}

	c.logger.Errorf("All %d attempts failed", c.maxRetries+1)
	return "", lastErr
}

func (c *Client) fetchOnce(ctx context.Context, url string) (string, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request for %s: %w", url, err)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("error fetching %s: %w", url, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		io.Copy(io.Discard, response.Body)
		return "", &statusError{code: response.StatusCode, url: url}
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}
	return string(body), nil
}

type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.code, e.url)
}

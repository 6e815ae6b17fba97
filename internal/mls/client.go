package mls

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultBaseURL = "https://api.repliers.io"

// ErrMissingAPIKey is returned before any request is attempted when the
// client was constructed without credentials. No fallback can substitute
// for a missing key, so callers surface this immediately.
var ErrMissingAPIKey = errors.New("missing Repliers API key")

// Client is a thin read-only client for the Repliers listings API.
// One instance is created per process and shared by all handlers.
type Client struct {
	logger  *logrus.Logger
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(logger *logrus.Logger, baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		logger:  logger,
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Get issues a GET request with query parameters and decodes the JSON
// response into out. This is the preferred form for statistics requests.
func (c *Client) Get(ctx context.Context, path string, params map[string]string, out interface{}) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("invalid request URL: %w", err)
	}
	q := u.Query()
	for key, value := range params {
		q.Set(key, value)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("REPLIERS-API-KEY", c.apiKey)

	return c.do(req, out)
}

// Post issues a POST request with a JSON body and decodes the JSON
// response into out. Used for the aggregate search endpoint.
func (c *Client) Post(ctx context.Context, path string, body interface{}, out interface{}) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("REPLIERS-API-KEY", c.apiKey)

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request to MLS source failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read MLS response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"path":   req.URL.Path,
		}).Warn("MLS source returned an error")
		return fmt.Errorf("MLS request failed (%d): %s", resp.StatusCode, string(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse MLS response: %w", err)
	}
	return nil
}

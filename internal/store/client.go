package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rawjoystick/joymap/internal/logging"
	"github.com/rawjoystick/joymap/internal/mapping"
	"github.com/rawjoystick/joymap/internal/version"
)

const (
	// DefaultPort is the port joymap-store listens on
	DefaultPort = 3000

	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for failed loads
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 1 * time.Second

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 30 * time.Second

	// MappingPath serves the mapping document (GET) and accepts saves (POST)
	MappingPath = "/mapping"

	// LogsPath serves the remapper output captured by the store
	LogsPath = "/api/logs"

	// WatchPath is the websocket endpoint for change notifications
	WatchPath = "/ws"
)

// Client talks to a mapping store.
//
// Load and Save are serialized: a Save issued while a Load is in flight waits
// for it to finish, and the other way around.
type Client struct {
	// BaseURL is the base URL of the store (e.g., "http://raspberrypi.local:3000")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the maximum number of retry attempts for failed loads.
	// Saves are never retried.
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration

	// UseExponentialBackoff enables exponential backoff for retries
	UseExponentialBackoff bool

	// mu serializes Load and Save
	mu sync.Mutex
}

// NewClient creates a client for a store at host:port
func NewClient(host string, port int) *Client {
	return NewClientWithURL(fmt.Sprintf("http://%s:%d", host, port))
}

// NewClientWithURL creates a client with a full base URL. A URL without a
// scheme gets http://.
func NewClientWithURL(baseURL string) *Client {
	return &Client{
		BaseURL:               NormalizeURL(baseURL),
		HTTPClient:            &http.Client{Timeout: DefaultTimeout},
		MaxRetries:            DefaultMaxRetries,
		RetryDelay:            DefaultRetryDelay,
		MaxRetryDelay:         DefaultMaxRetryDelay,
		UseExponentialBackoff: true,
	}
}

// NormalizeURL adds a missing http:// scheme and drops trailing slashes.
func NormalizeURL(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return strings.TrimRight(baseURL, "/")
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures retry behavior
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// Ping checks that the store answers on the mapping endpoint
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodHead, MappingPath, nil)
	if err != nil {
		return NewNetworkError("failed to create ping request", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return c.networkError("store unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return NewHTTPError(resp.StatusCode, "")
	}
	return nil
}

// Load fetches the mapping document. Retryable failures are retried with
// backoff until MaxRetries is exhausted or ctx is done.
func (c *Client) Load(ctx context.Context) (*mapping.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lastErr error
	currentDelay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, currentDelay); err != nil {
				return nil, err
			}

			if c.UseExponentialBackoff {
				currentDelay *= 2
				if currentDelay > c.MaxRetryDelay {
					currentDelay = c.MaxRetryDelay
				}
			}
		}

		doc, err := c.loadAttempt(ctx)
		logging.LogStoreCall(http.MethodGet, c.BaseURL+MappingPath, attempt+1, err)
		if err == nil {
			return doc, nil
		}

		lastErr = err

		if !IsRetryable(err) || ctx.Err() != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

func (c *Client) loadAttempt(ctx context.Context) (*mapping.Document, error) {
	req, err := c.newRequest(ctx, http.MethodGet, MappingPath, nil)
	if err != nil {
		return nil, NewNetworkError("failed to create GET request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, c.networkError("GET request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.networkError("failed to read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewHTTPError(resp.StatusCode, string(body))
	}

	doc, err := mapping.Parse(body)
	if err != nil {
		return nil, NewParseError("failed to parse mapping document", err)
	}

	return doc, nil
}

// Save POSTs doc, pretty-printed, and returns the store's response text.
//
// The text is returned for every response the store sends, so it can be
// shown to the operator as-is. A non-2xx status additionally yields an
// HTTP StoreError. Transport failures return an empty text and are not
// retried.
func (c *Client) Save(ctx context.Context, doc *mapping.Document) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	body, err := doc.MarshalIndent()
	if err != nil {
		return "", NewParseError("failed to encode mapping document", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, MappingPath, bytes.NewReader(body))
	if err != nil {
		return "", NewNetworkError("failed to create POST request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		storeErr := c.networkError("POST request failed", err)
		logging.LogStoreCall(http.MethodPost, c.BaseURL+MappingPath, 1, storeErr)
		return "", storeErr
	}
	defer func() { _ = resp.Body.Close() }()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", c.networkError("failed to read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := NewHTTPError(resp.StatusCode, string(text))
		logging.LogStoreCall(http.MethodPost, c.BaseURL+MappingPath, 1, httpErr)
		return string(text), httpErr
	}

	logging.LogStoreCall(http.MethodPost, c.BaseURL+MappingPath, 1, nil)
	return string(text), nil
}

// SaveAndVerify saves doc and loads the stored document back, returning the
// editable fields that did not land as sent. The store merges what it
// receives, so an empty result means every edit was applied.
func (c *Client) SaveAndVerify(ctx context.Context, doc *mapping.Document) (string, []mapping.Change, error) {
	text, err := c.Save(ctx, doc)
	if err != nil {
		return text, nil, err
	}

	stored, err := c.Load(ctx)
	if err != nil {
		return text, nil, fmt.Errorf("failed to load mapping for verification: %w", err)
	}

	// NaN is written as null and reads back as absent, which is expected.
	sent, err := roundTrip(doc)
	if err != nil {
		return text, nil, err
	}
	return text, mapping.Diff(sent, stored), nil
}

func roundTrip(doc *mapping.Document) (*mapping.Document, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, NewParseError("failed to encode mapping document", err)
	}
	return mapping.Parse(data)
}

// Logs returns the remapper output captured by the store
func (c *Client) Logs(ctx context.Context) ([]string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, LogsPath, nil)
	if err != nil {
		return nil, NewNetworkError("failed to create GET request", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, c.networkError("GET request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.networkError("failed to read response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, NewHTTPError(resp.StatusCode, string(body))
	}

	var payload struct {
		Logs []string `json:"logs"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, NewParseError("failed to parse logs response", err)
	}
	return payload.Logs, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", version.UserAgent())
	return req, nil
}

func (c *Client) networkError(message string, err error) *StoreError {
	storeErr := NewNetworkError(message, err)
	storeErr.StoreURL = c.BaseURL
	return storeErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/terra-clan/grid-test-engine/internal/models"
)

// Client is a Go SDK for the grid-test-engine API
type Client struct {
	baseURL    string
	httpClient *http.Client
	dialer     *websocket.Dialer
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithDialer sets the websocket dialer used by Stream
func WithDialer(dialer *websocket.Dialer) Option {
	return func(c *Client) {
		c.dialer = dialer
	}
}

// NewClient creates a new grid-test-engine client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		dialer: websocket.DefaultDialer,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is returned when the server answers with an error envelope
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %s - %s", e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the server
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// FeedEvent is one message of the generated-test stream
type FeedEvent struct {
	Type string                       `json:"type"`
	Test *models.GeneratedTestSummary `json:"test,omitempty"`
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Topics lists the catalog
func (c *Client) Topics(ctx context.Context) ([]models.TopicParameters, error) {
	var data struct {
		Topics []models.TopicParameters `json:"topics"`
		Total  int                      `json:"total"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/topics", &data); err != nil {
		return nil, err
	}
	return data.Topics, nil
}

// Topic returns one catalog entry
func (c *Client) Topic(ctx context.Context, id string) (*models.TopicParameters, error) {
	var params models.TopicParameters
	if err := c.do(ctx, http.MethodGet, "/api/v1/topics/"+url.PathEscape(id), &params); err != nil {
		return nil, err
	}
	return &params, nil
}

// GetTest retrieves a stored topic as a static test
func (c *Client) GetTest(ctx context.Context, id string) (*models.Topic, error) {
	var test models.Topic
	if err := c.do(ctx, http.MethodGet, "/api/v1/tests/"+url.PathEscape(id), &test); err != nil {
		return nil, err
	}
	return &test, nil
}

// Generate asks the server to assemble and persist a new mixed test
func (c *Client) Generate(ctx context.Context) (*models.Topic, error) {
	var test models.Topic
	if err := c.do(ctx, http.MethodPost, "/api/v1/tests/generate", &test); err != nil {
		return nil, err
	}
	return &test, nil
}

// ListGenerated lists persisted generated tests
func (c *Client) ListGenerated(ctx context.Context) ([]models.GeneratedTestSummary, error) {
	var data struct {
		Tests []models.GeneratedTestSummary `json:"tests"`
		Total int                           `json:"total"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/generated", &data); err != nil {
		return nil, err
	}
	return data.Tests, nil
}

// GetGenerated retrieves one persisted generated test
func (c *Client) GetGenerated(ctx context.Context, id string) (*models.Topic, error) {
	var test models.Topic
	if err := c.do(ctx, http.MethodGet, "/api/v1/generated/"+url.PathEscape(id), &test); err != nil {
		return nil, err
	}
	return &test, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil)
}

// Stream subscribes to the generated-test feed and calls fn for every event
// until ctx is cancelled, the connection drops or fn returns an error.
func (c *Client) Stream(ctx context.Context, fn func(FeedEvent) error) error {
	wsURL, err := c.streamURL()
	if err != nil {
		return err
	}

	conn, _, err := c.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to feed: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		var event FeedEvent
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("failed to read feed: %w", err)
		}
		if err := fn(event); err != nil {
			return err
		}
	}
}

func (c *Client) streamURL() (string, error) {
	u, err := url.Parse(c.baseURL + "/api/v1/generated/stream")
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String(), nil
}

// do performs an HTTP request and decodes the envelope data into out
func (c *Client) do(ctx context.Context, method, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var result envelope
	if err := json.Unmarshal(body, &result); err != nil {
		if resp.StatusCode >= 400 {
			return &APIError{StatusCode: resp.StatusCode, Code: "http_error", Message: strings.TrimSpace(string(body))}
		}
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success || resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Code: "unknown", Message: http.StatusText(resp.StatusCode)}
		if result.Error != nil {
			apiErr.Code = result.Error.Code
			apiErr.Message = result.Error.Message
		}
		return apiErr
	}

	if out == nil || len(result.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(result.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response data: %w", err)
	}
	return nil
}

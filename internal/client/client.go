// Package client talks to the story REST API on behalf of the writing
// workflow and the terminal app.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonathan/story-master/internal/catalog"
	"github.com/jonathan/story-master/internal/logging"
	"github.com/jonathan/story-master/internal/types"
	"go.uber.org/zap"
)

// DefaultTimeout bounds every request so a stalled backend cannot leave the
// caller waiting forever.
const DefaultTimeout = 15 * time.Second

// maxBody caps how much of a response is read.
const maxBody = 4 << 20

// TransportError covers network failures, unexpected statuses and
// undecodable responses.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
	Cause      error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Method, e.URL)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// ValidationError is a 400 or 422 rejection of the request body.
type ValidationError struct {
	StatusCode int
	Message    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("rejected by server (%d): %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.StatusCode == http.StatusNotFound
}

// Client is an HTTP client for the story API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout. Zero or negative keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the logger for transport failures.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logging.OrNop(l)
	}
}

// New creates a client for the API rooted at baseURL, e.g. http://localhost:8080/api.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetProgress fetches the learner's progress.
func (c *Client) GetProgress(ctx context.Context) (*types.Progress, error) {
	var p types.Progress
	if err := c.do(ctx, http.MethodGet, "/progress", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProgress sends a partial update and returns the authoritative progress.
func (c *Client) UpdateProgress(ctx context.Context, update types.ProgressUpdate) (*types.Progress, error) {
	var p types.Progress
	if err := c.do(ctx, http.MethodPut, "/progress", update, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListStories fetches all stories, normalizing older record shapes.
func (c *Client) ListStories(ctx context.Context) ([]types.Story, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/stories", nil, &raw); err != nil {
		return nil, err
	}
	stories, err := types.NormalizeStories(raw)
	if err != nil {
		return nil, c.transportError(http.MethodGet, "/stories", 0, "invalid response", err)
	}
	return stories, nil
}

// CreateStory submits a finished story and returns the stored record.
func (c *Client) CreateStory(ctx context.Context, req *types.StoryCreateRequest) (*types.Story, error) {
	var s types.Story
	if err := c.do(ctx, http.MethodPost, "/stories", req, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetStory fetches one story.
func (c *Client) GetStory(ctx context.Context, id string) (*types.Story, error) {
	path := "/stories/" + url.PathEscape(id)
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	s, err := types.NormalizeStory(raw)
	if err != nil {
		return nil, c.transportError(http.MethodGet, path, 0, "invalid response", err)
	}
	return &s, nil
}

// DeleteStory removes one story.
func (c *Client) DeleteStory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/stories/"+url.PathEscape(id), nil, nil)
}

// Categories fetches the server's category list.
func (c *Client) Categories(ctx context.Context) ([]catalog.Category, error) {
	var cats []catalog.Category
	if err := c.do(ctx, http.MethodGet, "/categories", nil, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return c.transportError(method, path, 0, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.transportError(method, path, 0, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return c.transportError(method, path, resp.StatusCode, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(data)
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity {
			return &ValidationError{StatusCode: resp.StatusCode, Message: msg}
		}
		return c.transportError(method, path, resp.StatusCode, msg, nil)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return c.transportError(method, path, resp.StatusCode, "invalid response", err)
	}
	return nil
}

func (c *Client) transportError(method, path string, status int, msg string, cause error) error {
	err := &TransportError{
		Method:     method,
		URL:        c.baseURL + path,
		StatusCode: status,
		Message:    msg,
		Cause:      cause,
	}
	c.logger.Warn("api request failed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.Error(err),
	)
	return err
}

// errorMessage pulls the error string out of a {"error": ...} body.
func errorMessage(data []byte) string {
	var body struct {
		Error  string `json:"error"`
		Detail any    `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Detail != nil {
			return fmt.Sprint(body.Detail)
		}
	}
	return strings.TrimSpace(string(data))
}

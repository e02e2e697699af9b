// Package client consumes the feed API: an HTTP client for the cursor feed
// and the infinite-scroll session built on it.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/genz-feed/api-go/models"
)

// FeedPage is one response from GET /api/feed.
type FeedPage struct {
	Posts      []models.Post `json:"posts"`
	NextCursor *string       `json:"nextCursor"`
}

// PageFetcher loads the feed page that follows cursor. An empty cursor loads
// the first page.
type PageFetcher interface {
	FetchFeed(ctx context.Context, cursor string, limit int) (*FeedPage, error)
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Kind       string `json:"error"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("feed api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("feed api: status %d: %s: %s", e.StatusCode, e.Kind, e.Message)
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

// WithToken authenticates requests with a bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ PageFetcher = (*Client)(nil)

// FetchFeed calls GET /api/feed.
func (c *Client) FetchFeed(ctx context.Context, cursor string, limit int) (*FeedPage, error) {
	query := url.Values{}
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	endpoint := c.baseURL + "/api/feed"
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		_ = json.Unmarshal(body, apiErr)
		return nil, apiErr
	}

	var page FeedPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode feed page: %w", err)
	}
	return &page, nil
}

package notion

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

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	DefaultVersion = "2022-06-28"

	// Notion documents an average of three requests per second per integration.
	defaultRate  = 3
	defaultBurst = 3
	pageSize     = 100
)

// ErrNotFound is matched by errors.Is for 404 responses.
var ErrNotFound = errors.New("notion: not found")

// APIError is a non-2xx response from the Notion API.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion %s %s failed (%d): %s", e.Method, e.Path, e.Status, e.Message)
}

// Is makes errors.Is(err, ErrNotFound) true for 404s.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Client reads pages, blocks and database rows from the Notion REST API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	version    string
	token      string
	databaseID string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another API root (tests, proxies).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(strings.TrimSpace(u), "/") }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit sets the request rate. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithVersion overrides the Notion-Version header.
func WithVersion(v string) ClientOption {
	return func(c *Client) { c.version = v }
}

// NewClient returns a client for the given integration token and posts database.
func NewClient(token, databaseID string, opts ...ClientOption) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("notion API token is required")
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		limiter:    rate.NewLimiter(defaultRate, defaultBurst),
		baseURL:    DefaultBaseURL,
		version:    DefaultVersion,
		token:      token,
		databaseID: strings.TrimSpace(databaseID),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListChildren returns one page of a block's children. An empty cursor starts
// at the beginning.
func (c *Client) ListChildren(ctx context.Context, blockID, cursor string) (BlockList, error) {
	blockID = strings.TrimSpace(blockID)
	if blockID == "" {
		return BlockList{}, fmt.Errorf("block ID is required")
	}
	q := url.Values{}
	q.Set("page_size", fmt.Sprint(pageSize))
	if cursor != "" {
		q.Set("start_cursor", cursor)
	}
	var out BlockList
	if err := c.doJSON(ctx, http.MethodGet, "/blocks/"+blockID+"/children?"+q.Encode(), nil, &out); err != nil {
		return BlockList{}, err
	}
	return out, nil
}

// GetPage returns a page's metadata and properties.
func (c *Client) GetPage(ctx context.Context, pageID string) (Page, error) {
	pageID = strings.TrimSpace(pageID)
	if pageID == "" {
		return Page{}, fmt.Errorf("page ID is required")
	}
	var out Page
	if err := c.doJSON(ctx, http.MethodGet, "/pages/"+pageID, nil, &out); err != nil {
		return Page{}, err
	}
	return out, nil
}

// GetBlock returns a single block without its children.
func (c *Client) GetBlock(ctx context.Context, blockID string) (Block, error) {
	blockID = strings.TrimSpace(blockID)
	if blockID == "" {
		return Block{}, fmt.Errorf("block ID is required")
	}
	var out Block
	if err := c.doJSON(ctx, http.MethodGet, "/blocks/"+blockID, nil, &out); err != nil {
		return Block{}, err
	}
	return out, nil
}

// QueryPublished returns every row with Published checked, newest first.
func (c *Client) QueryPublished(ctx context.Context) ([]Post, error) {
	payload := map[string]any{
		"filter": map[string]any{
			"property": "Published",
			"checkbox": map[string]any{"equals": true},
		},
		"sorts": []map[string]any{
			{"property": "Date", "direction": "descending"},
		},
	}
	pages, err := c.queryAll(ctx, payload)
	if err != nil {
		return nil, err
	}
	posts := make([]Post, 0, len(pages))
	for _, p := range pages {
		posts = append(posts, PostFromPage(p))
	}
	return posts, nil
}

// FindBySlug returns the row whose Slug equals slug, or nil when none does.
func (c *Client) FindBySlug(ctx context.Context, slug string) (*Post, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, nil
	}
	payload := map[string]any{
		"filter": map[string]any{
			"property":  "Slug",
			"rich_text": map[string]any{"equals": slug},
		},
		"page_size": 1,
	}
	var out dbQueryResponse
	if err := c.doJSON(ctx, http.MethodPost, c.queryPath(), payload, &out); err != nil {
		return nil, err
	}
	if len(out.Results) == 0 {
		return nil, nil
	}
	post := PostFromPage(out.Results[0])
	return &post, nil
}

func (c *Client) queryPath() string {
	return "/databases/" + c.databaseID + "/query"
}

func (c *Client) queryAll(ctx context.Context, payload map[string]any) ([]Page, error) {
	if c.databaseID == "" {
		return nil, fmt.Errorf("notion database ID is required")
	}
	var pages []Page
	payload["page_size"] = pageSize
	for {
		var out dbQueryResponse
		if err := c.doJSON(ctx, http.MethodPost, c.queryPath(), payload, &out); err != nil {
			return nil, err
		}
		pages = append(pages, out.Results...)
		if out.NextCursor == nil || *out.NextCursor == "" {
			return pages, nil
		}
		payload["start_cursor"] = *out.NextCursor
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("notion rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("authorization", "Bearer "+c.token)
	req.Header.Set("notion-version", c.version)
	if payload != nil {
		req.Header.Set("content-type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: strings.TrimSpace(string(respBody)),
		}
		var errResp struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(respBody, &errResp); err == nil {
			apiErr.Code = errResp.Code
			if m := strings.TrimSpace(errResp.Message); m != "" {
				apiErr.Message = m
			}
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse notion response for %s %s: %w", method, path, err)
	}
	return nil
}

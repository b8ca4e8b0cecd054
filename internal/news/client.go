package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Query holds the listing filters accepted by GET /api/news.
type Query struct {
	Text     string
	Category string
	Source   string
	From     time.Time
	To       time.Time
	Page     int
	PageSize int
}

// Page is one page of listing results.
type Page struct {
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
	Items    []Article `json:"items"`
}

// ErrNotFound is returned by Get when the backend has no such article.
var ErrNotFound = errors.New("article not found")

// Client reads the article listing endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a listing client. A nil httpClient uses a client with a
// 30 second timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (q Query) values() url.Values {
	v := url.Values{}
	if q.Text != "" {
		v.Set("q", q.Text)
	}
	if q.Category != "" && q.Category != "all" {
		v.Set("category", q.Category)
	}
	if q.Source != "" {
		v.Set("source", q.Source)
	}
	if !q.From.IsZero() {
		v.Set("date_from", q.From.UTC().Format(time.RFC3339))
	}
	if !q.To.IsZero() {
		v.Set("date_to", q.To.UTC().Format(time.RFC3339))
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	switch {
	case size < 1:
		size = defaultPageSize
	case size > maxPageSize:
		size = maxPageSize
	}
	v.Set("page", strconv.Itoa(page))
	v.Set("page_size", strconv.Itoa(size))
	return v
}

// List fetches one page of articles matching q.
func (c *Client) List(ctx context.Context, q Query) (*Page, error) {
	var page Page
	if err := c.get(ctx, "/api/news?"+q.values().Encode(), &page); err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return &page, nil
}

// Get fetches a single article by id.
func (c *Client) Get(ctx context.Context, id int) (*Article, error) {
	var a Article
	if err := c.get(ctx, "/api/news/"+strconv.Itoa(id), &a); err != nil {
		return nil, fmt.Errorf("get article %d: %w", id, err)
	}
	return &a, nil
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

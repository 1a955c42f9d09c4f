// Package gnews provides a client for the Google News RSS search feed
package gnews

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bobmcallan/marketbrief/internal/common"
	"github.com/bobmcallan/marketbrief/internal/interfaces"
	"github.com/bobmcallan/marketbrief/internal/models"
)

const (
	DefaultBaseURL = "https://news.google.com/rss"
	DefaultTimeout = 10 * time.Second
)

// Client implements the NewsClient interface over the Google News RSS feed.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Google News RSS client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a feed fetch error
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Google News feed error: %s (status: %d)", e.Message, e.StatusCode)
}

// rssFeed models the subset of the RSS 2.0 document we read
type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate"`
	Source  struct {
		Name string `xml:",chardata"`
		URL  string `xml:"url,attr"`
	} `xml:"source"`
}

// pubDate is RFC 1123 with a numeric or named zone depending on the feed
var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
}

func parsePubDate(s string) time.Time {
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Search retrieves headline entries for a free-text query, most recent first
// as ordered by the feed. Results are capped at limit when limit > 0.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]models.NewsItem, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", "en-US")
	params.Set("gl", "US")
	params.Set("ceid", "US:en")

	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("query", query).Msg("Google News feed request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	var feed rssFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}

	items := feed.Channel.Items
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	news := make([]models.NewsItem, 0, len(items))
	for _, item := range items {
		news = append(news, models.NewsItem{
			Title:       item.Title,
			Link:        item.Link,
			Source:      item.Source.Name,
			PublishedAt: parsePubDate(item.PubDate),
		})
	}

	return news, nil
}

// Ensure Client implements NewsClient
var _ interfaces.NewsClient = (*Client)(nil)

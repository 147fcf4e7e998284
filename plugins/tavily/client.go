// Package tavily looks up current travel information on the web.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/va6996/tripchat/core"
	"github.com/va6996/tripchat/log"
)

const DefaultBaseURL = "https://api.tavily.com"

// Client is the Tavily API client
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      *cache.Cache
}

// NewClient creates a new Tavily client. Answers are kept in memory for
// cacheTTL.
func NewClient(apiKey, baseURL string, timeout, cacheTTL time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache.New(cacheTTL, 2*cacheTTL),
	}
}

// SearchRequest represents a Tavily search request
type SearchRequest struct {
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth,omitempty"`
	MaxResults     int      `json:"max_results,omitempty"`
	Topic          string   `json:"topic,omitempty"`
	TimeRange      string   `json:"time_range,omitempty"`
	IncludeAnswer  bool     `json:"include_answer,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	ExcludeDomains []string `json:"exclude_domains,omitempty"`
}

// SearchResult represents a single search result
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// SearchResponse represents the Tavily search response
type SearchResponse struct {
	Query   string         `json:"query"`
	Answer  string         `json:"answer,omitempty"`
	Results []SearchResult `json:"results"`
}

func (r *SearchRequest) setDefaults() {
	if r.SearchDepth == "" {
		r.SearchDepth = "basic"
	}
	if r.MaxResults == 0 {
		r.MaxResults = 5
	}
	if r.Topic == "" {
		r.Topic = "general"
	}
}

func (r SearchRequest) cacheKey() string {
	return fmt.Sprintf("%s|%s|%s|%d", strings.ToLower(r.Query), r.Topic, r.TimeRange, r.MaxResults)
}

// Search performs a Tavily search
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: query is required", core.ErrValidation)
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: tavily API key is not configured", core.ErrProvider)
	}
	req.setDefaults()

	key := req.cacheKey()
	if hit, ok := c.cache.Get(key); ok {
		log.Debugf(ctx, "[Tavily] Cache hit for %q", req.Query)
		return hit.(*SearchResponse), nil
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	log.Debugf(ctx, "[Tavily] Searching: query=%s, topic=%s, time_range=%s", req.Query, req.Topic, req.TimeRange)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: tavily request failed: %v", core.ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: tavily returned status %s", core.ErrProvider, resp.Status)
	}

	var out SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: failed to decode tavily response: %v", core.ErrProvider, err)
	}
	c.cache.SetDefault(key, &out)
	log.Debugf(ctx, "[Tavily] %d results for %q", len(out.Results), req.Query)
	return &out, nil
}

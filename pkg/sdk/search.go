package sdk

import (
	"context"
	"net/http"
	"time"
)

// SearchRequest is the POST /api/v1/search body.
type SearchRequest struct {
	Query      string   `json:"query"`
	Categories []string `json:"categories,omitempty"`
	Services   []string `json:"services,omitempty"`
	Language   string   `json:"language,omitempty"`
	SafeSearch int      `json:"safe_search,omitempty"`
	TimeRange  string   `json:"time_range,omitempty"`
	Page       int      `json:"page,omitempty"`
	PageSize   int      `json:"page_size,omitempty"`
	// TimeoutMs shortens per-service timeouts for this request only.
	TimeoutMs int `json:"timeout_ms,omitempty"`
}

// Result is one merged search result.
type Result struct {
	URL     string `json:"url,omitempty"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`

	Text       string            `json:"text,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`

	PublishedAt time.Time `json:"published_at,omitzero"`
	Thumbnail   string    `json:"thumbnail,omitempty"`

	Services []string `json:"services"`
	Score    float64  `json:"score"`
}

// ServiceStatus is the per-service outcome of one request.
type ServiceStatus struct {
	Status      string        `json:"status"`
	Latency     time.Duration `json:"latency"`
	ResultCount int           `json:"result_count"`
}

// SearchResponse is one finished search.
type SearchResponse struct {
	RequestID string `json:"request_id"`

	Results     []Result `json:"results"`
	Answers     []Result `json:"answers,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Corrections []string `json:"corrections,omitempty"`
	Infoboxes   []Result `json:"infoboxes,omitempty"`

	Statuses map[string]ServiceStatus `json:"statuses"`

	TotalResults int  `json:"total_results"`
	NoServices   bool `json:"no_services,omitempty"`
	Cached       bool `json:"cached,omitempty"`

	Elapsed time.Duration `json:"elapsed"`
}

// Search executes one query against the server.
func (c *Client) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/search", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

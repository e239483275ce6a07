package polyseek

import (
	"context"
	"fmt"
	"time"

	"github.com/polyseek/polyseek/internal/domain/query"
	"github.com/polyseek/polyseek/internal/domain/result"
)

// SearchOptions refines a search beyond the bare term. The zero value asks
// every configured service with defaults.
type SearchOptions struct {
	Categories []string
	Services   []string
	Language   string // BCP 47 tag, e.g. "de" or "en-US"
	SafeSearch int    // 0 off, 1 moderate, 2 strict
	TimeRange  string // day, week, month, year
	Page       int
	PageSize   int
	// Timeout shortens per-service timeouts for this request only.
	Timeout time.Duration
}

// Result is one merged search result.
type Result struct {
	URL     string
	Title   string
	Content string

	Text       string
	Attributes map[string]string

	PublishedAt time.Time
	Thumbnail   string

	// Services lists every contributing service.
	Services []string
	// Score is the accumulated weighted positional score.
	Score float64
}

// ServiceStatus is the per-service outcome of one request.
type ServiceStatus struct {
	Status      string // ok, timed-out, suspended, errored, skipped
	Latency     time.Duration
	ResultCount int
}

// Response is one finished search.
type Response struct {
	RequestID string

	Results     []Result
	Answers     []Result
	Suggestions []string
	Corrections []string
	Infoboxes   []Result

	Statuses map[string]ServiceStatus

	// TotalResults is the deduplicated result count before pagination.
	TotalResults int
	// NoServices is set when zero services were eligible.
	NoServices bool
	// Cached is set when the response came from the result cache.
	Cached bool

	Elapsed time.Duration
}

// Search fans the term out to the configured services and returns the merged
// response. Per-service failures never fail the call; check Statuses.
func (c *Client) Search(ctx context.Context, term string, opts *SearchOptions) (*Response, error) {
	if opts == nil {
		opts = &SearchOptions{}
	}

	q, err := query.New(term, opts.Categories, opts.Services, opts.Language,
		opts.SafeSearch, query.TimeRange(opts.TimeRange), opts.Page, opts.PageSize,
		opts.Timeout)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	env, err := c.searchSvc.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return fromEnvelope(env), nil
}

func fromEnvelope(env *result.Envelope) *Response {
	resp := &Response{
		RequestID:    env.RequestID,
		Results:      fromMerged(env.Results),
		Answers:      fromMerged(env.Answers),
		Suggestions:  env.Suggestions,
		Corrections:  env.Corrections,
		Infoboxes:    fromMerged(env.Infoboxes),
		Statuses:     make(map[string]ServiceStatus, len(env.Statuses)),
		TotalResults: env.TotalResults,
		NoServices:   env.NoServices,
		Cached:       env.Cached,
		Elapsed:      env.Elapsed,
	}
	for name, t := range env.Statuses {
		resp.Statuses[name] = ServiceStatus{
			Status:      string(t.Status),
			Latency:     t.Latency,
			ResultCount: t.ResultCount,
		}
	}
	return resp
}

func fromMerged(in []*result.Merged) []Result {
	if len(in) == 0 {
		return nil
	}
	out := make([]Result, len(in))
	for i, m := range in {
		out[i] = Result{
			URL:         m.URL,
			Title:       m.Title,
			Content:     m.Content,
			Text:        m.Text,
			Attributes:  m.Attributes,
			PublishedAt: m.PublishedAt,
			Thumbnail:   m.Thumbnail,
			Services:    m.Services,
			Score:       m.Score,
		}
	}
	return out
}

package query

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// Query parameter limits.
const (
	// MaxTermLength is the maximum allowed search term length.
	MaxTermLength = 2048
	// DefaultPageSize is the page size when none is requested.
	DefaultPageSize = 20
	// MaxPageSize caps the requested page size.
	MaxPageSize = 100
	// MaxSafeSearch is the strictest safe-search level.
	MaxSafeSearch = 2
)

// TimeRange restricts results to a recency window.
type TimeRange string

const (
	RangeNone  TimeRange = ""
	RangeDay   TimeRange = "day"
	RangeWeek  TimeRange = "week"
	RangeMonth TimeRange = "month"
	RangeYear  TimeRange = "year"
)

// IsValid reports whether r is a known time range.
func (r TimeRange) IsValid() bool {
	switch r {
	case RangeNone, RangeDay, RangeWeek, RangeMonth, RangeYear:
		return true
	}
	return false
}

// Query is one validated, immutable search request. It is shared read-only
// across all concurrent dispatch units.
type Query struct {
	term       string
	categories []string
	services   []string
	lang       language.Tag
	safeSearch int
	timeRange  TimeRange
	page       int
	pageSize   int
	timeout    time.Duration // override; 0 means none
}

// New validates and normalizes query parameters.
// Defaults: page 1, pageSize 20. langTag may be empty (no language filter).
// A timeout override can only shorten per-service timeouts, never lengthen
// them; the dispatcher enforces that.
func New(
	term string,
	categories, services []string,
	langTag string,
	safeSearch int,
	timeRange TimeRange,
	page, pageSize int,
	timeout time.Duration,
) (Query, error) {
	if term == "" {
		return Query{}, fmt.Errorf("term is required")
	}
	if len(term) > MaxTermLength {
		return Query{}, fmt.Errorf("term too long (max %d chars)", MaxTermLength)
	}
	if safeSearch < 0 || safeSearch > MaxSafeSearch {
		return Query{}, fmt.Errorf("safe_search must be between 0 and %d", MaxSafeSearch)
	}
	if !timeRange.IsValid() {
		return Query{}, fmt.Errorf("invalid time_range: %q", timeRange)
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if timeout < 0 {
		return Query{}, fmt.Errorf("negative timeout override")
	}

	var lang language.Tag
	if langTag != "" {
		var err error
		lang, err = language.Parse(langTag)
		if err != nil {
			return Query{}, fmt.Errorf("invalid language %q: %w", langTag, err)
		}
	}

	return Query{
		term:       term,
		categories: categories,
		services:   services,
		lang:       lang,
		safeSearch: safeSearch,
		timeRange:  timeRange,
		page:       page,
		pageSize:   pageSize,
		timeout:    timeout,
	}, nil
}

// Term returns the free-text search term.
func (q Query) Term() string { return q.term }

// Categories returns the selected categories.
func (q Query) Categories() []string { return q.categories }

// Services returns the explicitly selected service names.
func (q Query) Services() []string { return q.services }

// Language returns the parsed language tag; language.Und when unset.
func (q Query) Language() language.Tag { return q.lang }

// HasLanguage reports whether a language filter was requested.
func (q Query) HasLanguage() bool { return q.lang != language.Tag{} }

// SafeSearch returns the safe-search level (0-2).
func (q Query) SafeSearch() int { return q.safeSearch }

// TimeRange returns the recency filter.
func (q Query) TimeRange() TimeRange { return q.timeRange }

// Page returns the 1-based page number.
func (q Query) Page() int { return q.page }

// PageSize returns the result page size.
func (q Query) PageSize() int { return q.pageSize }

// Timeout returns the per-request timeout override; 0 means none.
func (q Query) Timeout() time.Duration { return q.timeout }

package result

import "time"

// Kind tags the shape of one partial result.
type Kind string

const (
	// KindStandard is a url/title/content item, subject to URL dedup.
	KindStandard Kind = "standard"
	// KindAnswer is a direct answer (e.g. a conversion or definition).
	KindAnswer Kind = "answer"
	// KindSuggestion is an alternative query suggestion.
	KindSuggestion Kind = "suggestion"
	// KindCorrection is a spelling correction for the query.
	KindCorrection Kind = "correction"
	// KindInfobox is a structured summary panel.
	KindInfobox Kind = "infobox"
)

// Partial is one item produced by one service for one query. The shared
// header (URL/Title) applies to every kind; the remaining fields are
// kind-specific. Created by an adapter, owned by the dispatcher until it is
// handed to the aggregator.
type Partial struct {
	Kind    Kind
	URL     string
	Title   string
	Content string

	// Answer text for KindAnswer, suggestion/correction text for those kinds.
	Text string
	// Attributes holds infobox key/value rows.
	Attributes map[string]string

	PublishedAt time.Time
	Thumbnail   string

	// Service and Rank are stamped by the dispatch unit: the originating
	// service name and the 1-based position within that service's response.
	Service string
	Rank    int
}

// Standard builds a url item.
func Standard(url, title, content string) Partial {
	return Partial{Kind: KindStandard, URL: url, Title: title, Content: content}
}

// Answer builds a direct answer.
func Answer(text string) Partial {
	return Partial{Kind: KindAnswer, Text: text}
}

// Suggestion builds a query suggestion.
func Suggestion(text string) Partial {
	return Partial{Kind: KindSuggestion, Text: text}
}

// Correction builds a spelling correction.
func Correction(text string) Partial {
	return Partial{Kind: KindCorrection, Text: text}
}

// Infobox builds a structured panel.
func Infobox(title, content string, attrs map[string]string) Partial {
	return Partial{Kind: KindInfobox, Title: title, Content: content, Attributes: attrs}
}

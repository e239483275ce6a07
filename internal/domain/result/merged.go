package result

import "time"

// Merged is the deduplicated union of one or more Partials sharing a
// normalized URL (or, for answers, the same normalized text). It always has
// at least one contributing service.
type Merged struct {
	URL     string `json:"url,omitempty"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`

	Text       string            `json:"text,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`

	PublishedAt time.Time `json:"published_at,omitzero"`
	Thumbnail   string    `json:"thumbnail,omitempty"`

	// Services lists every contributing service, in arrival order.
	Services []string `json:"services"`
	// Score is the accumulated weighted positional score.
	Score float64 `json:"score"`
}

// ContributedBy reports whether the named service contributed to this entry.
func (m *Merged) ContributedBy(service string) bool {
	for _, s := range m.Services {
		if s == service {
			return true
		}
	}
	return false
}

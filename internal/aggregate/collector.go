// Package aggregate merges heterogeneous partial result sets into one
// deduplicated, scored, ordered list. The collector is fed concurrently by
// dispatch units; synchronization is sharded by dedup key so parallel
// deliveries rarely contend.
package aggregate

import (
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/polyseek/polyseek/internal/domain/result"
)

const shardCount = 32

// entry tracks one merged result plus its insertion sequence for stable
// tie-breaking.
type entry struct {
	merged *result.Merged
	seq    int64
}

type shard struct {
	mu    sync.Mutex
	byKey map[string]*entry
}

// Collector accumulates partial results for one request.
type Collector struct {
	score ScoreFunc
	seq   atomic.Int64

	shards [shardCount]shard

	sideMu      sync.Mutex
	answers     map[string]*result.Merged
	answerOrder []*result.Merged
	suggestions map[string]bool
	suggOrder   []string
	corrections map[string]bool
	corrOrder   []string
	infoboxes   []*result.Merged
}

// NewCollector creates a collector. score nil selects DefaultScore.
func NewCollector(score ScoreFunc) *Collector {
	if score == nil {
		score = DefaultScore
	}
	c := &Collector{
		score:       score,
		answers:     make(map[string]*result.Merged),
		suggestions: make(map[string]bool),
		corrections: make(map[string]bool),
	}
	for i := range c.shards {
		c.shards[i].byKey = make(map[string]*entry)
	}
	return c
}

// Add merges one service's partial results. Safe for concurrent use. Ranks
// count standard items only, in response order, 1-based.
func (c *Collector) Add(service string, weight float64, partials []result.Partial) {
	rank := 0
	for i := range partials {
		p := partials[i]
		p.Service = service
		switch p.Kind {
		case result.KindStandard:
			rank++
			p.Rank = rank
			c.addStandard(p, weight)
		case result.KindAnswer:
			c.addAnswer(p, weight)
		case result.KindSuggestion:
			c.addText(p.Text, &c.suggOrder, c.suggestions)
		case result.KindCorrection:
			c.addText(p.Text, &c.corrOrder, c.corrections)
		case result.KindInfobox:
			c.addInfobox(p)
		}
	}
}

func (c *Collector) addStandard(p result.Partial, weight float64) {
	key := NormalizeURL(p.URL)

	h := fnv.New32a()
	h.Write([]byte(key))
	s := &c.shards[h.Sum32()%shardCount]

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byKey[key]
	if !ok {
		e = &entry{
			merged: &result.Merged{URL: key},
			seq:    c.seq.Add(1),
		}
		s.byKey[key] = e
	}
	mergeFields(e.merged, p)
	if !e.merged.ContributedBy(p.Service) {
		e.merged.Services = append(e.merged.Services, p.Service)
	}
	e.merged.Score += c.score(weight, p.Rank)
}

func (c *Collector) addAnswer(p result.Partial, weight float64) {
	key := strings.ToLower(strings.TrimSpace(p.Text))
	if key == "" {
		return
	}

	c.sideMu.Lock()
	defer c.sideMu.Unlock()

	m, ok := c.answers[key]
	if !ok {
		m = &result.Merged{Text: p.Text}
		c.answers[key] = m
		c.answerOrder = append(c.answerOrder, m)
	}
	mergeFields(m, p)
	if !m.ContributedBy(p.Service) {
		m.Services = append(m.Services, p.Service)
	}
	m.Score += weight
}

func (c *Collector) addText(text string, order *[]string, seen map[string]bool) {
	key := strings.ToLower(strings.TrimSpace(text))
	if key == "" {
		return
	}
	c.sideMu.Lock()
	defer c.sideMu.Unlock()
	if !seen[key] {
		seen[key] = true
		*order = append(*order, text)
	}
}

func (c *Collector) addInfobox(p result.Partial) {
	c.sideMu.Lock()
	defer c.sideMu.Unlock()
	c.infoboxes = append(c.infoboxes, &result.Merged{
		URL:        p.URL,
		Title:      p.Title,
		Content:    p.Content,
		Attributes: p.Attributes,
		Services:   []string{p.Service},
	})
}

// mergeFields keeps the most complete optional fields: first non-empty wins.
func mergeFields(m *result.Merged, p result.Partial) {
	if m.Title == "" {
		m.Title = p.Title
	}
	if m.Content == "" {
		m.Content = p.Content
	}
	if m.Thumbnail == "" {
		m.Thumbnail = p.Thumbnail
	}
	if m.PublishedAt.IsZero() {
		m.PublishedAt = p.PublishedAt
	}
}

// Page is the finalized, paginated result set.
type Page struct {
	Results     []*result.Merged
	Answers     []*result.Merged
	Suggestions []string
	Corrections []string
	Infoboxes   []*result.Merged
	// Total is the deduplicated result count before pagination.
	Total int
}

// Finalize sorts by descending score, stable on insertion order for ties,
// and returns the requested page. Call only after all Adds have completed.
func (c *Collector) Finalize(page, pageSize int) Page {
	var entries []*entry
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		for _, e := range s.byKey {
			entries = append(entries, e)
		}
		s.mu.Unlock()
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].merged.Score != entries[j].merged.Score {
			return entries[i].merged.Score > entries[j].merged.Score
		}
		return entries[i].seq < entries[j].seq
	})

	total := len(entries)
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	results := make([]*result.Merged, 0, end-start)
	for _, e := range entries[start:end] {
		results = append(results, e.merged)
	}

	c.sideMu.Lock()
	defer c.sideMu.Unlock()
	return Page{
		Results:     results,
		Answers:     c.answerOrder,
		Suggestions: c.suggOrder,
		Corrections: c.corrOrder,
		Infoboxes:   c.infoboxes,
		Total:       total,
	}
}

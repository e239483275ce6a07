package adapter

import (
	"fmt"
	"strings"

	"github.com/polyseek/polyseek/internal/domain/query"
	"github.com/polyseek/polyseek/internal/domain/result"
	"github.com/polyseek/polyseek/internal/domain/service"
)

// Source produces results from an in-process resource.
type Source interface {
	Search(term string) []result.Partial
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(term string) []result.Partial

// Search implements Source.
func (f SourceFunc) Search(term string) []result.Partial { return f(term) }

// Offline is the zero-network adapter: BuildRequest is a no-op and results
// come synchronously from a local Source.
type Offline struct {
	source Source
}

// NewOffline creates an offline adapter.
func NewOffline(source Source) (*Offline, error) {
	if source == nil {
		return nil, fmt.Errorf("source is required")
	}
	return &Offline{source: source}, nil
}

// BuildRequest returns a nil spec: nothing to send.
func (a *Offline) BuildRequest(query.Query, service.Descriptor) (*RequestSpec, error) {
	return nil, nil
}

// ParseResponse is never reached for offline services.
func (a *Offline) ParseResponse([]byte) ([]result.Partial, error) {
	return nil, nil
}

// SearchLocal implements LocalSearcher.
func (a *Offline) SearchLocal(q query.Query) ([]result.Partial, error) {
	return a.source.Search(q.Term()), nil
}

// StaticSource is a Source backed by a fixed set of entries, matched by
// case-insensitive substring against title and content. Useful for bundled
// reference data (shortcuts, documentation snippets).
type StaticSource struct {
	entries []result.Partial
}

// NewStaticSource creates a static source from entries.
func NewStaticSource(entries []result.Partial) *StaticSource {
	return &StaticSource{entries: entries}
}

// Search implements Source.
func (s *StaticSource) Search(term string) []result.Partial {
	needle := strings.ToLower(term)
	var out []result.Partial
	for _, e := range s.entries {
		if strings.Contains(strings.ToLower(e.Title), needle) ||
			strings.Contains(strings.ToLower(e.Content), needle) {
			out = append(out, e)
		}
	}
	return out
}

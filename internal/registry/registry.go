// Package registry holds the closed set of configured upstream services:
// one (descriptor, adapter) pair per service name, built once at startup.
package registry

import (
	"fmt"
	"sort"

	"github.com/polyseek/polyseek/internal/adapter"
	"github.com/polyseek/polyseek/internal/domain"
	"github.com/polyseek/polyseek/internal/domain/query"
	"github.com/polyseek/polyseek/internal/domain/service"
)

// Entry pairs a descriptor with its adapter instance.
type Entry struct {
	Descriptor service.Descriptor
	Adapter    adapter.Adapter
}

// Registry maps service identity to its entry. Populated at startup and
// read-only afterwards; safe for concurrent reads.
type Registry struct {
	entries map[string]Entry
	aliases map[string]string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
		aliases: make(map[string]string),
	}
}

// Register adds a service. Duplicate names or aliases are rejected.
func (r *Registry) Register(d service.Descriptor, a adapter.Adapter) error {
	name := d.Name()
	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("%w: %s", domain.ErrServiceExists, name)
	}
	if alias := d.Alias(); alias != "" {
		if prev, ok := r.aliases[alias]; ok {
			return fmt.Errorf("%w: alias %q already claimed by %s", domain.ErrServiceExists, alias, prev)
		}
		r.aliases[alias] = name
	}
	r.entries[name] = Entry{Descriptor: d, Adapter: a}
	return nil
}

// Get looks a service up by name or alias.
func (r *Registry) Get(name string) (Entry, error) {
	if e, ok := r.entries[name]; ok {
		return e, nil
	}
	if full, ok := r.aliases[name]; ok {
		return r.entries[full], nil
	}
	return Entry{}, fmt.Errorf("%w: %s", domain.ErrUnknownService, name)
}

// Len returns the number of registered services.
func (r *Registry) Len() int { return len(r.entries) }

// All returns every entry, sorted by name.
func (r *Registry) All() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Descriptor.Name() < out[j].Descriptor.Name()
	})
	return out
}

// Resolve returns the candidate services for a query: the explicitly named
// services plus every service in a selected category, deduplicated, sorted by
// name. Unknown explicit names fail with ErrUnknownService; a query naming
// neither services nor categories selects everything.
func (r *Registry) Resolve(q query.Query) ([]Entry, error) {
	picked := make(map[string]Entry)

	for _, name := range q.Services() {
		e, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		picked[e.Descriptor.Name()] = e
	}

	for _, cat := range q.Categories() {
		for name, e := range r.entries {
			if e.Descriptor.InCategory(cat) {
				picked[name] = e
			}
		}
	}

	if len(q.Services()) == 0 && len(q.Categories()) == 0 {
		for name, e := range r.entries {
			picked[name] = e
		}
	}

	out := make([]Entry, 0, len(picked))
	for _, e := range picked {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Descriptor.Name() < out[j].Descriptor.Name()
	})
	return out, nil
}

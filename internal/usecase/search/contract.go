package search

import (
	"context"

	"github.com/polyseek/polyseek/internal/dispatch"
	"github.com/polyseek/polyseek/internal/domain/query"
	"github.com/polyseek/polyseek/internal/domain/result"
	"github.com/polyseek/polyseek/internal/registry"
)

// Dispatcher fans one query out to its services and feeds the sink.
type Dispatcher interface {
	Run(ctx context.Context, q query.Query, sink dispatch.Sink) (map[string]result.Timing, bool, error)
}

// ServiceResolver maps a query to its candidate services.
type ServiceResolver interface {
	Resolve(q query.Query) ([]registry.Entry, error)
}

// HealthReader exposes the tracker state the service reports as metrics.
type HealthReader interface {
	SuspendedCount() int
}

// ResultCache stores finalized envelopes. Implementations never fail the
// search: a broken backend reads as a miss and swallows writes.
type ResultCache interface {
	Key(q query.Query, services []string) string
	Get(ctx context.Context, key string) (*result.Envelope, bool)
	Put(ctx context.Context, key string, env *result.Envelope)
}

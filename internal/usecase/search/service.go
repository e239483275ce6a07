// Package search orchestrates one metasearch request end to end: cache
// consult, concurrent dispatch, aggregation, plugin post-processing and the
// final response envelope.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/polyseek/polyseek/internal/aggregate"
	"github.com/polyseek/polyseek/internal/domain"
	"github.com/polyseek/polyseek/internal/domain/query"
	"github.com/polyseek/polyseek/internal/domain/result"
	"github.com/polyseek/polyseek/internal/logger"
	"github.com/polyseek/polyseek/internal/metrics"
	"github.com/polyseek/polyseek/internal/plugin"
	"github.com/polyseek/polyseek/internal/registry"
)

// Service runs searches. Safe for concurrent use.
type Service struct {
	resolver ServiceResolver
	dispatch Dispatcher
	health   HealthReader
	cache    ResultCache // nil disables caching
	plugins  *plugin.Chain
	score    aggregate.ScoreFunc

	// strict turns an all-suspended or empty service selection into an
	// error instead of an empty envelope.
	strict bool
}

// Option configures a Service.
type Option func(*Service)

// WithCache installs a result cache.
func WithCache(c ResultCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithPlugins installs the post-processing chain.
func WithPlugins(ch *plugin.Chain) Option {
	return func(s *Service) { s.plugins = ch }
}

// WithScore overrides the default score function.
func WithScore(f aggregate.ScoreFunc) Option {
	return func(s *Service) { s.score = f }
}

// WithStrict makes a zero-eligible-services request fail with
// domain.ErrNoServices.
func WithStrict(strict bool) Option {
	return func(s *Service) { s.strict = strict }
}

// New creates a search service.
func New(resolver ServiceResolver, d Dispatcher, health HealthReader, opts ...Option) *Service {
	s := &Service{
		resolver: resolver,
		dispatch: d,
		health:   health,
		plugins:  plugin.NewChain(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search executes one query and returns the finalized envelope. The envelope
// is complete even when individual services failed; per-service outcomes are
// in Statuses. Only caller misuse (unknown service names, strict mode with
// nothing eligible) returns an error.
func (s *Service) Search(ctx context.Context, q query.Query) (*result.Envelope, error) {
	start := time.Now()
	requestID := uuid.NewString()

	ctx, log := logger.With(ctx, zap.String("request_id", requestID))

	candidates, err := s.resolver.Resolve(q)
	if err != nil {
		return nil, fmt.Errorf("resolve services: %w", err)
	}
	names := make([]string, 0, len(candidates))
	for _, e := range candidates {
		names = append(names, e.Descriptor.Name())
	}

	var cacheKey string
	if s.cache != nil {
		cacheKey = s.cache.Key(q, names)
		if env, ok := s.cache.Get(ctx, cacheKey); ok {
			env.RequestID = requestID
			env.Elapsed = time.Since(start)
			log.Debug("served from cache", zap.Int("results", env.TotalResults))
			return env, nil
		}
	}

	collector := aggregate.NewCollector(s.score)
	statuses, noneEligible, err := s.dispatch.Run(ctx, q, collector)
	if err != nil {
		return nil, err
	}
	if noneEligible && s.strict {
		return nil, fmt.Errorf("%w: all candidates suspended or none selected", domain.ErrNoServices)
	}

	page := collector.Finalize(q.Page(), q.PageSize())
	env := &result.Envelope{
		RequestID:    requestID,
		Results:      page.Results,
		Answers:      page.Answers,
		Suggestions:  page.Suggestions,
		Corrections:  page.Corrections,
		Infoboxes:    page.Infoboxes,
		Statuses:     statuses,
		TotalResults: page.Total,
		NoServices:   noneEligible,
	}

	if s.plugins.Len() > 0 {
		s.plugins.Apply(ctx, env)
		dedupResults(env)
	}

	metrics.SuspendedServices.Set(float64(s.health.SuspendedCount()))

	if s.cache != nil && env.Succeeded() > 0 {
		s.cache.Put(ctx, cacheKey, env)
	}

	env.Elapsed = time.Since(start)
	log.Info("search completed",
		zap.Int("results", env.TotalResults),
		zap.Int("services_ok", env.Succeeded()),
		zap.Duration("elapsed", env.Elapsed),
	)
	return env, nil
}

// dedupResults re-asserts URL uniqueness after plugins ran: a plugin that
// inserts entries must not reintroduce duplicates. First occurrence wins.
func dedupResults(env *result.Envelope) {
	seen := make(map[string]bool, len(env.Results))
	kept := env.Results[:0]
	for _, m := range env.Results {
		key := aggregate.NormalizeURL(m.URL)
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, m)
	}
	env.Results = kept
}

var _ ServiceResolver = (*registry.Registry)(nil)

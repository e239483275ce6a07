// Package plugin defines the post-processing hook applied to a response
// envelope after aggregation completes and before it is returned to the
// caller. Plugins may add, remove or reorder entries; the engine re-asserts
// the dedup invariant afterwards.
package plugin

import (
	"context"

	"go.uber.org/zap"

	"github.com/polyseek/polyseek/internal/domain/result"
	"github.com/polyseek/polyseek/internal/logger"
)

// Plugin edits an envelope in place.
type Plugin interface {
	Name() string
	Process(ctx context.Context, env *result.Envelope) error
}

// Chain applies plugins in order. A failing plugin is logged and skipped;
// plugin failures never abort the search.
type Chain struct {
	plugins []Plugin
}

// NewChain creates a chain.
func NewChain(plugins ...Plugin) *Chain {
	return &Chain{plugins: plugins}
}

// Apply runs every plugin against env.
func (c *Chain) Apply(ctx context.Context, env *result.Envelope) {
	log := logger.FromContext(ctx)
	for _, p := range c.plugins {
		if err := p.Process(ctx, env); err != nil {
			log.Warn("plugin failed", zap.String("plugin", p.Name()), zap.Error(err))
		}
	}
}

// Len returns the number of installed plugins.
func (c *Chain) Len() int { return len(c.plugins) }

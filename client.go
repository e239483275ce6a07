// Package polyseek embeds the metasearch engine in-process: declare a set of
// upstream services, then fan queries out and get merged, deduplicated
// results back without running the HTTP server.
package polyseek

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/polyseek/polyseek/internal/config"
	"github.com/polyseek/polyseek/internal/db"
	dbRedis "github.com/polyseek/polyseek/internal/db/redis"
	dbValkey "github.com/polyseek/polyseek/internal/db/valkey"
	"github.com/polyseek/polyseek/internal/dispatch"
	"github.com/polyseek/polyseek/internal/domain/service"
	"github.com/polyseek/polyseek/internal/health"
	"github.com/polyseek/polyseek/internal/registry"
	"github.com/polyseek/polyseek/internal/repository/searchcache"
	"github.com/polyseek/polyseek/internal/upstream"
	searchuc "github.com/polyseek/polyseek/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the polyseek SDK entry point.
type Client struct {
	store     db.Store // nil when caching is disabled
	registry  *registry.Registry
	tracker   *health.Tracker
	searchSvc *searchuc.Service
}

// New creates a Client from service declarations.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.services) == 0 {
		return nil, errors.New("polyseek: at least one service required (use WithServices)")
	}

	var store db.Store
	if len(cfg.addrs) > 0 {
		s, err := createStore(cfg)
		if err != nil {
			return nil, err
		}
		if err := s.WaitForReady(context.Background(), defaultReadinessTimeout); err != nil {
			s.Close()
			return nil, fmt.Errorf("polyseek: cache backend not ready: %w", err)
		}
		store = s
	}

	c, err := wireClient(store, cfg)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	return c, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey":
		s, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("polyseek: create valkey store: %w", err)
		}
		return s, nil
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("polyseek: create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("polyseek: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig) (*Client, error) {
	reg, err := registry.FromConfig(serviceConfigs(cfg.services))
	if err != nil {
		return nil, fmt.Errorf("polyseek: build registry: %w", err)
	}

	pool, err := upstream.NewPool(networkDescriptors(reg))
	if err != nil {
		return nil, fmt.Errorf("polyseek: build upstream clients: %w", err)
	}

	durations := health.DefaultDurations()
	if cfg.suspensions.AccessDenied > 0 {
		durations.AccessDenied = cfg.suspensions.AccessDenied
	}
	if cfg.suspensions.Captcha > 0 {
		durations.Captcha = cfg.suspensions.Captcha
	}
	if cfg.suspensions.RateLimited > 0 {
		durations.RateLimited = cfg.suspensions.RateLimited
	}
	if cfg.suspensions.Generic > 0 {
		durations.Generic = cfg.suspensions.Generic
	}
	if cfg.suspensions.Max > 0 {
		durations.Max = cfg.suspensions.Max
	}
	tracker := health.New(durations, cfg.timeoutThreshold)

	dispatcher := dispatch.New(reg, tracker, func(name string) dispatch.Exchanger {
		if c := pool.Get(name); c != nil {
			return c
		}
		return nil
	}, dispatch.Config{
		GlobalTimeout: cfg.globalTimeout,
		MaxConcurrent: cfg.maxConcurrent,
	})

	searchOpts := []searchuc.Option{searchuc.WithStrict(cfg.strict)}
	if store != nil {
		prefix := cfg.cachePrefix
		if prefix == "" {
			prefix = "polyseek:"
		}
		searchOpts = append(searchOpts,
			searchuc.WithCache(searchcache.New(store, prefix, cfg.cacheTTL)))
	}

	return &Client{
		store:     store,
		registry:  reg,
		tracker:   tracker,
		searchSvc: searchuc.New(reg, dispatcher, tracker, searchOpts...),
	}, nil
}

// Close releases the cache backend connection, if any.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

func serviceConfigs(specs []ServiceSpec) []config.ServiceConfig {
	out := make([]config.ServiceConfig, 0, len(specs))
	for _, s := range specs {
		sc := config.ServiceConfig{
			Name:       s.Name,
			Alias:      s.Alias,
			Protocol:   s.Protocol,
			URL:        s.URL,
			Method:     s.Method,
			Headers:    s.Headers,
			Categories: s.Categories,
			Weight:     s.Weight,
			TimeoutSec: int(s.Timeout / time.Second),
			Capabilities: config.CapabilitiesConfig{
				Paging:     s.Paging,
				Language:   s.Language,
				SafeSearch: s.SafeSearch,
				TimeRange:  s.TimeRange,
			},
			Network: config.NetworkConfig{
				Proxies:       s.Proxies,
				Retries:       s.Retries,
				RetryStatuses: s.RetryStatuses,
				MaxPerSecond:  s.MaxPerSecond,
			},
			Parser: config.ParserConfig{
				Type:        s.Parser.Type,
				Results:     s.Parser.Results,
				URL:         s.Parser.URL,
				Title:       s.Parser.Title,
				Content:     s.Parser.Content,
				Suggestions: s.Parser.Suggestions,
			},
		}
		if sc.Method == "" {
			sc.Method = "GET"
		}
		for _, e := range s.Entries {
			sc.Entries = append(sc.Entries, config.OfflineEntry{
				URL: e.URL, Title: e.Title, Content: e.Content,
			})
		}
		out = append(out, sc)
	}
	return out
}

func networkDescriptors(reg *registry.Registry) []service.Descriptor {
	entries := reg.All()
	out := make([]service.Descriptor, 0, len(entries))
	for _, e := range entries {
		if e.Descriptor.Protocol() == service.Offline {
			continue
		}
		out = append(out, e.Descriptor)
	}
	return out
}

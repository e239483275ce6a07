package registry

import (
	"fmt"
	"time"

	"github.com/polyseek/polyseek/internal/adapter"
	"github.com/polyseek/polyseek/internal/config"
	"github.com/polyseek/polyseek/internal/domain/result"
	"github.com/polyseek/polyseek/internal/domain/service"
)

// FromConfig builds a populated registry from service declarations. Config
// validation has already checked shape; this maps declarations onto
// descriptors and adapter instances.
func FromConfig(services []config.ServiceConfig) (*Registry, error) {
	reg := New()
	for _, sc := range services {
		d, a, err := buildEntry(sc)
		if err != nil {
			return nil, fmt.Errorf("service %s: %w", sc.Name, err)
		}
		if err := reg.Register(d, a); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func buildEntry(sc config.ServiceConfig) (service.Descriptor, adapter.Adapter, error) {
	caps := service.Capabilities{
		Paging:     sc.Capabilities.Paging,
		Language:   sc.Capabilities.Language,
		SafeSearch: sc.Capabilities.SafeSearch,
		TimeRange:  sc.Capabilities.TimeRange,
	}
	policy := service.NetworkPolicy{
		Proxies:       sc.Network.Proxies,
		Retries:       sc.Network.Retries,
		RetryStatuses: sc.Network.RetryStatuses,
		MaxPerSecond:  sc.Network.MaxPerSecond,
	}

	d, err := service.New(sc.Name, sc.Alias, service.Protocol(sc.Protocol), sc.Categories,
		time.Duration(sc.TimeoutSec)*time.Second, sc.Weight, caps, policy)
	if err != nil {
		return service.Descriptor{}, nil, err
	}

	var a adapter.Adapter
	switch d.Protocol() {
	case service.Direct:
		parser, perr := buildParser(sc.Parser)
		if perr != nil {
			return service.Descriptor{}, nil, perr
		}
		a, err = adapter.NewDirect(sc.URL, sc.Method, sc.Headers, parser)
	case service.Dictionary:
		a, err = adapter.NewDictionary(sc.URL, sc.Headers)
	case service.Currency:
		a, err = adapter.NewCurrency(sc.URL)
	case service.URLPattern:
		parser, perr := buildParser(sc.Parser)
		if perr != nil {
			return service.Descriptor{}, nil, perr
		}
		a, err = adapter.NewURLPattern(sc.URL, parser)
	case service.Offline:
		entries := make([]result.Partial, 0, len(sc.Entries))
		for _, e := range sc.Entries {
			entries = append(entries, result.Standard(e.URL, e.Title, e.Content))
		}
		a, err = adapter.NewOffline(adapter.NewStaticSource(entries))
	default:
		err = fmt.Errorf("unsupported protocol %q", sc.Protocol)
	}
	if err != nil {
		return service.Descriptor{}, nil, err
	}
	return d, a, nil
}

func buildParser(pc config.ParserConfig) (adapter.Parser, error) {
	switch pc.Type {
	case "json":
		return adapter.NewJSONParser(adapter.JSONRules{
			Results:     pc.Results,
			URL:         pc.URL,
			Title:       pc.Title,
			Content:     pc.Content,
			Suggestions: pc.Suggestions,
		})
	case "html":
		return adapter.NewHTMLParser(adapter.HTMLRules{
			Results:     pc.Results,
			URL:         pc.URL,
			Title:       pc.Title,
			Content:     pc.Content,
			Suggestions: pc.Suggestions,
		})
	default:
		return nil, fmt.Errorf("unsupported parser type %q", pc.Type)
	}
}

package registry

import (
	"testing"

	"github.com/polyseek/polyseek/internal/config"
	"github.com/polyseek/polyseek/internal/domain/service"
)

func TestFromConfig(t *testing.T) {
	services := []config.ServiceConfig{
		{
			Name:     "webfind",
			Alias:    "wf",
			Protocol: "direct",
			URL:      "https://webfind.example/search?q={query}&p={page}",
			Method:   "GET",
			Parser:   config.ParserConfig{Type: "json", Results: "items", URL: "link", Title: "name"},
			Weight:   2,
			Capabilities: config.CapabilitiesConfig{
				Paging: true,
			},
		},
		{
			Name:     "worterbuch",
			Protocol: "dictionary",
			URL:      "https://dict.example/api?from={from}&to={to}&q={query}",
		},
		{
			Name:     "shortcuts",
			Protocol: "offline",
			Entries: []config.OfflineEntry{
				{URL: "https://docs.example/install", Title: "Install guide", Content: "setup steps"},
			},
		},
	}

	reg, err := FromConfig(services)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if reg.Len() != 3 {
		t.Fatalf("Len = %d, want 3", reg.Len())
	}

	e, err := reg.Get("wf")
	if err != nil {
		t.Fatalf("Get by alias: %v", err)
	}
	if e.Descriptor.Protocol() != service.Direct {
		t.Errorf("protocol = %v, want direct", e.Descriptor.Protocol())
	}
	if e.Descriptor.Weight() != 2 {
		t.Errorf("weight = %v, want 2", e.Descriptor.Weight())
	}
}

func TestFromConfig_BadParser(t *testing.T) {
	services := []config.ServiceConfig{{
		Name:     "broken",
		Protocol: "direct",
		URL:      "https://example.com/?q={query}",
		Parser:   config.ParserConfig{Type: "json"}, // missing paths
	}}

	if _, err := FromConfig(services); err == nil {
		t.Fatal("expected error for incomplete parser rules")
	}
}

func TestFromConfig_DuplicateName(t *testing.T) {
	svc := config.ServiceConfig{
		Name:     "dup",
		Protocol: "currency",
		URL:      "https://fx.example/api",
	}

	if _, err := FromConfig([]config.ServiceConfig{svc, svc}); err == nil {
		t.Fatal("expected error for duplicate registration")
	}
}

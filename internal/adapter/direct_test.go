package adapter

import (
	"errors"
	"strings"
	"testing"

	"github.com/polyseek/polyseek/internal/domain"
	"github.com/polyseek/polyseek/internal/domain/query"
	"github.com/polyseek/polyseek/internal/domain/result"
	"github.com/polyseek/polyseek/internal/domain/service"
)

type stubParser struct {
	items []result.Partial
	err   error
}

func (p *stubParser) Parse([]byte) ([]result.Partial, error) { return p.items, p.err }

func TestDirect_BuildRequest(t *testing.T) {
	a, err := NewDirect("https://example.org/search?q={query}&p={page}&l={lang}", "", nil, &stubParser{})
	if err != nil {
		t.Fatalf("NewDirect: %v", err)
	}

	caps := service.Capabilities{Paging: true, Language: true}
	spec, err := a.BuildRequest(mustQuery(t, "cats & dogs", withLang("de"), withPage(2)), mustDescriptor(t, "ex", service.Direct, caps))
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}

	if spec.Method != "GET" {
		t.Errorf("Method = %s, want GET", spec.Method)
	}
	if want := "https://example.org/search?q=cats+%26+dogs&p=2&l=de"; spec.URL != want {
		t.Errorf("URL = %s, want %s", spec.URL, want)
	}
	if got := spec.Header.Get("Accept-Language"); got != "de" {
		t.Errorf("Accept-Language = %q, want de", got)
	}
	if spec.Header.Get("User-Agent") == "" {
		t.Error("User-Agent not set")
	}
}

func TestDirect_UnsupportedPaging(t *testing.T) {
	a, _ := NewDirect("https://example.org/?q={query}", "", nil, &stubParser{})

	_, err := a.BuildRequest(mustQuery(t, "x", withPage(3)), mustDescriptor(t, "ex", service.Direct, service.Capabilities{}))
	if !errors.Is(err, domain.ErrUnsupportedQuery) {
		t.Errorf("err = %v, want ErrUnsupportedQuery", err)
	}
}

func TestDirect_UnsupportedTimeRange(t *testing.T) {
	a, _ := NewDirect("https://example.org/?q={query}", "", nil, &stubParser{})

	_, err := a.BuildRequest(mustQuery(t, "x", withTimeRange(query.RangeWeek)), mustDescriptor(t, "ex", service.Direct, service.Capabilities{}))
	if !errors.Is(err, domain.ErrUnsupportedQuery) {
		t.Errorf("err = %v, want ErrUnsupportedQuery", err)
	}
}

func TestDirect_LanguageIgnoredWithoutCapability(t *testing.T) {
	a, _ := NewDirect("https://example.org/?q={query}&l={lang}", "", nil, &stubParser{})

	spec, err := a.BuildRequest(mustQuery(t, "x", withLang("fr")), mustDescriptor(t, "ex", service.Direct, service.Capabilities{}))
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if strings.Contains(spec.URL, "l=fr") {
		t.Errorf("URL %s carries language despite missing capability", spec.URL)
	}
}

func TestDirect_SafeSearchLevel(t *testing.T) {
	a, _ := NewDirect("https://example.org/?q={query}&safe={safesearch}", "", nil, &stubParser{})

	spec, err := a.BuildRequest(
		mustQuery(t, "x", withSafeSearch(2)),
		mustDescriptor(t, "ex", service.Direct, service.Capabilities{SafeSearch: true}),
	)
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if !strings.Contains(spec.URL, "safe=2") {
		t.Errorf("URL = %s, want safe=2", spec.URL)
	}
}

package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/polyseek/polyseek/internal/adapter"
	"github.com/polyseek/polyseek/internal/domain"
	"github.com/polyseek/polyseek/internal/domain/query"
	"github.com/polyseek/polyseek/internal/domain/result"
	"github.com/polyseek/polyseek/internal/domain/service"
	"github.com/polyseek/polyseek/internal/registry"
	"github.com/polyseek/polyseek/internal/upstream"
)

// fakeExchanger serves a canned response after an optional delay, honoring
// context cancellation like a real network call.
type fakeExchanger struct {
	delay  time.Duration
	status int
	body   []byte
	calls  atomic.Int32
}

func (f *fakeExchanger) Do(ctx context.Context, _ *adapter.RequestSpec) (*upstream.Response, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	status := f.status
	if status == 0 {
		status = 200
	}
	return &upstream.Response{Status: status, Body: f.body}, nil
}

// stubHealth records outcomes and lets tests mark services ineligible.
type stubHealth struct {
	mu         sync.Mutex
	ineligible map[string]bool
	outcomes   map[string][]domain.Outcome
}

func newStubHealth() *stubHealth {
	return &stubHealth{
		ineligible: make(map[string]bool),
		outcomes:   make(map[string][]domain.Outcome),
	}
}

func (h *stubHealth) IsEligible(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.ineligible[name]
}

func (h *stubHealth) RecordOutcome(name string, o domain.Outcome) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.outcomes[name] = append(h.outcomes[name], o)
}

func (h *stubHealth) recorded(name string) []domain.Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.outcomes[name]
}

// collectingSink gathers delivered partials per service.
type collectingSink struct {
	mu    sync.Mutex
	added map[string][]result.Partial
}

func newCollectingSink() *collectingSink {
	return &collectingSink{added: make(map[string][]result.Partial)}
}

func (s *collectingSink) Add(name string, _ float64, partials []result.Partial) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.added[name] = append(s.added[name], partials...)
}

func (s *collectingSink) got(name string) []result.Partial {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.added[name]
}

const okJSON = `{"items": [{"url": "https://x.com/1", "title": "one"}]}`

func jsonAdapter(t *testing.T) adapter.Adapter {
	t.Helper()
	parser, err := adapter.NewJSONParser(adapter.JSONRules{Results: "items", URL: "url", Title: "title"})
	if err != nil {
		t.Fatalf("NewJSONParser: %v", err)
	}
	a, err := adapter.NewDirect("https://up.example/?q={query}", "", nil, parser)
	if err != nil {
		t.Fatalf("NewDirect: %v", err)
	}
	return a
}

// testHarness wires a registry of direct services to fake exchangers.
type testHarness struct {
	reg       *registry.Registry
	health    *stubHealth
	sink      *collectingSink
	exchanger map[string]*fakeExchanger
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	return &testHarness{
		reg:       registry.New(),
		health:    newStubHealth(),
		sink:      newCollectingSink(),
		exchanger: make(map[string]*fakeExchanger),
	}
}

func (h *testHarness) addService(t *testing.T, name string, timeout time.Duration, ex *fakeExchanger) {
	t.Helper()
	d, err := service.New(name, "", service.Direct, []string{"general"}, timeout, 1,
		service.Capabilities{}, service.NetworkPolicy{})
	if err != nil {
		t.Fatalf("service.New: %v", err)
	}
	if err := h.reg.Register(d, jsonAdapter(t)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	h.exchanger[name] = ex
}

func (h *testHarness) dispatcher(cfg Config) *Dispatcher {
	return New(h.reg, h.health, func(name string) Exchanger {
		if ex, ok := h.exchanger[name]; ok {
			return ex
		}
		return nil
	}, cfg)
}

func mustQuery(t *testing.T, term string, services []string) query.Query {
	t.Helper()
	q, err := query.New(term, nil, services, "", 0, query.RangeNone, 1, 10, 0)
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return q
}

func mustQueryWithTimeout(t *testing.T, term string, timeout time.Duration) (query.Query, error) {
	t.Helper()
	return query.New(term, nil, nil, "", 0, query.RangeNone, 1, 10, timeout)
}

// Package dispatch fans one query out to its eligible services: one
// goroutine per service under a concurrency cap, per-service and global
// deadlines, retry execution via the upstream layer, and outcome
// classification feeding the health tracker and the aggregator.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/polyseek/polyseek/internal/adapter"
	"github.com/polyseek/polyseek/internal/domain"
	"github.com/polyseek/polyseek/internal/domain/query"
	"github.com/polyseek/polyseek/internal/domain/result"
	"github.com/polyseek/polyseek/internal/domain/service"
	"github.com/polyseek/polyseek/internal/logger"
	"github.com/polyseek/polyseek/internal/metrics"
	"github.com/polyseek/polyseek/internal/registry"
	"github.com/polyseek/polyseek/internal/upstream"
)

// Sink receives each service's partial results as they complete. The
// aggregator's collector implements it.
type Sink interface {
	Add(service string, weight float64, partials []result.Partial)
}

// HealthGate is the tracker surface the dispatcher needs.
type HealthGate interface {
	IsEligible(service string) bool
	RecordOutcome(service string, outcome domain.Outcome)
}

// Exchanger performs one upstream HTTP exchange.
type Exchanger interface {
	Do(ctx context.Context, spec *adapter.RequestSpec) (*upstream.Response, error)
}

// Config bounds one dispatch run.
type Config struct {
	// GlobalTimeout is the wall-clock budget for the whole fan-out.
	GlobalTimeout time.Duration
	// MaxConcurrent caps services queried in parallel.
	MaxConcurrent int64
}

// Defaults for Config.
const (
	DefaultGlobalTimeout = 10 * time.Second
	DefaultMaxConcurrent = 32
)

// Dispatcher fans queries out. Safe for concurrent use; all per-request
// state lives in Run.
type Dispatcher struct {
	registry *registry.Registry
	health   HealthGate
	clients  func(name string) Exchanger
	cfg      Config
}

// New creates a dispatcher. clients maps a service name to its upstream
// client; it may return nil for offline services.
func New(reg *registry.Registry, health HealthGate, clients func(string) Exchanger, cfg Config) *Dispatcher {
	if cfg.GlobalTimeout <= 0 {
		cfg.GlobalTimeout = DefaultGlobalTimeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	return &Dispatcher{registry: reg, health: health, clients: clients, cfg: cfg}
}

// Run resolves the query's candidate services, drops suspended ones, queries
// the rest concurrently and feeds sink until every unit finishes or the
// global timeout elapses. It returns the per-service status map and whether
// zero services were eligible. The only returned error is caller misuse
// (an unknown explicit service name).
func (d *Dispatcher) Run(ctx context.Context, q query.Query, sink Sink) (map[string]result.Timing, bool, error) {
	candidates, err := d.registry.Resolve(q)
	if err != nil {
		return nil, false, fmt.Errorf("resolve services: %w", err)
	}

	log := logger.FromContext(ctx)

	statuses := make(map[string]result.Timing, len(candidates))
	var statusMu sync.Mutex
	setStatus := func(name string, t result.Timing) {
		statusMu.Lock()
		statuses[name] = t
		statusMu.Unlock()
		metrics.DispatchTotal.WithLabelValues(name, string(t.Status)).Inc()
		if t.Status == result.StatusOK {
			metrics.UpstreamLatency.WithLabelValues(name).Observe(t.Latency.Seconds())
			metrics.ResultsTotal.WithLabelValues(name).Add(float64(t.ResultCount))
		}
	}

	eligible := candidates[:0]
	for _, e := range candidates {
		name := e.Descriptor.Name()
		if d.health.IsEligible(name) {
			eligible = append(eligible, e)
			continue
		}
		setStatus(name, result.Timing{Status: result.StatusSuspended})
	}

	if len(eligible) == 0 {
		return statuses, true, nil
	}

	gctx, cancel := context.WithTimeout(ctx, d.cfg.GlobalTimeout)
	defer cancel()

	sem := semaphore.NewWeighted(d.cfg.MaxConcurrent)
	var wg sync.WaitGroup

	for _, e := range eligible {
		wg.Add(1)
		go func(e registry.Entry) {
			defer wg.Done()
			name := e.Descriptor.Name()

			if err := sem.Acquire(gctx, 1); err != nil {
				// Global deadline hit while queued: no request was sent, so
				// nothing is recorded against the service.
				setStatus(name, result.Timing{Status: result.StatusTimedOut})
				return
			}
			defer sem.Release(1)

			outcome, partials := d.runUnit(gctx, q, e)

			switch {
			case errors.Is(outcome.Err, domain.ErrUnsupportedQuery):
				// Excluded for this request only; not a tracker event.
				setStatus(name, result.Timing{Status: result.StatusSkipped})
			case outcome.OK():
				d.health.RecordOutcome(name, outcome)
				sink.Add(name, e.Descriptor.Weight(), partials)
				setStatus(name, result.Timing{
					Status: result.StatusOK, Latency: outcome.Latency, ResultCount: outcome.ResultCount,
				})
			case outcome.Class == domain.FailureTimeout:
				d.health.RecordOutcome(name, outcome)
				setStatus(name, result.Timing{Status: result.StatusTimedOut, Latency: outcome.Latency})
			default:
				d.health.RecordOutcome(name, outcome)
				log.Warn("service failed",
					zap.String("service", name),
					zap.String("class", string(outcome.Class)),
					zap.Error(outcome.Err),
				)
				setStatus(name, result.Timing{Status: result.StatusErrored, Latency: outcome.Latency})
			}
		}(e)
	}

	wg.Wait()
	return statuses, false, nil
}

// runUnit executes one service's unit of work and classifies the result.
// An unsupported query shape comes back as an outcome wrapping
// domain.ErrUnsupportedQuery with no failure class; the caller maps that to
// a skipped status without touching the tracker. Any other build error is a
// generic failure.
func (d *Dispatcher) runUnit(ctx context.Context, q query.Query, e registry.Entry) (domain.Outcome, []result.Partial) {
	desc := e.Descriptor
	name := desc.Name()

	timeout := effectiveTimeout(desc, q)
	uctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	spec, err := e.Adapter.BuildRequest(q, desc)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedQuery) {
			// Excluded for this request only; not a tracker event.
			return domain.Outcome{Service: name, Err: err}, nil
		}
		return domain.Failure(name, domain.FailureGeneric, time.Since(start), err), nil
	}

	if spec == nil {
		local, ok := e.Adapter.(adapter.LocalSearcher)
		if !ok {
			return domain.Failure(name, domain.FailureGeneric, time.Since(start),
				fmt.Errorf("adapter for %s returned no request and is not local", name)), nil
		}
		items, err := local.SearchLocal(q)
		if err != nil {
			return domain.Failure(name, domain.FailureGeneric, time.Since(start), err), nil
		}
		return domain.Success(name, time.Since(start), len(items)), items
	}

	client := d.clients(name)
	if client == nil {
		return domain.Failure(name, domain.FailureGeneric, time.Since(start),
			fmt.Errorf("no upstream client for %s", name)), nil
	}

	resp, err := client.Do(uctx, spec)
	latency := time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return domain.Failure(name, domain.FailureTimeout, latency, err), nil
		}
		return domain.Failure(name, domain.FailureGeneric, latency, err), nil
	}

	if class := classifyStatus(resp.Status, resp.Body); class != domain.FailureNone {
		return domain.Failure(name, class, latency,
			fmt.Errorf("upstream status %d: %w", resp.Status, classErr(class))), nil
	}

	items, err := e.Adapter.ParseResponse(resp.Body)
	if err != nil {
		return domain.Failure(name, domain.FailureGeneric, latency, err), nil
	}

	return domain.Success(name, latency, len(items)), items
}

// effectiveTimeout is the service timeout, shortened (never lengthened) by a
// per-request override.
func effectiveTimeout(d service.Descriptor, q query.Query) time.Duration {
	t := d.Timeout()
	if o := q.Timeout(); o > 0 && o < t {
		t = o
	}
	return t
}

func classErr(class domain.FailureClass) error {
	switch class {
	case domain.FailureAccessDenied:
		return domain.ErrAccessDenied
	case domain.FailureCaptcha:
		return domain.ErrCaptcha
	case domain.FailureRateLimited:
		return domain.ErrRateLimited
	default:
		return errors.New("unexpected upstream status")
	}
}

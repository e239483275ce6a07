package health

import (
	"context"

	"github.com/polyseek/polyseek/internal/version"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status  Status                 `json:"status"`
	Version string                 `json:"version"`
	Checks  map[string]CheckResult `json:"checks"`
}

// Service coordinates health checks.
type Service struct {
	cache    CachePinger
	registry RegistryReader
}

// New creates a Service. cache can be nil when the result cache is disabled.
func New(cache CachePinger, registry RegistryReader) *Service {
	return &Service{cache: cache, registry: registry}
}

// Check runs health checks against all components. An empty registry means
// the server cannot answer any query and reports unhealthy; a broken cache
// backend only degrades (searches still work, uncached).
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	if s.registry.Len() > 0 {
		checks["registry"] = CheckOK
	} else {
		checks["registry"] = CheckError
		status = Unhealthy
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks["cache"] = CheckError
			if status == Healthy {
				status = Degraded
			}
		} else {
			checks["cache"] = CheckOK
		}
	}

	return Report{Status: status, Version: version.String(), Checks: checks}
}

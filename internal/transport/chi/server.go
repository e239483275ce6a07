// Package chi is the HTTP transport: hand-written handlers over the search
// usecase, error-code mapping for domain sentinels, and the Prometheus
// endpoint.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/polyseek/polyseek/internal/domain"
	"github.com/polyseek/polyseek/internal/domain/query"
	"github.com/polyseek/polyseek/internal/registry"
	healthuc "github.com/polyseek/polyseek/internal/usecase/health"
	searchuc "github.com/polyseek/polyseek/internal/usecase/search"
)

// Error codes returned in the response body.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeUnknownService   = "unknown_service"
	codeNoServices       = "no_services"
	codeInternalError    = "internal_error"
)

// errorResponse is the uniform error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// SuspensionReader exposes the health tracker state shown on the service
// listing.
type SuspensionReader interface {
	Suspension(service string) (time.Time, domain.FailureClass, bool)
}

// Server serves the search API.
type Server struct {
	search        *searchuc.Service
	registry      *registry.Registry
	suspensions   SuspensionReader
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	reg *registry.Registry,
	suspensions SuspensionReader,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:      search,
		registry:    reg,
		suspensions: suspensions,
		health:      health,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrUnknownService, http.StatusBadRequest, codeUnknownService),
		sentinelHandler(domain.ErrNoServices, http.StatusServiceUnavailable, codeNoServices),
	}
	return s
}

// Mount attaches all routes to the router.
func (s *Server) Mount(r chi.Router) {
	r.Post("/api/v1/search", s.Search)
	r.Get("/api/v1/services", s.ListServices)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// searchRequest is the POST /api/v1/search body.
type searchRequest struct {
	Query      string   `json:"query"`
	Categories []string `json:"categories,omitempty"`
	Services   []string `json:"services,omitempty"`
	Language   string   `json:"language,omitempty"`
	SafeSearch int      `json:"safe_search,omitempty"`
	TimeRange  string   `json:"time_range,omitempty"`
	Page       int      `json:"page,omitempty"`
	PageSize   int      `json:"page_size,omitempty"`
	// TimeoutMs shortens per-service timeouts for this request only.
	TimeoutMs int `json:"timeout_ms,omitempty"`
}

// Search handles POST /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	q, err := query.New(req.Query, req.Categories, req.Services, req.Language,
		req.SafeSearch, query.TimeRange(req.TimeRange), req.Page, req.PageSize,
		time.Duration(req.TimeoutMs)*time.Millisecond)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	env, err := s.search.Search(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, env)
}

// serviceInfo is one entry of the GET /api/v1/services listing.
type serviceInfo struct {
	Name       string   `json:"name"`
	Alias      string   `json:"alias,omitempty"`
	Protocol   string   `json:"protocol"`
	Categories []string `json:"categories,omitempty"`
	Weight     float64  `json:"weight"`
	TimeoutMs  int64    `json:"timeout_ms"`

	Suspended       bool       `json:"suspended"`
	SuspendedUntil  *time.Time `json:"suspended_until,omitempty"`
	SuspensionClass string     `json:"suspension_class,omitempty"`
}

// ListServices handles GET /api/v1/services.
func (s *Server) ListServices(w http.ResponseWriter, r *http.Request) {
	entries := s.registry.All()

	items := make([]serviceInfo, 0, len(entries))
	for _, e := range entries {
		d := e.Descriptor
		info := serviceInfo{
			Name:       d.Name(),
			Alias:      d.Alias(),
			Protocol:   d.Protocol().String(),
			Categories: d.Categories(),
			Weight:     d.Weight(),
			TimeoutMs:  d.Timeout().Milliseconds(),
		}
		if until, class, ok := s.suspensions.Suspension(d.Name()); ok {
			info.Suspended = true
			info.SuspendedUntil = &until
			info.SuspensionClass = string(class)
		}
		items = append(items, info)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrUnknownService,
		domain.ErrNoServices,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

// Package adapter normalizes heterogeneous upstream protocols into a common
// request/response contract. One implementation exists per protocol type;
// adapters are stateless and must not mutate shared state.
package adapter

import (
	"net/http"

	"github.com/polyseek/polyseek/internal/domain/query"
	"github.com/polyseek/polyseek/internal/domain/result"
	"github.com/polyseek/polyseek/internal/domain/service"
)

// RequestSpec describes one upstream HTTP request. Headers are rebuilt per
// request so connection reuse never leaks state between requests.
type RequestSpec struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Adapter converts a normalized query into an upstream request and the raw
// upstream payload back into partial results.
//
// BuildRequest returns domain.ErrUnsupportedQuery (wrapped) when the query
// lacks fields the protocol requires; such a service is skipped for this
// request only. A nil RequestSpec with a nil error means the adapter works
// offline; it must then implement LocalSearcher.
//
// ParseResponse returns domain.ErrMalformedResponse (wrapped) on structurally
// invalid payloads. Zero items with a nil error is a normal outcome.
type Adapter interface {
	BuildRequest(q query.Query, d service.Descriptor) (*RequestSpec, error)
	ParseResponse(body []byte) ([]result.Partial, error)
}

// LocalSearcher is implemented by offline adapters: results are produced
// synchronously from a local resource, no network involved.
type LocalSearcher interface {
	SearchLocal(q query.Query) ([]result.Partial, error)
}

// Parser extracts partial results from a raw upstream payload. Direct
// adapters delegate to a Parser so one adapter covers both JSON and HTML
// upstreams.
type Parser interface {
	Parse(body []byte) ([]result.Partial, error)
}

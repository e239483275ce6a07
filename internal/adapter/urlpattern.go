package adapter

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/polyseek/polyseek/internal/domain"
	"github.com/polyseek/polyseek/internal/domain/query"
	"github.com/polyseek/polyseek/internal/domain/result"
	"github.com/polyseek/polyseek/internal/domain/service"
)

var embeddedURLRe = regexp.MustCompile(`https?://[^\s]+`)

// URLPattern is the adapter for upstreams that look up a URL rather than a
// text term (archive lookups, reverse image search). The first URL embedded
// in the query term is extracted and substituted into the template.
//
// Template placeholder: {url}.
type URLPattern struct {
	urlTemplate string
	parser      Parser
}

// NewURLPattern creates a url-pattern adapter.
func NewURLPattern(urlTemplate string, parser Parser) (*URLPattern, error) {
	if urlTemplate == "" {
		return nil, fmt.Errorf("url template is required")
	}
	if parser == nil {
		return nil, fmt.Errorf("parser is required")
	}
	return &URLPattern{urlTemplate: urlTemplate, parser: parser}, nil
}

// BuildRequest extracts the embedded URL from the term.
func (a *URLPattern) BuildRequest(q query.Query, d service.Descriptor) (*RequestSpec, error) {
	target := embeddedURLRe.FindString(q.Term())
	if target == "" {
		return nil, fmt.Errorf("%w: %s needs a URL in the query", domain.ErrUnsupportedQuery, d.Name())
	}

	u := expandTemplate(a.urlTemplate, map[string]string{"url": target})

	h := http.Header{}
	h.Set("User-Agent", defaultUserAgent)
	return &RequestSpec{Method: http.MethodGet, URL: u, Header: h}, nil
}

// ParseResponse delegates to the configured payload parser.
func (a *URLPattern) ParseResponse(body []byte) ([]result.Partial, error) {
	return a.parser.Parse(body)
}

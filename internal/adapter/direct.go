package adapter

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/polyseek/polyseek/internal/domain"
	"github.com/polyseek/polyseek/internal/domain/query"
	"github.com/polyseek/polyseek/internal/domain/result"
	"github.com/polyseek/polyseek/internal/domain/service"
)

// defaultUserAgent identifies outbound requests. Some upstreams reject
// requests with no User-Agent at all.
const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:130.0) Gecko/20100101 Firefox/130.0"

// Direct is the general request/response adapter: a URL template with
// free-form paging, language and safe-search placeholders, and a pluggable
// payload parser.
//
// Template placeholders: {query}, {page}, {lang}, {safesearch}, {timerange}.
type Direct struct {
	urlTemplate string
	method      string
	headers     map[string]string
	parser      Parser
}

// NewDirect creates a direct adapter. method defaults to GET.
func NewDirect(urlTemplate, method string, headers map[string]string, parser Parser) (*Direct, error) {
	if urlTemplate == "" {
		return nil, fmt.Errorf("url template is required")
	}
	if parser == nil {
		return nil, fmt.Errorf("parser is required")
	}
	if method == "" {
		method = http.MethodGet
	}
	return &Direct{urlTemplate: urlTemplate, method: method, headers: headers, parser: parser}, nil
}

// BuildRequest expands the URL template for the query. Pages beyond the first
// and time-range filters are unsupported-query errors when the descriptor
// lacks the capability; the service is skipped for this request only.
func (a *Direct) BuildRequest(q query.Query, d service.Descriptor) (*RequestSpec, error) {
	caps := d.Caps()
	if q.Page() > 1 && !caps.Paging {
		return nil, fmt.Errorf("%w: %s does not support paging", domain.ErrUnsupportedQuery, d.Name())
	}
	if q.TimeRange() != query.RangeNone && !caps.TimeRange {
		return nil, fmt.Errorf("%w: %s does not support time ranges", domain.ErrUnsupportedQuery, d.Name())
	}

	lang := ""
	if q.HasLanguage() && caps.Language {
		lang = q.Language().String()
	}
	safe := ""
	if caps.SafeSearch {
		safe = strconv.Itoa(q.SafeSearch())
	}

	u := expandTemplate(a.urlTemplate, map[string]string{
		"query":      q.Term(),
		"page":       strconv.Itoa(q.Page()),
		"lang":       lang,
		"safesearch": safe,
		"timerange":  string(q.TimeRange()),
	})

	return &RequestSpec{Method: a.method, URL: u, Header: a.buildHeader(q)}, nil
}

func (a *Direct) buildHeader(q query.Query) http.Header {
	h := http.Header{}
	h.Set("User-Agent", defaultUserAgent)
	if q.HasLanguage() {
		h.Set("Accept-Language", q.Language().String())
	}
	for k, v := range a.headers {
		h.Set(k, v)
	}
	return h
}

// ParseResponse delegates to the configured payload parser.
func (a *Direct) ParseResponse(body []byte) ([]result.Partial, error) {
	return a.parser.Parse(body)
}

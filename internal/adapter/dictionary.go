package adapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/polyseek/polyseek/internal/domain"
	"github.com/polyseek/polyseek/internal/domain/query"
	"github.com/polyseek/polyseek/internal/domain/result"
	"github.com/polyseek/polyseek/internal/domain/service"
)

// dictTermRe matches "en-de some term": a source/target language pair
// followed by the bare term.
var dictTermRe = regexp.MustCompile(`^([a-z]{2})-([a-z]{2})\s+(.+)$`)

// Dictionary is the adapter for translation upstreams. The query term must
// carry a language pair marker ("en-de horse"); the marker is stripped before
// the term is sent upstream.
//
// Template placeholders: {from}, {to}, {term}.
type Dictionary struct {
	urlTemplate string
	headers     map[string]string
}

// NewDictionary creates a dictionary adapter.
func NewDictionary(urlTemplate string, headers map[string]string) (*Dictionary, error) {
	if urlTemplate == "" {
		return nil, fmt.Errorf("url template is required")
	}
	return &Dictionary{urlTemplate: urlTemplate, headers: headers}, nil
}

// BuildRequest extracts the language pair and the bare term.
func (a *Dictionary) BuildRequest(q query.Query, d service.Descriptor) (*RequestSpec, error) {
	m := dictTermRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(q.Term())))
	if m == nil {
		return nil, fmt.Errorf("%w: %s needs a language pair (e.g. %q)",
			domain.ErrUnsupportedQuery, d.Name(), "en-de horse")
	}

	u := expandTemplate(a.urlTemplate, map[string]string{
		"from": m[1],
		"to":   m[2],
		"term": m[3],
	})

	h := http.Header{}
	h.Set("User-Agent", defaultUserAgent)
	for k, v := range a.headers {
		h.Set(k, v)
	}
	return &RequestSpec{Method: http.MethodGet, URL: u, Header: h}, nil
}

// dictPayload is the expected upstream shape: a list of translations.
type dictPayload struct {
	Translations []struct {
		Text       string   `json:"text"`
		Examples   []string `json:"examples"`
		Definition string   `json:"definition"`
	} `json:"translations"`
}

// ParseResponse turns translations into one answer per translation.
func (a *Dictionary) ParseResponse(body []byte) ([]result.Partial, error) {
	var payload dictPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	out := make([]result.Partial, 0, len(payload.Translations))
	for _, tr := range payload.Translations {
		if tr.Text == "" {
			continue
		}
		ans := result.Answer(tr.Text)
		ans.Content = tr.Definition
		out = append(out, ans)
	}
	return out, nil
}

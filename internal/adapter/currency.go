package adapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/polyseek/polyseek/internal/domain"
	"github.com/polyseek/polyseek/internal/domain/query"
	"github.com/polyseek/polyseek/internal/domain/result"
	"github.com/polyseek/polyseek/internal/domain/service"
)

// currencyTermRe matches "100 USD to EUR" or "12.5 eur in usd".
var currencyTermRe = regexp.MustCompile(`^([0-9]+(?:[.,][0-9]+)?)\s+([a-zA-Z]{3})\s+(?:to|in)\s+([a-zA-Z]{3})$`)

// Currency is the adapter for conversion upstreams; the query term must be a
// numeric amount with a source/target currency code pair.
//
// Template placeholders: {amount}, {from}, {to}.
type Currency struct {
	urlTemplate string
}

// NewCurrency creates a currency adapter.
func NewCurrency(urlTemplate string) (*Currency, error) {
	if urlTemplate == "" {
		return nil, fmt.Errorf("url template is required")
	}
	return &Currency{urlTemplate: urlTemplate}, nil
}

// BuildRequest extracts amount and currency pair from the term.
func (a *Currency) BuildRequest(q query.Query, d service.Descriptor) (*RequestSpec, error) {
	m := currencyTermRe.FindStringSubmatch(strings.TrimSpace(q.Term()))
	if m == nil {
		return nil, fmt.Errorf("%w: %s needs %q shaped terms",
			domain.ErrUnsupportedQuery, d.Name(), "100 USD to EUR")
	}

	amount := strings.ReplaceAll(m[1], ",", ".")
	if _, err := strconv.ParseFloat(amount, 64); err != nil {
		return nil, fmt.Errorf("%w: bad amount %q", domain.ErrUnsupportedQuery, m[1])
	}

	u := expandTemplate(a.urlTemplate, map[string]string{
		"amount": amount,
		"from":   strings.ToUpper(m[2]),
		"to":     strings.ToUpper(m[3]),
	})

	h := http.Header{}
	h.Set("User-Agent", defaultUserAgent)
	return &RequestSpec{Method: http.MethodGet, URL: u, Header: h}, nil
}

// currencyPayload is the expected upstream shape.
type currencyPayload struct {
	Amount float64 `json:"amount"`
	From   string  `json:"from"`
	To     string  `json:"to"`
	Result float64 `json:"result"`
	Rate   float64 `json:"rate"`
}

// ParseResponse turns a conversion payload into one answer.
func (a *Currency) ParseResponse(body []byte) ([]result.Partial, error) {
	var payload currencyPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if payload.Result == 0 && payload.Rate == 0 {
		return nil, nil
	}

	value := payload.Result
	if value == 0 {
		value = payload.Amount * payload.Rate
	}

	ans := result.Answer(fmt.Sprintf("%s %s = %s %s",
		trimFloat(payload.Amount), payload.From, trimFloat(value), payload.To))
	if payload.Rate != 0 {
		ans.Content = fmt.Sprintf("1 %s = %s %s", payload.From, trimFloat(payload.Rate), payload.To)
	}
	return []result.Partial{ans}, nil
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

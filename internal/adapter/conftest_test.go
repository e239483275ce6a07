package adapter

import (
	"testing"
	"time"

	"github.com/polyseek/polyseek/internal/domain/query"
	"github.com/polyseek/polyseek/internal/domain/service"
)

func mustQuery(t *testing.T, term string, opts ...func(*queryArgs)) query.Query {
	t.Helper()
	args := queryArgs{page: 1, pageSize: 10}
	for _, o := range opts {
		o(&args)
	}
	q, err := query.New(term, nil, nil, args.lang, args.safeSearch, args.timeRange, args.page, args.pageSize, 0)
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return q
}

type queryArgs struct {
	lang       string
	safeSearch int
	timeRange  query.TimeRange
	page       int
	pageSize   int
}

func withLang(lang string) func(*queryArgs)  { return func(a *queryArgs) { a.lang = lang } }
func withPage(page int) func(*queryArgs)     { return func(a *queryArgs) { a.page = page } }
func withSafeSearch(lvl int) func(*queryArgs) { return func(a *queryArgs) { a.safeSearch = lvl } }
func withTimeRange(r query.TimeRange) func(*queryArgs) {
	return func(a *queryArgs) { a.timeRange = r }
}

func mustDescriptor(t *testing.T, name string, proto service.Protocol, caps service.Capabilities) service.Descriptor {
	t.Helper()
	d, err := service.New(name, "", proto, []string{"general"}, 2*time.Second, 1, caps, service.NetworkPolicy{})
	if err != nil {
		t.Fatalf("service.New: %v", err)
	}
	return d
}

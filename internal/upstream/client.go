// Package upstream executes adapter-built requests against upstream
// services: pooled connections per service, retry with backoff on retryable
// statuses, proxy rotation between attempts and outbound rate limiting.
package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/polyseek/polyseek/internal/adapter"
	"github.com/polyseek/polyseek/internal/domain/service"
)

// maxBodyBytes caps how much of an upstream payload is read.
const maxBodyBytes = 8 << 20

// Response is one upstream HTTP exchange result.
type Response struct {
	Status int
	Body   []byte
}

// Client executes requests for one service. Transports (and therefore
// connection pools) persist across requests; request headers are rebuilt
// from the RequestSpec on every attempt so reuse never leaks one request's
// headers into another's.
type Client struct {
	httpClients []*http.Client
	policy      service.NetworkPolicy
	limiter     *rate.Limiter
	timeout     time.Duration
}

// NewClient builds a client from the service's descriptor. Each configured
// proxy gets its own transport; attempts rotate through them.
func NewClient(d service.Descriptor) (*Client, error) {
	policy := d.Policy()

	var clients []*http.Client
	if len(policy.Proxies) == 0 {
		clients = []*http.Client{{Transport: newTransport(nil)}}
	} else {
		for _, p := range policy.Proxies {
			u, err := url.Parse(p)
			if err != nil {
				return nil, fmt.Errorf("service %s: bad proxy %q: %w", d.Name(), p, err)
			}
			clients = append(clients, &http.Client{Transport: newTransport(u)})
		}
	}

	var limiter *rate.Limiter
	if policy.MaxPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(policy.MaxPerSecond), 1)
	}

	return &Client{
		httpClients: clients,
		policy:      policy,
		limiter:     limiter,
		timeout:     d.Timeout(),
	}, nil
}

func newTransport(proxy *url.URL) *http.Transport {
	t := &http.Transport{
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	if proxy != nil {
		t.Proxy = http.ProxyURL(proxy)
	}
	return t
}

// Do performs the exchange described by spec under ctx, retrying up to the
// policy's count on statuses matched by the retry predicate and rotating the
// proxy between attempts. Transport-level failures are terminal; only
// retryable statuses retry.
func (c *Client) Do(ctx context.Context, spec *adapter.RequestSpec) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = 2 * time.Second

	var resp *Response
	for attempt := 0; ; attempt++ {
		var err error
		resp, err = c.attempt(ctx, spec, attempt)
		if err != nil {
			return nil, err
		}
		if attempt >= c.policy.Retries || !c.policy.Retryable(resp.Status) {
			return resp, nil
		}

		select {
		case <-time.After(bo.NextBackOff()):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (c *Client) attempt(ctx context.Context, spec *adapter.RequestSpec, n int) (*Response, error) {
	var body io.Reader
	if len(spec.Body) > 0 {
		body = bytes.NewReader(spec.Body)
	}

	req, err := http.NewRequestWithContext(ctx, spec.Method, spec.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header = spec.Header.Clone()

	hc := c.httpClients[n%len(c.httpClients)]
	httpResp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer httpResp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &Response{Status: httpResp.StatusCode, Body: payload}, nil
}

// Pool owns one Client per service, created lazily from descriptors and
// reused across requests.
type Pool struct {
	clients map[string]*Client
}

// NewPool builds clients for every descriptor up front.
func NewPool(descriptors []service.Descriptor) (*Pool, error) {
	p := &Pool{clients: make(map[string]*Client, len(descriptors))}
	for _, d := range descriptors {
		c, err := NewClient(d)
		if err != nil {
			return nil, err
		}
		p.clients[d.Name()] = c
	}
	return p, nil
}

// Get returns the client for a service name, or nil when unknown.
func (p *Pool) Get(name string) *Client { return p.clients[name] }

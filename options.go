package polyseek

import (
	"time"
)

// clientConfig collects functional-option state before wiring.
type clientConfig struct {
	driver   string
	addrs    []string
	password string

	cachePrefix string
	cacheTTL    time.Duration

	globalTimeout    time.Duration
	maxConcurrent    int64
	timeoutThreshold int
	strict           bool

	suspensions SuspensionPolicy

	services []ServiceSpec
}

// Option configures the embedded client.
type Option func(*clientConfig)

// WithValkey connects the result cache to a Valkey backend.
func WithValkey(addr, password string) Option {
	return func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithRedis connects the result cache to a Redis backend.
func WithRedis(addr, password string) Option {
	return func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithCache tunes the result cache entry lifetime and key prefix. Only
// effective together with WithValkey or WithRedis.
func WithCache(prefix string, ttl time.Duration) Option {
	return func(c *clientConfig) {
		c.cachePrefix = prefix
		c.cacheTTL = ttl
	}
}

// WithGlobalTimeout bounds the whole fan-out of one search.
func WithGlobalTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.globalTimeout = d }
}

// WithMaxConcurrent caps services queried in parallel.
func WithMaxConcurrent(n int) Option {
	return func(c *clientConfig) { c.maxConcurrent = int64(n) }
}

// WithTimeoutThreshold sets how many consecutive timeouts suspend a service.
func WithTimeoutThreshold(n int) Option {
	return func(c *clientConfig) { c.timeoutThreshold = n }
}

// WithStrict makes a search fail when zero services are eligible instead of
// returning an empty response.
func WithStrict() Option {
	return func(c *clientConfig) { c.strict = true }
}

// WithSuspensions overrides the per-failure-class suspension durations.
func WithSuspensions(p SuspensionPolicy) Option {
	return func(c *clientConfig) { c.suspensions = p }
}

// WithServices declares the upstream services. At least one is required.
func WithServices(specs ...ServiceSpec) Option {
	return func(c *clientConfig) { c.services = append(c.services, specs...) }
}

// SuspensionPolicy holds base suspension durations per failure class. Zero
// fields keep their defaults.
type SuspensionPolicy struct {
	AccessDenied time.Duration
	Captcha      time.Duration
	RateLimited  time.Duration
	Generic      time.Duration
	Max          time.Duration
}

// ServiceSpec declares one upstream service for the embedded client. It
// mirrors the YAML service declaration of the server configuration.
type ServiceSpec struct {
	Name       string
	Alias      string
	Protocol   string // direct, dictionary, currency, urlpattern, offline
	URL        string // request template
	Method     string
	Headers    map[string]string
	Categories []string
	Weight     float64
	Timeout    time.Duration

	Paging     bool
	Language   bool
	SafeSearch bool
	TimeRange  bool

	Proxies       []string
	Retries       int
	RetryStatuses []int
	MaxPerSecond  float64

	Parser  ParserSpec
	Entries []OfflineEntry // offline protocol only
}

// ParserSpec configures the response parser for direct and urlpattern
// services. JSON fields are dot-separated paths, HTML fields are CSS
// selectors.
type ParserSpec struct {
	Type        string // json, html
	Results     string
	URL         string
	Title       string
	Content     string
	Suggestions string
}

// OfflineEntry is one bundled record served by an offline service.
type OfflineEntry struct {
	URL     string
	Title   string
	Content string
}

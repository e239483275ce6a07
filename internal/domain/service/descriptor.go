package service

import (
	"fmt"
	"time"
)

// Timeout limits for descriptors.
const (
	// DefaultTimeout applies when a descriptor does not set one.
	DefaultTimeout = 3 * time.Second
	// MaxTimeout caps any per-service timeout.
	MaxTimeout = 30 * time.Second
)

// Capabilities are the optional query features an upstream understands.
type Capabilities struct {
	Paging     bool
	Language   bool
	SafeSearch bool
	TimeRange  bool
}

// NetworkPolicy controls how requests to one upstream are executed.
type NetworkPolicy struct {
	// Proxies are rotated between retry attempts. Empty means direct egress.
	Proxies []string
	// Retries is the number of additional attempts after the first.
	Retries int
	// RetryStatuses are the HTTP statuses worth retrying.
	RetryStatuses []int
	// MaxPerSecond throttles outbound requests to this upstream. 0 = unlimited.
	MaxPerSecond float64
}

// Retryable reports whether an HTTP status matches the retry predicate.
func (p NetworkPolicy) Retryable(status int) bool {
	for _, s := range p.RetryStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Descriptor is the static configuration of one upstream service.
// Immutable after construction; shared read-only across dispatches.
type Descriptor struct {
	name       string
	alias      string
	protocol   Protocol
	categories []string
	timeout    time.Duration
	weight     float64
	caps       Capabilities
	policy     NetworkPolicy
}

// New validates and builds a Descriptor.
// Defaults: timeout 3s, weight 1. Timeout is clamped to MaxTimeout.
func New(
	name, alias string,
	protocol Protocol,
	categories []string,
	timeout time.Duration,
	weight float64,
	caps Capabilities,
	policy NetworkPolicy,
) (Descriptor, error) {
	if name == "" {
		return Descriptor{}, fmt.Errorf("service name is required")
	}
	if !protocol.IsValid() {
		return Descriptor{}, fmt.Errorf("invalid protocol %q for service %s", protocol, name)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if timeout > MaxTimeout {
		timeout = MaxTimeout
	}
	if weight <= 0 {
		weight = 1
	}
	if policy.Retries < 0 {
		return Descriptor{}, fmt.Errorf("negative retry count for service %s", name)
	}

	return Descriptor{
		name:       name,
		alias:      alias,
		protocol:   protocol,
		categories: categories,
		timeout:    timeout,
		weight:     weight,
		caps:       caps,
		policy:     policy,
	}, nil
}

// Name returns the unique service name.
func (d Descriptor) Name() string { return d.name }

// Alias returns the short bang-style alias, possibly empty.
func (d Descriptor) Alias() string { return d.alias }

// Protocol returns the protocol type.
func (d Descriptor) Protocol() Protocol { return d.protocol }

// Categories returns the category memberships.
func (d Descriptor) Categories() []string { return d.categories }

// Timeout returns the per-service timeout.
func (d Descriptor) Timeout() time.Duration { return d.timeout }

// Weight returns the result-score multiplier.
func (d Descriptor) Weight() float64 { return d.weight }

// Caps returns the capability flags.
func (d Descriptor) Caps() Capabilities { return d.caps }

// Policy returns the network policy.
func (d Descriptor) Policy() NetworkPolicy { return d.policy }

// InCategory reports whether the service belongs to the category.
func (d Descriptor) InCategory(cat string) bool {
	for _, c := range d.categories {
		if c == cat {
			return true
		}
	}
	return false
}

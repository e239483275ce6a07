package domain

import "time"

// FailureClass categorizes a terminal dispatch failure for suspension purposes.
type FailureClass string

const (
	// FailureNone marks a successful outcome.
	FailureNone FailureClass = ""
	// FailureAccessDenied is an upstream block (HTTP 403, cloudflare walls).
	FailureAccessDenied FailureClass = "access_denied"
	// FailureCaptcha is an upstream CAPTCHA challenge.
	FailureCaptcha FailureClass = "captcha"
	// FailureRateLimited is an upstream rate limit (HTTP 429).
	FailureRateLimited FailureClass = "rate_limited"
	// FailureGeneric covers malformed payloads, exhausted retries and
	// repeated timeouts.
	FailureGeneric FailureClass = "generic_error"
	// FailureTimeout is a per-unit deadline hit. Not a suspension trigger
	// on its own; the tracker folds repeated timeouts into FailureGeneric.
	FailureTimeout FailureClass = "timeout"
)

// Suspends reports whether the class triggers a suspension when recorded.
func (c FailureClass) Suspends() bool {
	switch c {
	case FailureAccessDenied, FailureCaptcha, FailureRateLimited, FailureGeneric:
		return true
	default:
		return false
	}
}

// Outcome is the result of one dispatch unit, passed across the unit-of-work
// boundary instead of an error value so the dispatcher and the health tracker
// consume the same classification.
type Outcome struct {
	Service     string
	Class       FailureClass
	Err         error
	Latency     time.Duration
	ResultCount int
}

// OK reports whether the unit succeeded (possibly with zero results).
func (o Outcome) OK() bool { return o.Class == FailureNone }

// Success builds a successful outcome.
func Success(service string, latency time.Duration, count int) Outcome {
	return Outcome{Service: service, Latency: latency, ResultCount: count}
}

// Failure builds a classified failure outcome.
func Failure(service string, class FailureClass, latency time.Duration, err error) Outcome {
	return Outcome{Service: service, Class: class, Latency: latency, Err: err}
}

package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnsupportedQuery signals a query missing fields a protocol type requires.
	ErrUnsupportedQuery = errors.New("unsupported query shape")
	// ErrMalformedResponse signals a structurally invalid upstream payload.
	ErrMalformedResponse = errors.New("malformed upstream response")
	// ErrAccessDenied signals an upstream block (403 and friends).
	ErrAccessDenied = errors.New("access denied by upstream")
	// ErrCaptcha signals an upstream CAPTCHA challenge.
	ErrCaptcha = errors.New("captcha challenge from upstream")
	// ErrRateLimited signals an upstream rate limit (429).
	ErrRateLimited = errors.New("rate limited by upstream")
	// ErrNoServices signals that a query resolved to zero known services.
	ErrNoServices = errors.New("no services resolved for query")
	// ErrUnknownService signals a service name absent from the registry.
	ErrUnknownService = errors.New("unknown service")
	// ErrServiceExists signals a duplicate service registration.
	ErrServiceExists = errors.New("service already registered")
)

// SuspendedError reports that a service is currently suspended and until when.
type SuspendedError struct {
	Service string
	Class   FailureClass
	Until   time.Time
}

func (e *SuspendedError) Error() string {
	return fmt.Sprintf("service %s suspended (%s) until %s", e.Service, e.Class, e.Until.Format(time.RFC3339))
}

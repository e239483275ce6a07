// Package health tracks per-service failure state and time-bounded
// suspensions. One record exists per service for the process lifetime;
// records synchronize individually so the dispatch fan-out never serializes
// on a global lock.
package health

import (
	"sync"
	"time"

	"github.com/polyseek/polyseek/internal/domain"
)

// Durations maps failure classes to suspension lengths.
type Durations struct {
	AccessDenied time.Duration
	Captcha      time.Duration
	RateLimited  time.Duration
	Generic      time.Duration
	// Max caps any computed suspension; values are clamped, not rejected.
	Max time.Duration
}

// DefaultDurations mirrors the usual operator defaults: long bans for blocks
// and captchas, short ones for rate limiting.
func DefaultDurations() Durations {
	return Durations{
		AccessDenied: 24 * time.Hour,
		Captcha:      24 * time.Hour,
		RateLimited:  time.Hour,
		Generic:      10 * time.Minute,
		Max:          24 * time.Hour,
	}
}

func (d Durations) base(class domain.FailureClass) time.Duration {
	switch class {
	case domain.FailureAccessDenied:
		return d.AccessDenied
	case domain.FailureCaptcha:
		return d.Captcha
	case domain.FailureRateLimited:
		return d.RateLimited
	default:
		return d.Generic
	}
}

// DefaultTimeoutThreshold is how many consecutive timeouts count as a
// generic error.
const DefaultTimeoutThreshold = 3

// record is the mutable per-service state. Mutated only under its own mutex.
type record struct {
	mu        sync.Mutex
	failures  int
	timeouts  int
	until     time.Time
	lastClass domain.FailureClass
}

// Tracker is the process-wide health store: service name → record.
type Tracker struct {
	mu      sync.RWMutex // guards the map only, never held across record work
	records map[string]*record

	durations        Durations
	timeoutThreshold int
	now              func() time.Time
}

// New creates a tracker. timeoutThreshold <= 0 selects the default.
func New(durations Durations, timeoutThreshold int) *Tracker {
	if timeoutThreshold <= 0 {
		timeoutThreshold = DefaultTimeoutThreshold
	}
	return &Tracker{
		records:          make(map[string]*record),
		durations:        durations,
		timeoutThreshold: timeoutThreshold,
		now:              time.Now,
	}
}

func (t *Tracker) record(service string) *record {
	t.mu.RLock()
	r, ok := t.records[service]
	t.mu.RUnlock()
	if ok {
		return r
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if r, ok := t.records[service]; ok {
		return r
	}
	r = &record{}
	t.records[service] = r
	return r
}

// IsEligible reports whether the service may be dispatched to. A suspension
// whose deadline has passed is cleared lazily here, resetting the failure
// counter.
func (t *Tracker) IsEligible(service string) bool {
	r := t.record(service)
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.until.IsZero() {
		return true
	}
	if t.now().Before(r.until) {
		return false
	}
	// Suspended → Active
	r.until = time.Time{}
	r.failures = 0
	r.timeouts = 0
	r.lastClass = domain.FailureNone
	return true
}

// Suspension returns the active suspension deadline and class, if any.
func (t *Tracker) Suspension(service string) (time.Time, domain.FailureClass, bool) {
	r := t.record(service)
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.until.IsZero() || !t.now().Before(r.until) {
		return time.Time{}, domain.FailureNone, false
	}
	return r.until, r.lastClass, true
}

// SuspendedCount returns how many services are currently suspended.
func (t *Tracker) SuspendedCount() int {
	t.mu.RLock()
	names := make([]string, 0, len(t.records))
	for name := range t.records {
		names = append(names, name)
	}
	t.mu.RUnlock()

	n := 0
	now := t.now()
	for _, name := range names {
		r := t.record(name)
		r.mu.Lock()
		if !r.until.IsZero() && now.Before(r.until) {
			n++
		}
		r.mu.Unlock()
	}
	return n
}

// RecordOutcome updates the service's record from one dispatch outcome.
// Success resets the consecutive-failure counters without touching any
// active suspension. Timeouts suspend only past the repeated-timeout
// threshold, at which point they count as generic errors. Suspensions
// escalate with consecutive failures, are clamped to the configured maximum
// and never shorten an active suspension.
func (t *Tracker) RecordOutcome(service string, outcome domain.Outcome) {
	r := t.record(service)
	r.mu.Lock()
	defer r.mu.Unlock()

	if outcome.OK() {
		r.failures = 0
		r.timeouts = 0
		return
	}

	class := outcome.Class
	if class == domain.FailureTimeout {
		r.timeouts++
		if r.timeouts < t.timeoutThreshold {
			return
		}
		r.timeouts = 0
		class = domain.FailureGeneric
	}
	if !class.Suspends() {
		return
	}

	r.failures++
	d := t.durations.base(class) * time.Duration(r.failures)
	if d > t.durations.Max {
		d = t.durations.Max
	}

	until := t.now().Add(d)
	if until.After(r.until) {
		r.until = until
	}
	r.lastClass = class
}

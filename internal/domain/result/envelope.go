package result

import "time"

// Status is the per-service outcome recorded in the envelope.
type Status string

const (
	// StatusOK means the service answered in time (possibly with zero items).
	StatusOK Status = "ok"
	// StatusTimedOut means the unit was cancelled at its deadline.
	StatusTimedOut Status = "timed-out"
	// StatusSuspended means the service was excluded before dispatch.
	StatusSuspended Status = "suspended"
	// StatusErrored means the service failed terminally this request.
	StatusErrored Status = "errored"
	// StatusSkipped means the query shape was unsupported by the service.
	StatusSkipped Status = "skipped"
)

// Timing is the per-service observability record.
type Timing struct {
	Status      Status        `json:"status"`
	Latency     time.Duration `json:"latency"`
	ResultCount int           `json:"result_count"`
}

// Envelope is the final response for one query: the ordered deduplicated
// results plus side channels and per-service statuses. It is not mutated
// after Search returns it.
type Envelope struct {
	RequestID string `json:"request_id"`

	Results     []*Merged `json:"results"`
	Answers     []*Merged `json:"answers,omitempty"`
	Suggestions []string  `json:"suggestions,omitempty"`
	Corrections []string  `json:"corrections,omitempty"`
	Infoboxes   []*Merged `json:"infoboxes,omitempty"`

	// Statuses maps service name to its outcome for this request.
	Statuses map[string]Timing `json:"statuses"`

	// TotalResults is the deduplicated result count before pagination.
	TotalResults int `json:"total_results"`
	// NoServices is set when the query resolved to zero eligible services.
	NoServices bool `json:"no_services,omitempty"`
	// Cached is set when the envelope was served from the result cache.
	Cached bool `json:"cached,omitempty"`

	Elapsed time.Duration `json:"elapsed"`
}

// Succeeded counts services that completed with StatusOK.
func (e *Envelope) Succeeded() int {
	n := 0
	for _, t := range e.Statuses {
		if t.Status == StatusOK {
			n++
		}
	}
	return n
}

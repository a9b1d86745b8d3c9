package check

import "time"

// Kind identifies one of the five checks the ABC system exposes.
type Kind string

const (
	KindHealth   Kind = "health"
	KindUsers    Kind = "users"
	KindServices Kind = "services"
	KindLogs     Kind = "logs"
	KindMetrics  Kind = "metrics"
)

// AllKinds returns every check kind in canonical order. The returned slice
// is freshly allocated; callers may mutate it.
func AllKinds() []Kind {
	return []Kind{KindHealth, KindUsers, KindServices, KindLogs, KindMetrics}
}

// Valid reports whether k is one of the five known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindHealth, KindUsers, KindServices, KindLogs, KindMetrics:
		return true
	}
	return false
}

// LogQuery carries the sub-parameters of a logs check.
type LogQuery struct {
	Timeframe string `json:"timeframe"`
	Level     string `json:"level,omitempty"`
	Service   string `json:"service,omitempty"`
	Search    string `json:"search,omitempty"`
	Limit     int    `json:"limit"`
}

// DefaultLogQuery returns the log query used when no window or filter could
// be determined from the request.
func DefaultLogQuery() LogQuery {
	return LogQuery{Timeframe: "1h", Limit: 100}
}

// Request is the classifier's output: an ordered, non-empty set of requested
// kinds plus sub-parameters for the logs check.
type Request struct {
	Kinds []Kind
	Logs  LogQuery

	// Query is the original free-text query, carried for result reporting.
	Query string

	// Confidence is the classifier's confidence in the parsed intent,
	// in [0, 1].
	Confidence float64
}

// Wants reports whether the request includes the given kind.
func (r Request) Wants(k Kind) bool {
	for _, want := range r.Kinds {
		if want == k {
			return true
		}
	}
	return false
}

// Entry is the outcome of a single check: either a payload or a recorded
// failure reason, never both.
type Entry struct {
	Kind    Kind        `json:"kind"`
	Payload interface{} `json:"payload,omitempty"`
	Err     string      `json:"error,omitempty"`
}

// OK reports whether the check succeeded.
func (e Entry) OK() bool {
	return e.Err == ""
}

// Result is the aggregator's output. Entries holds exactly one entry per
// requested kind, in requested order.
type Result struct {
	Entries   []Entry       `json:"entries"`
	Performed int           `json:"performed"`
	Failed    int           `json:"failed"`
	Elapsed   time.Duration `json:"-"`
	ElapsedMS float64       `json:"execution_time_ms"`
	Timestamp time.Time     `json:"timestamp"`
}

// Entry returns the entry for the given kind, if present.
func (r Result) Entry(k Kind) (Entry, bool) {
	for _, e := range r.Entries {
		if e.Kind == k {
			return e, true
		}
	}
	return Entry{}, false
}

// Errors collects the recorded failure reasons, prefixed with their kind.
func (r Result) Errors() []string {
	var errs []string
	for _, e := range r.Entries {
		if !e.OK() {
			errs = append(errs, string(e.Kind)+": "+e.Err)
		}
	}
	return errs
}

package event

import (
	"maps"
	"slices"
	"time"
)

/* Event represents a captured inbound webhook request
 * Immutable after capture except for its replay history
 */
type Event struct {
	ID            string
	Source        string
	CreatedAt     time.Time
	Method        string
	Path          string
	Query         map[string]string
	Headers       map[string]string
	Body          *string
	EventType     string
	ReplayHistory []ReplayOutcome
}

// ReplayOutcome is the recorded result of one completed replay attempt
type ReplayOutcome struct {
	ReplayedAt time.Time
	TargetURL  string
	StatusCode int
	OK         bool
	DurationMs int64
}

// BodyString returns the body text, or an empty string when no body was sent
func (e Event) BodyString() string {
	if e.Body == nil {
		return ""
	}
	return *e.Body
}

// HasBody reports whether a body was captured
func (e Event) HasBody() bool {
	return e.Body != nil
}

// clone returns a deep copy so stored state never leaks to callers
func (e Event) clone() Event {
	c := e
	c.Query = maps.Clone(e.Query)
	c.Headers = maps.Clone(e.Headers)
	if e.Body != nil {
		body := *e.Body
		c.Body = &body
	}
	c.ReplayHistory = slices.Clone(e.ReplayHistory)
	return c
}

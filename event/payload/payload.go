package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

// typePattern matches hierarchical, full-stop delimited event types such as "invoice.paid"
var typePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+(\.[a-zA-Z0-9_]+)*$`)

/* Envelope is a Standard Webhooks payload
 * Many producers wrap their data this way; capture uses it to label events
 */
type Envelope struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"-"`
	Data      json.RawMessage `json:"data"`
}

// Validate checks the envelope has a well-formed type, a timestamp and JSON data
func (e Envelope) Validate() error {
	if e.Type == "" {
		return fmt.Errorf("type is required")
	}
	if !typePattern.MatchString(e.Type) {
		return fmt.Errorf("type must be hierarchical and contain only [a-zA-Z0-9_.]: %s", e.Type)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	if len(e.Data) == 0 || !json.Valid(e.Data) {
		return fmt.Errorf("data must be valid JSON")
	}
	return nil
}

// UnmarshalJSON accepts RFC 3339 timestamps with or without fractional seconds
func (e *Envelope) UnmarshalJSON(data []byte) error {
	type alias Envelope
	aux := &struct {
		Timestamp string `json:"timestamp"`
		*alias
	}{
		alias: (*alias)(e),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return fmt.Errorf("unmarshaling envelope: %w", err)
	}
	if aux.Timestamp == "" {
		return nil
	}

	ts, err := time.Parse(time.RFC3339Nano, aux.Timestamp)
	if err != nil {
		return fmt.Errorf("parsing timestamp: %w", err)
	}
	e.Timestamp = ts
	return nil
}

// Parse decodes and validates a Standard Webhooks envelope
func Parse(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, err
	}
	if err := env.Validate(); err != nil {
		return Envelope{}, fmt.Errorf("validating envelope: %w", err)
	}
	return env, nil
}

// DetectType returns the envelope type of body, or "" when body is not an envelope
func DetectType(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ""
	}
	env, err := Parse(trimmed)
	if err != nil {
		return ""
	}
	return env.Type
}

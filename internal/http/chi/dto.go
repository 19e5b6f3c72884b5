package chi

import (
	"encoding/json"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/marcelsud/hookwatch/event"
	"github.com/marcelsud/hookwatch/replay"
)

/* HTTP layer DTOs
 * Field names follow the camelCase the web inspector already consumes
 */

type eventResponse struct {
	ID            string                  `json:"id"`
	Source        string                  `json:"source"`
	CreatedAt     time.Time               `json:"createdAt"`
	Method        string                  `json:"method"`
	Path          string                  `json:"path"`
	Query         map[string]string       `json:"query"`
	Headers       map[string]string       `json:"headers"`
	Body          *string                 `json:"body"`
	EventType     string                  `json:"eventType,omitempty"`
	ReplayHistory []replayOutcomeResponse `json:"replayHistory"`
}

type replayOutcomeResponse struct {
	ReplayedAt time.Time `json:"replayedAt"`
	TargetURL  string    `json:"targetUrl"`
	StatusCode int       `json:"statusCode"`
	OK         bool      `json:"ok"`
	DurationMs int64     `json:"durationMs"`
}

type replayRequest struct {
	TargetURL              string            `json:"targetUrl"`
	Target                 string            `json:"target"`
	IncludeOriginalHeaders bool              `json:"includeOriginalHeaders"`
	AdditionalHeaders      map[string]string `json:"additionalHeaders"`
}

type replayResultResponse struct {
	replayOutcomeResponse
	Body string `json:"body"`
}

type targetResponse struct {
	Name                   string   `json:"name"`
	URL                    string   `json:"url"`
	IncludeOriginalHeaders bool     `json:"includeOriginalHeaders"`
	HeaderNames            []string `json:"headerNames"`
	Signed                 bool     `json:"signed"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func newEventResponse(ev event.Event) eventResponse {
	history := make([]replayOutcomeResponse, 0, len(ev.ReplayHistory))
	for _, o := range ev.ReplayHistory {
		history = append(history, newOutcomeResponse(o))
	}
	query := ev.Query
	if query == nil {
		query = map[string]string{}
	}
	headers := ev.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	return eventResponse{
		ID:            ev.ID,
		Source:        ev.Source,
		CreatedAt:     ev.CreatedAt,
		Method:        ev.Method,
		Path:          ev.Path,
		Query:         query,
		Headers:       headers,
		Body:          ev.Body,
		EventType:     ev.EventType,
		ReplayHistory: history,
	}
}

func newOutcomeResponse(o event.ReplayOutcome) replayOutcomeResponse {
	return replayOutcomeResponse{
		ReplayedAt: o.ReplayedAt,
		TargetURL:  o.TargetURL,
		StatusCode: o.StatusCode,
		OK:         o.OK,
		DurationMs: o.DurationMs,
	}
}

func newReplayResultResponse(res replay.Result, bodyLimit int) replayResultResponse {
	return replayResultResponse{
		replayOutcomeResponse: newOutcomeResponse(res.Outcome()),
		Body:                  truncate(res.Body, bodyLimit),
	}
}

// truncate keeps at most limit characters of s
func truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

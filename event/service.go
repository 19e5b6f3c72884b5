package event

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marcelsud/hookwatch/event/payload"
	"github.com/rs/zerolog"
)

/* Service represents the capture and query business logic
 * Uses pointer semantics as it's an API, not data
 */

// UseCase defines the operations the HTTP adapter calls for captured events
type UseCase interface {
	Capture(ctx context.Context, c Capture) (Event, error)
	List(ctx context.Context, filter Filter) []Event
	Get(ctx context.Context, id string) (Event, error)
	Count(ctx context.Context) int
	Clear(ctx context.Context)
	Stats(ctx context.Context) Stats
}

// Capture is an inbound request as seen by the ingestion adapter
type Capture struct {
	Source string
	Method string
	Path   string
	Host   string // net/http keeps Host outside the header map
	Query  url.Values
	Header http.Header
	Body   []byte
}

// ValidationError reports a capture that cannot be recorded
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

type Service struct {
	Repo      Repository
	listeners Listeners
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService creates a capture service backed by repo
func NewService(repo Repository, logger zerolog.Logger, listeners ...Listener) *Service {
	return &Service{
		Repo:      repo,
		listeners: listeners,
		logger:    logger.With().Str("component", "event-service").Logger(),
		now:       time.Now,
	}
}

// Capture normalizes an inbound request into an Event and stores it
func (s *Service) Capture(ctx context.Context, c Capture) (Event, error) {
	if strings.TrimSpace(c.Source) == "" {
		return Event{}, &ValidationError{Field: "source", Reason: "is required"}
	}
	if c.Method == "" {
		return Event{}, &ValidationError{Field: "method", Reason: "is required"}
	}

	headers := NormalizeHeaders(c.Header)
	if _, ok := headers["host"]; !ok && c.Host != "" {
		headers["host"] = c.Host
	}

	ev := Event{
		ID:        uuid.New().String(),
		Source:    c.Source,
		CreatedAt: s.now().UTC(),
		Method:    strings.ToUpper(c.Method),
		Path:      c.Path,
		Query:     NormalizeQuery(c.Query),
		Headers:   headers,
		Body:      BodyText(c.Header.Get("Content-Type"), c.Body),
		EventType: payload.DetectType(c.Body),
	}

	stored := s.Repo.Add(ev)
	s.listeners.OnCapture(ctx, stored)

	s.logger.Debug().
		Str("event_id", stored.ID).
		Str("source", stored.Source).
		Str("method", stored.Method).
		Int("body_bytes", len(c.Body)).
		Msg("webhook captured")

	return stored, nil
}

// List returns retained events matching filter, newest first
func (s *Service) List(ctx context.Context, filter Filter) []Event {
	return s.Repo.List(filter)
}

// Get returns the event with the given id or ErrNotFound
func (s *Service) Get(ctx context.Context, id string) (Event, error) {
	ev, err := s.Repo.Get(id)
	if err != nil {
		return Event{}, fmt.Errorf("getting event %s: %w", id, err)
	}
	return ev, nil
}

// Count returns the number of retained events
func (s *Service) Count(ctx context.Context) int {
	return s.Repo.Count()
}

// Clear discards the whole history
func (s *Service) Clear(ctx context.Context) {
	discarded := s.Repo.Count()
	s.Repo.Clear()
	s.logger.Info().Int("discarded", discarded).Msg("event history cleared")
}

// Stats returns a snapshot of the retained history
func (s *Service) Stats(ctx context.Context) Stats {
	return s.Repo.Stats()
}

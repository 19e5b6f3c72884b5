package replay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marcelsud/hookwatch/event"
	"github.com/marcelsud/hookwatch/signature"
	"github.com/marcelsud/hookwatch/targets"
	"github.com/rs/zerolog"
)

// UseCase defines the replay operation the HTTP adapter calls
type UseCase interface {
	Replay(ctx context.Context, id string, req Request) (Result, error)
}

// TargetResolver looks up named targets; *targets.Loader satisfies it
type TargetResolver interface {
	Get(name string) (*targets.Target, error)
}

/* Service wires lookup, dispatch and outcome recording together
 * The store is only touched before and after the dispatch, never during it
 */
type Service struct {
	Repo      event.Repository
	engine    *Engine
	targets   TargetResolver
	listeners event.Listeners
	logger    zerolog.Logger
}

// NewService creates a replay service; resolver may be nil when no targets are configured
func NewService(repo event.Repository, engine *Engine, resolver TargetResolver, logger zerolog.Logger, listeners ...event.Listener) *Service {
	return &Service{
		Repo:      repo,
		engine:    engine,
		targets:   resolver,
		listeners: listeners,
		logger:    logger.With().Str("component", "replay-service").Logger(),
	}
}

// Replay resends the captured event id and records the outcome against it
func (s *Service) Replay(ctx context.Context, id string, req Request) (Result, error) {
	ev, err := s.Repo.Get(id)
	if err != nil {
		return Result{}, fmt.Errorf("replaying event %s: %w", id, err)
	}

	req, err = s.resolve(req)
	if err != nil {
		return Result{}, fmt.Errorf("replaying event %s: %w", id, err)
	}

	result, err := s.engine.Replay(ctx, ev, req)
	if err != nil {
		var terr *TransportError
		if errors.As(err, &terr) {
			s.listeners.OnReplayFailure(ctx, ev, err)
			s.logger.Error().
				Err(err).
				Str("event_id", id).
				Str("method", ev.Method).
				Str("url", req.TargetURL).
				Bool("timeout", terr.Timeout()).
				Msg("replay dispatch failed")
		}
		return Result{}, fmt.Errorf("replaying event %s: %w", id, err)
	}

	outcome := result.Outcome()
	if _, err := s.Repo.AddReplay(id, outcome); err != nil {
		// Evicted or cleared while the replay was in flight; the caller still gets the result
		s.logger.Warn().
			Err(err).
			Str("event_id", id).
			Int("status_code", result.StatusCode).
			Msg("replay outcome not recorded")
	}
	s.listeners.OnReplay(ctx, ev, outcome)

	s.logger.Info().
		Str("event_id", id).
		Str("method", ev.Method).
		Str("url", result.TargetURL).
		Int("status_code", result.StatusCode).
		Bool("ok", result.OK).
		Int64("duration_ms", result.DurationMs).
		Msg("event replayed")

	return result, nil
}

/* resolve applies a named target
 * The target supplies the URL, default headers and signing; an explicit
 * TargetURL still overrides the target's URL and request headers win over target headers
 */
func (s *Service) resolve(req Request) (Request, error) {
	if req.Target == "" {
		return req, nil
	}
	if s.targets == nil {
		return Request{}, &ValidationError{Field: "target", Reason: "cannot be used, no targets are configured"}
	}
	target, err := s.targets.Get(req.Target)
	if err != nil {
		return Request{}, &ValidationError{Field: "target", Reason: fmt.Sprintf("%q is not configured", req.Target)}
	}

	if req.TargetURL == "" {
		req.TargetURL = target.URL
	}
	req.IncludeOriginalHeaders = req.IncludeOriginalHeaders || target.IncludeOriginalHeaders

	merged := make(map[string]string, len(target.Headers)+len(req.AdditionalHeaders))
	for k, v := range target.Headers {
		merged[strings.ToLower(k)] = v
	}
	for k, v := range req.AdditionalHeaders {
		merged[strings.ToLower(k)] = v
	}
	req.AdditionalHeaders = merged

	if target.Signed() {
		secret, err := signature.ParseSecret(target.SigningSecret)
		if err != nil {
			return Request{}, fmt.Errorf("parsing signing secret of target %s: %w", target.Name, err)
		}
		req.Signer = SecretSigner{Secret: secret}
	}
	return req, nil
}

// SecretSigner signs outbound bodies with Standard Webhooks headers
type SecretSigner struct {
	Secret signature.Secret
	Now    func() time.Time
}

// Sign returns webhook-id, webhook-timestamp and webhook-signature headers for body
func (s SecretSigner) Sign(body []byte) (map[string]string, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return signature.Headers(s.Secret, "msg_"+uuid.NewString(), now(), body)
}

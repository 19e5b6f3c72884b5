package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/marcelsud/hookwatch/event"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

/* Redis Streams publisher of event activity
 * Every capture and replay attempt is appended to one capped stream so other
 * processes can follow what the inspector sees. The in-memory store stays the
 * source of truth; nothing is ever read back into it
 */

const (
	DefaultStream = "hookwatch:events"
	DefaultMaxLen = 10000

	publishTimeout = 2 * time.Second
)

// Activity kinds written to the stream
const (
	KindCaptured     = "captured"
	KindReplayed     = "replayed"
	KindReplayFailed = "replay_failed"
)

// Activity is one stream entry
type Activity struct {
	StreamID   string    `json:"streamId"`
	Kind       string    `json:"kind"`
	EventID    string    `json:"eventId"`
	Source     string    `json:"source"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	EventType  string    `json:"eventType,omitempty"`
	TargetURL  string    `json:"targetUrl,omitempty"`
	StatusCode int       `json:"statusCode,omitempty"`
	OK         bool      `json:"ok,omitempty"`
	DurationMs int64     `json:"durationMs,omitempty"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

type Publisher struct {
	client *redis.Client
	stream string
	maxLen int64
	logger zerolog.Logger
}

// NewPublisher connects to Redis and returns a publisher writing to stream
func NewPublisher(addr, password string, db int, stream string, maxLen int64, logger zerolog.Logger) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	if stream == "" {
		stream = DefaultStream
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}

	return &Publisher{
		client: client,
		stream: stream,
		maxLen: maxLen,
		logger: logger.With().Str("component", "redis-publisher").Str("stream", stream).Logger(),
	}, nil
}

// Stream returns the stream key entries are written to
func (p *Publisher) Stream() string {
	return p.stream
}

func (p *Publisher) OnCapture(ctx context.Context, ev event.Event) {
	p.publish(ctx, KindCaptured, ev, nil)
}

func (p *Publisher) OnReplay(ctx context.Context, ev event.Event, outcome event.ReplayOutcome) {
	p.publish(ctx, KindReplayed, ev, map[string]interface{}{
		"target_url":  outcome.TargetURL,
		"status_code": outcome.StatusCode,
		"ok":          strconv.FormatBool(outcome.OK),
		"duration_ms": outcome.DurationMs,
	})
}

func (p *Publisher) OnReplayFailure(ctx context.Context, ev event.Event, err error) {
	p.publish(ctx, KindReplayFailed, ev, map[string]interface{}{
		"error": err.Error(),
	})
}

// publish never fails the caller; a Redis outage only costs stream entries
func (p *Publisher) publish(ctx context.Context, kind string, ev event.Event, extra map[string]interface{}) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	values := map[string]interface{}{
		"kind":       kind,
		"event_id":   ev.ID,
		"source":     ev.Source,
		"method":     ev.Method,
		"path":       ev.Path,
		"event_type": ev.EventType,
		"at":         time.Now().UTC().Format(time.RFC3339Nano),
	}
	for k, v := range extra {
		values[k] = v
	}

	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		p.logger.Warn().
			Err(err).
			Str("kind", kind).
			Str("event_id", ev.ID).
			Msg("publishing activity")
	}
}

// Recent returns up to count stream entries, newest first
func (p *Publisher) Recent(ctx context.Context, count int64) ([]Activity, error) {
	msgs, err := p.client.XRevRangeN(ctx, p.stream, "+", "-", count).Result()
	if err != nil {
		return nil, fmt.Errorf("reading stream %s: %w", p.stream, err)
	}

	activity := make([]Activity, 0, len(msgs))
	for _, msg := range msgs {
		activity = append(activity, parseActivity(msg))
	}
	return activity, nil
}

// Close closes the Redis connection
func (p *Publisher) Close(ctx context.Context) error {
	return p.client.Close()
}

// GetClient returns the underlying Redis client for advanced operations
func (p *Publisher) GetClient() *redis.Client {
	return p.client
}

func parseActivity(msg redis.XMessage) Activity {
	str := func(key string) string {
		s, _ := msg.Values[key].(string)
		return s
	}

	a := Activity{
		StreamID:   msg.ID,
		Kind:       str("kind"),
		EventID:    str("event_id"),
		Source:     str("source"),
		Method:     str("method"),
		Path:       str("path"),
		EventType:  str("event_type"),
		TargetURL:  str("target_url"),
		StatusCode: int(parseInt64(str("status_code"))),
		OK:         str("ok") == "true",
		DurationMs: parseInt64(str("duration_ms")),
		Error:      str("error"),
	}
	if at, err := time.Parse(time.RFC3339Nano, str("at")); err == nil {
		a.At = at
	}
	return a
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

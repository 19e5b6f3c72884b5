package redis

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActivity(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	a := parseActivity(redis.XMessage{
		ID: "1704110400000-0",
		Values: map[string]interface{}{
			"kind":        KindReplayed,
			"event_id":    "evt-1",
			"source":      "github",
			"method":      "POST",
			"path":        "/ingest/github",
			"event_type":  "",
			"target_url":  "https://example.test/hook",
			"status_code": "500",
			"ok":          "false",
			"duration_ms": "37",
			"at":          at.Format(time.RFC3339Nano),
		},
	})

	assert.Equal(t, "1704110400000-0", a.StreamID)
	assert.Equal(t, KindReplayed, a.Kind)
	assert.Equal(t, "evt-1", a.EventID)
	assert.Equal(t, 500, a.StatusCode)
	assert.False(t, a.OK)
	assert.Equal(t, int64(37), a.DurationMs)
	assert.True(t, at.Equal(a.At))
	assert.Empty(t, a.Error)
}

func TestNewPublisher_Unreachable(t *testing.T) {
	_, err := NewPublisher("127.0.0.1:1", "", 0, "", 0, zerolog.Nop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connecting to Redis")
}

//go:build integration

package redis_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/marcelsud/hookwatch/event/redis"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	testcontainersredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// RedisContainer holds the Redis testcontainer and connection details
type RedisContainer struct {
	Container *testcontainersredis.RedisContainer
	Addr      string
}

// SetupRedisContainer creates and starts a Redis testcontainer
func SetupRedisContainer(t *testing.T, ctx context.Context) (*RedisContainer, func()) {
	t.Helper()

	redisContainer, err := testcontainersredis.Run(ctx,
		"redis:7-alpine",
		testcontainersredis.WithLogLevel(testcontainersredis.LogLevelVerbose),
	)
	require.NoError(t, err, "failed to start Redis container")

	addr, err := redisContainer.ConnectionString(ctx)
	require.NoError(t, err, "failed to get Redis connection string")
	addr = strings.TrimPrefix(addr, "redis://")

	time.Sleep(1 * time.Second)

	rc := &RedisContainer{
		Container: redisContainer,
		Addr:      addr,
	}

	cleanup := func() {
		if err := redisContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Redis container: %v", err)
		}
	}

	return rc, cleanup
}

// CreateTestPublisher creates a publisher connected to the test container
func CreateTestPublisher(t *testing.T, addr, stream string, maxLen int64) *redis.Publisher {
	t.Helper()

	pub, err := redis.NewPublisher(addr, "", 0, stream, maxLen, zerolog.Nop())
	require.NoError(t, err, "failed to create Redis publisher")

	return pub
}

// StreamLen returns the number of entries in the publisher's stream
func StreamLen(t *testing.T, pub *redis.Publisher) int64 {
	t.Helper()

	n, err := pub.GetClient().XLen(context.Background(), pub.Stream()).Result()
	require.NoError(t, err)

	return n
}

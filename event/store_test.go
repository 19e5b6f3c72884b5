package event_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/marcelsud/hookwatch/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEvent(id, source, body string) event.Event {
	ev := event.Event{
		ID:        id,
		Source:    source,
		CreatedAt: time.Date(2026, 2, 6, 0, 0, 0, 0, time.UTC),
		Method:    "POST",
		Path:      "/ingest/" + source,
		Query:     map[string]string{},
		Headers:   map[string]string{},
	}
	if body != "" {
		ev.Body = &body
	}
	return ev
}

func ids(events []event.Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.ID)
	}
	return out
}

func TestStore_AddAndEvict(t *testing.T) {
	t.Run("count is min(N, C) and list keeps the newest C", func(t *testing.T) {
		for _, n := range []int{0, 1, 2, 3, 7, 12} {
			store := event.NewStore(3)
			for i := 0; i < n; i++ {
				store.Add(newEvent(fmt.Sprintf("e%d", i), "github", ""))
			}

			want := []string{}
			for i := n - 1; i >= 0 && len(want) < 3; i-- {
				want = append(want, fmt.Sprintf("e%d", i))
			}

			assert.Equal(t, min(n, 3), store.Count(), "n=%d", n)
			assert.Equal(t, want, ids(store.List(event.Filter{})), "n=%d", n)
		}
	})

	t.Run("evicts the oldest surviving event", func(t *testing.T) {
		store := event.NewStore(2)
		store.Add(newEvent("a", "github", ""))
		store.Add(newEvent("b", "github", ""))
		store.Add(newEvent("c", "github", ""))

		_, err := store.Get("a")
		assert.ErrorIs(t, err, event.ErrNotFound)

		store.Add(newEvent("d", "github", ""))
		_, err = store.Get("b")
		assert.ErrorIs(t, err, event.ErrNotFound)

		assert.Equal(t, []string{"d", "c"}, ids(store.List(event.Filter{})))
	})

	t.Run("non-positive capacity falls back to the default", func(t *testing.T) {
		store := event.NewStore(0)
		assert.Equal(t, event.DefaultCapacity, store.Capacity())
	})

	t.Run("duplicate id panics", func(t *testing.T) {
		store := event.NewStore(5)
		store.Add(newEvent("a", "github", ""))

		assert.Panics(t, func() {
			store.Add(newEvent("a", "github", ""))
		})
	})

	t.Run("an evicted id can be added again", func(t *testing.T) {
		store := event.NewStore(1)
		store.Add(newEvent("a", "github", ""))
		store.Add(newEvent("b", "github", ""))

		assert.NotPanics(t, func() {
			store.Add(newEvent("a", "github", ""))
		})
		assert.Equal(t, []string{"a"}, ids(store.List(event.Filter{})))
	})
}

func TestStore_Get(t *testing.T) {
	t.Run("missing id returns ErrNotFound", func(t *testing.T) {
		store := event.NewStore(10)

		_, err := store.Get("nonexistent")

		assert.ErrorIs(t, err, event.ErrNotFound)
	})

	t.Run("returned events are copies", func(t *testing.T) {
		store := event.NewStore(10)
		ev := newEvent("a", "github", "abc")
		ev.Headers["x-foo"] = "bar"
		store.Add(ev)

		got, err := store.Get("a")
		require.NoError(t, err)
		got.Headers["x-foo"] = "changed"
		*got.Body = "changed"

		again, err := store.Get("a")
		require.NoError(t, err)
		assert.Equal(t, "bar", again.Headers["x-foo"])
		assert.Equal(t, "abc", again.BodyString())
	})

	t.Run("mutating the added event does not reach the store", func(t *testing.T) {
		store := event.NewStore(10)
		ev := newEvent("a", "github", "")
		store.Add(ev)
		ev.Headers["x-late"] = "1"

		got, err := store.Get("a")
		require.NoError(t, err)
		assert.NotContains(t, got.Headers, "x-late")
	})
}

func TestStore_List(t *testing.T) {
	store := event.NewStore(10)
	store.Add(newEvent("1", "github", `{"event":"push"}`))
	store.Add(newEvent("2", "stripe", `{"event":"invoice.paid"}`))
	withQuery := newEvent("3", "GitHub", "")
	withQuery.Method = "GET"
	withQuery.Query = map[string]string{"delivery": "Invoice-77"}
	store.Add(withQuery)

	t.Run("source filter is exact and case-insensitive", func(t *testing.T) {
		assert.Equal(t, []string{"3", "1"}, ids(store.List(event.Filter{Source: "github"})))
		assert.Equal(t, []string{"3", "1"}, ids(store.List(event.Filter{Source: "  GITHUB "})))
		assert.Empty(t, store.List(event.Filter{Source: "git"}))
	})

	t.Run("search matches body and query", func(t *testing.T) {
		assert.Equal(t, []string{"3", "2"}, ids(store.List(event.Filter{Search: "invoice"})))
	})

	t.Run("search matches method", func(t *testing.T) {
		assert.Equal(t, []string{"2", "1"}, ids(store.List(event.Filter{Search: "POST"})))
	})

	t.Run("search matches path", func(t *testing.T) {
		assert.Equal(t, []string{"2"}, ids(store.List(event.Filter{Search: "/ingest/stripe"})))
	})

	t.Run("filters compose with AND", func(t *testing.T) {
		assert.Equal(t, []string{"3"}, ids(store.List(event.Filter{Source: "github", Search: "invoice"})))
		assert.Empty(t, store.List(event.Filter{Source: "stripe", Search: "push"}))
	})

	t.Run("blank filters are no-ops", func(t *testing.T) {
		assert.Len(t, store.List(event.Filter{Source: "   ", Search: " "}), 3)
	})
}

func TestStore_AddReplay(t *testing.T) {
	outcome := func(status int) event.ReplayOutcome {
		return event.ReplayOutcome{
			ReplayedAt: time.Now().UTC(),
			TargetURL:  "https://example.test/webhook",
			StatusCode: status,
			OK:         status >= 200 && status < 300,
		}
	}

	t.Run("newest outcome first, duplicates kept", func(t *testing.T) {
		store := event.NewStore(10)
		store.Add(newEvent("a", "github", ""))

		_, err := store.AddReplay("a", outcome(500))
		require.NoError(t, err)
		_, err = store.AddReplay("a", outcome(202))
		require.NoError(t, err)
		_, err = store.AddReplay("a", outcome(202))
		require.NoError(t, err)

		ev, err := store.Get("a")
		require.NoError(t, err)
		require.Len(t, ev.ReplayHistory, 3)
		assert.Equal(t, 202, ev.ReplayHistory[0].StatusCode)
		assert.Equal(t, 202, ev.ReplayHistory[1].StatusCode)
		assert.Equal(t, 500, ev.ReplayHistory[2].StatusCode)
	})

	t.Run("missing event returns ErrNotFound", func(t *testing.T) {
		store := event.NewStore(1)
		store.Add(newEvent("a", "github", ""))
		store.Add(newEvent("b", "github", ""))

		_, err := store.AddReplay("a", outcome(200))

		assert.ErrorIs(t, err, event.ErrNotFound)
	})

	t.Run("history limit drops the oldest outcomes", func(t *testing.T) {
		store := event.NewStore(10, event.WithReplayHistoryLimit(2))
		store.Add(newEvent("a", "github", ""))

		for _, status := range []int{500, 404, 200} {
			_, err := store.AddReplay("a", outcome(status))
			require.NoError(t, err)
		}

		ev, err := store.Get("a")
		require.NoError(t, err)
		require.Len(t, ev.ReplayHistory, 2)
		assert.Equal(t, 200, ev.ReplayHistory[0].StatusCode)
		assert.Equal(t, 404, ev.ReplayHistory[1].StatusCode)
	})

	t.Run("list does not change history", func(t *testing.T) {
		store := event.NewStore(10)
		store.Add(newEvent("a", "github", ""))
		_, err := store.AddReplay("a", outcome(200))
		require.NoError(t, err)

		listed := store.List(event.Filter{})
		listed[0].ReplayHistory[0].StatusCode = 999

		ev, err := store.Get("a")
		require.NoError(t, err)
		assert.Equal(t, 200, ev.ReplayHistory[0].StatusCode)
	})
}

func TestStore_Clear(t *testing.T) {
	store := event.NewStore(10)
	store.Add(newEvent("a", "github", ""))
	store.Add(newEvent("b", "stripe", ""))

	store.Clear()

	assert.Equal(t, 0, store.Count())
	assert.Empty(t, store.List(event.Filter{}))
	_, err := store.Get("a")
	assert.ErrorIs(t, err, event.ErrNotFound)

	store.Add(newEvent("a", "github", ""))
	assert.Equal(t, 1, store.Count())
}

func TestStore_Stats(t *testing.T) {
	store := event.NewStore(5)
	store.Add(newEvent("a", "github", ""))
	store.Add(newEvent("b", "github", ""))
	store.Add(newEvent("c", "stripe", ""))
	_, err := store.AddReplay("a", event.ReplayOutcome{StatusCode: 200, OK: true})
	require.NoError(t, err)

	stats := store.Stats()

	assert.Equal(t, 3, stats.Events)
	assert.Equal(t, 5, stats.Capacity)
	assert.Equal(t, map[string]int{"github": 2, "stripe": 1}, stats.BySource)
	assert.Equal(t, 1, stats.Replays)
}

func TestStore_Concurrent(t *testing.T) {
	store := event.NewStore(50)
	var wg sync.WaitGroup

	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				id := fmt.Sprintf("w%d-%d", w, i)
				store.Add(newEvent(id, "github", ""))
				_, _ = store.AddReplay(id, event.ReplayOutcome{StatusCode: 200, OK: true})
				_ = store.List(event.Filter{Search: "github"})
				_, _ = store.Get(id)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 50, store.Count())
	assert.Len(t, store.List(event.Filter{}), 50)
}

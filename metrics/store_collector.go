package metrics

import (
	"context"
	"time"

	"github.com/marcelsud/hookwatch/event"
)

// StoreCollector implements the Collector interface over the in-memory event store
type StoreCollector struct {
	store event.Reader
	now   func() time.Time
}

// NewStoreCollector creates a new store metrics collector
func NewStoreCollector(store event.Reader) *StoreCollector {
	return &StoreCollector{
		store: store,
		now:   time.Now,
	}
}

// Collect gathers all metrics from one store snapshot
func (c *StoreCollector) Collect(ctx context.Context) (Metrics, error) {
	stats := c.store.Stats()

	throughput, err := c.GetThroughput(ctx)
	if err != nil {
		return Metrics{}, err
	}

	return Metrics{
		Events:     stats.Events,
		Capacity:   stats.Capacity,
		BySource:   toInt64(stats.BySource),
		Replays:    int64(stats.Replays),
		Throughput: throughput,
		Timestamp:  c.now().UTC(),
	}, nil
}

// GetBySource returns the number of retained events per source
func (c *StoreCollector) GetBySource(ctx context.Context) (map[string]int64, error) {
	return toInt64(c.store.Stats().BySource), nil
}

/* GetThroughput counts retained events by capture time
 * Evicted events are gone, so under heavy traffic the windows undercount
 */
func (c *StoreCollector) GetThroughput(ctx context.Context) (ThroughputMetrics, error) {
	now := c.now()
	oneMinuteAgo := now.Add(-1 * time.Minute)
	fiveMinutesAgo := now.Add(-5 * time.Minute)
	fifteenMinutesAgo := now.Add(-15 * time.Minute)

	var tp ThroughputMetrics
	// List is newest first, so the scan stops at the first event outside the widest window
	for _, ev := range c.store.List(event.Filter{}) {
		if ev.CreatedAt.Before(fifteenMinutesAgo) {
			break
		}
		tp.LastFifteenMinutes++
		if !ev.CreatedAt.Before(fiveMinutesAgo) {
			tp.LastFiveMinutes++
			if !ev.CreatedAt.Before(oneMinuteAgo) {
				tp.LastMinute++
			}
		}
	}

	return tp, nil
}

func toInt64(counts map[string]int) map[string]int64 {
	out := make(map[string]int64, len(counts))
	for k, v := range counts {
		out[k] = int64(v)
	}
	return out
}

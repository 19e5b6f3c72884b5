package metrics

import (
	"context"
	"time"
)

// Metrics represents the current state of the inspector.
type Metrics struct {
	// Events is the number of events currently retained
	Events int `json:"events"`

	// Capacity is the maximum number of events retained
	Capacity int `json:"capacity"`

	// BySource maps source to the number of retained events from it
	BySource map[string]int64 `json:"bySource"`

	// Replays is the number of replay outcomes recorded on retained events
	Replays int64 `json:"replays"`

	// Throughput represents events captured per time window
	Throughput ThroughputMetrics `json:"throughput"`

	// Timestamp when metrics were collected
	Timestamp time.Time `json:"timestamp"`
}

// ThroughputMetrics represents retained events captured over different time windows.
type ThroughputMetrics struct {
	LastMinute         int64 `json:"lastMinute"`
	LastFiveMinutes    int64 `json:"lastFiveMinutes"`
	LastFifteenMinutes int64 `json:"lastFifteenMinutes"`
}

// Collector defines the interface for collecting metrics from the inspector.
type Collector interface {
	// Collect gathers current metrics
	Collect(ctx context.Context) (Metrics, error)

	// GetBySource returns the number of retained events per source
	GetBySource(ctx context.Context) (map[string]int64, error)

	// GetThroughput returns events captured over time windows
	GetThroughput(ctx context.Context) (ThroughputMetrics, error)
}

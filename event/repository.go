package event

import "errors"

// ErrNotFound is returned when no live event has the requested id
var ErrNotFound = errors.New("event not found")

// Filter narrows a listing; empty fields match everything
type Filter struct {
	Source string
	Search string
}

// Stats is a point-in-time snapshot of what the store retains
type Stats struct {
	Events   int
	Capacity int
	BySource map[string]int
	Replays  int
}

/* Small, focused interfaces
 * The store lives in memory, so nothing here blocks on I/O and no context is taken
 */

// Reader provides read operations for captured events
type Reader interface {
	Get(id string) (Event, error)
	List(filter Filter) []Event
	Count() int
	Stats() Stats
}

// Writer provides write operations for captured events
type Writer interface {
	/* Add stores an event as the newest entry
	 * Evicts the oldest event when capacity is exceeded
	 */
	Add(ev Event) Event
	/* AddReplay prepends an outcome to the event's replay history
	 * Returns ErrNotFound if the event was evicted or cleared meanwhile
	 */
	AddReplay(id string, outcome ReplayOutcome) (Event, error)
	Clear()
}

// Repository combines read and write access to the event history
type Repository interface {
	Reader
	Writer
}

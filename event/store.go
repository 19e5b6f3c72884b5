package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// DefaultCapacity is the number of events retained when no capacity is configured
const DefaultCapacity = 1000

/* Store is the in-memory, capacity-bounded event history
 * Events live in a ring buffer ordered by insertion, indexed by id
 * A single RWMutex guards both the ring and the index
 */
type Store struct {
	mu           sync.RWMutex
	ring         []*record
	head         int // position of the oldest event
	size         int
	byID         map[string]*record
	historyLimit int
}

type record struct {
	event      Event
	source     string // lower-cased, for exact source matching
	searchable string // lower-cased text the search filter runs against
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithReplayHistoryLimit caps the replay history kept per event; zero or less means unbounded
func WithReplayHistoryLimit(limit int) StoreOption {
	return func(s *Store) {
		if limit > 0 {
			s.historyLimit = limit
		}
	}
}

// NewStore creates an empty store holding at most capacity events
func NewStore(capacity int, opts ...StoreOption) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	s := &Store{
		ring: make([]*record, capacity),
		byID: make(map[string]*record, capacity),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Capacity returns the maximum number of events retained
func (s *Store) Capacity() int {
	return len(s.ring)
}

// Add stores ev as the newest event, evicting the oldest one if the store is full
func (s *Store) Add(ev Event) Event {
	rec := newRecord(ev.clone())

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[ev.ID]; exists {
		panic(fmt.Sprintf("event store: duplicate event id %q", ev.ID))
	}

	capacity := len(s.ring)
	if s.size < capacity {
		s.ring[(s.head+s.size)%capacity] = rec
		s.size++
	} else {
		oldest := s.ring[s.head]
		delete(s.byID, oldest.event.ID)
		s.ring[s.head] = rec
		s.head = (s.head + 1) % capacity
	}
	s.byID[ev.ID] = rec

	s.assertConsistent()
	return rec.event.clone()
}

// Get returns a copy of the event with the given id
func (s *Store) Get(id string) (Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return Event{}, ErrNotFound
	}
	return rec.event.clone(), nil
}

// List returns the events matching filter, newest first
func (s *Store) List(filter Filter) []Event {
	source := strings.ToLower(strings.TrimSpace(filter.Source))
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]Event, 0, s.size)
	s.eachNewestFirst(func(rec *record) {
		if source != "" && rec.source != source {
			return
		}
		if search != "" && !strings.Contains(rec.searchable, search) {
			return
		}
		events = append(events, rec.event.clone())
	})
	return events
}

// Count returns the number of retained events
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Clear drops every event and resets the index
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.ring)
	s.head = 0
	s.size = 0
	s.byID = make(map[string]*record, len(s.ring))
}

// AddReplay records outcome as the most recent replay of the event with the given id
func (s *Store) AddReplay(id string, outcome ReplayOutcome) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return Event{}, ErrNotFound
	}

	history := make([]ReplayOutcome, 0, len(rec.event.ReplayHistory)+1)
	history = append(history, outcome)
	history = append(history, rec.event.ReplayHistory...)
	if s.historyLimit > 0 && len(history) > s.historyLimit {
		history = history[:s.historyLimit]
	}
	rec.event.ReplayHistory = history

	return rec.event.clone(), nil
}

// Stats returns a snapshot of retained events grouped by source
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Events:   s.size,
		Capacity: len(s.ring),
		BySource: make(map[string]int),
	}
	s.eachNewestFirst(func(rec *record) {
		stats.BySource[rec.event.Source]++
		stats.Replays += len(rec.event.ReplayHistory)
	})
	return stats
}

// eachNewestFirst walks the ring from the newest to the oldest event; callers hold the lock
func (s *Store) eachNewestFirst(fn func(*record)) {
	capacity := len(s.ring)
	for i := s.size - 1; i >= 0; i-- {
		fn(s.ring[(s.head+i)%capacity])
	}
}

// assertConsistent panics when the ring and the index disagree; callers hold the write lock
func (s *Store) assertConsistent() {
	if s.size > len(s.ring) {
		panic(fmt.Sprintf("event store: size %d exceeds capacity %d", s.size, len(s.ring)))
	}
	if len(s.byID) != s.size {
		panic(fmt.Sprintf("event store: index holds %d ids for %d events", len(s.byID), s.size))
	}
}

func newRecord(ev Event) *record {
	return &record{
		event:      ev,
		source:     strings.ToLower(ev.Source),
		searchable: searchText(ev),
	}
}

// searchText joins source, method, path, body and the query as JSON
func searchText(ev Event) string {
	return strings.ToLower(strings.Join([]string{
		ev.Source,
		ev.Method,
		ev.Path,
		ev.BodyString(),
		queryJSON(ev.Query),
	}, " "))
}

func queryJSON(query map[string]string) string {
	if len(query) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(query); err != nil {
		return "{}"
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// Package store owns the canonical in-memory event set. Each mutation is a
// single atomic replace-the-set operation: readers always see either the
// prior set or the fully merged one, never a partial merge.
package store

import (
	"sync"
	"time"

	"github.com/floorwatch/floorwatch/internal/domain"
	"github.com/floorwatch/floorwatch/internal/normalize"
)

// EventStore holds the current canonical events keyed by id, last-writer-wins
// by (detectedAt, ingestedAt).
type EventStore struct {
	mu     sync.RWMutex
	events map[string]*domain.Event
}

// NewEventStore creates an empty store.
func NewEventStore() *EventStore {
	return &EventStore{events: make(map[string]*domain.Event)}
}

// Upsert merges normalized events into the set, keeping the newest per id.
// Returns how many entries were applied.
func (s *EventStore) Upsert(events []*domain.Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertLocked(events)
}

func (s *EventStore) upsertLocked(events []*domain.Event) int {
	applied := 0
	for _, ev := range events {
		if prev, ok := s.events[ev.ID]; ok && !ev.NewerThan(prev) {
			continue
		}
		s.events[ev.ID] = ev
		applied++
	}
	return applied
}

// ApplySync applies a decoded sync payload: replace mode discards the prior
// set before upserting, merge mode upserts into it, and deletions always
// apply after upserts. The whole payload applies under one lock.
func (s *EventStore) ApplySync(mode normalize.SyncMode, events []*domain.Event, deletedIDs []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mode == normalize.SyncReplace {
		s.events = make(map[string]*domain.Event, len(events))
	}
	applied := s.upsertLocked(events)
	for _, id := range deletedIDs {
		delete(s.events, id)
	}
	return applied
}

// Remove deletes events by id.
func (s *EventStore) Remove(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.events, id)
	}
}

// Get returns the event with the given id.
func (s *EventStore) Get(id string) (*domain.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	return ev, ok
}

// Len returns the current event count.
func (s *EventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Snapshot returns all events sorted newest-first. The slice is owned by the
// caller; the events themselves are shared and must not be mutated.
func (s *EventStore) Snapshot() []*domain.Event {
	s.mu.RLock()
	out := make([]*domain.Event, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev)
	}
	s.mu.RUnlock()

	normalize.SortEvents(out)
	return out
}

// Live returns unresolved events whose detection time falls within the
// recency window, sorted newest-first.
func (s *EventStore) Live(now time.Time, window time.Duration) []*domain.Event {
	cutoff := now.Add(-window).UnixMilli()

	s.mu.RLock()
	out := make([]*domain.Event, 0, len(s.events))
	for _, ev := range s.events {
		if ev.Status == domain.StatusResolved {
			continue
		}
		if ev.DetectedAt < cutoff {
			continue
		}
		out = append(out, ev)
	}
	s.mu.RUnlock()

	normalize.SortEvents(out)
	return out
}

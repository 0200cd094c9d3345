package ws

import (
	"time"
)

type EventType string

const (
	EventIngested    EventType = "event.ingested"
	EventSyncApplied EventType = "event.sync_applied"
	EventRemoved     EventType = "event.removed"
	EventAgentsTick  EventType = "agents.tick"
)

type Event struct {
	StoreID   string      `json:"-"`
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

package webhook

import (
	"time"
)

// Endpoint is one outbound webhook destination.
type Endpoint struct {
	Name    string   `json:"name"`
	URL     string   `json:"url"`
	Secret  string   `json:"-"`
	Events  []string `json:"events"`
	Enabled bool     `json:"enabled"`
}

// Subscribes reports whether the endpoint wants the event type. An empty
// subscription list means everything.
func (e *Endpoint) Subscribes(eventType string) bool {
	if len(e.Events) == 0 {
		return true
	}
	for _, ev := range e.Events {
		if ev == eventType {
			return true
		}
	}
	return false
}

// Job is a delivery awaiting retry.
type Job struct {
	Endpoint    Endpoint
	EventType   string
	Payload     []byte
	Attempts    int
	NextRetryAt time.Time
	LastError   string
}

type EventPayload struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	StoreID   string      `json:"store_id"`
	Timestamp time.Time   `json:"timestamp"`
}

package domain

import "github.com/floorwatch/floorwatch/internal/geo"

// EventType classifies a detection.
type EventType string

const (
	EventCrowd     EventType = "crowd"
	EventFall      EventType = "fall"
	EventFight     EventType = "fight"
	EventLoitering EventType = "loitering"
	EventUnknown   EventType = "unknown"
)

// EventSource identifies where a detection record came from.
type EventSource string

const (
	SourceDemo    EventSource = "demo"
	SourceCamera  EventSource = "camera"
	SourceAPI     EventSource = "api"
	SourceUnknown EventSource = "unknown"
)

// IncidentStatus is the triage state of an event.
type IncidentStatus string

const (
	StatusNew      IncidentStatus = "new"
	StatusAck      IncidentStatus = "ack"
	StatusResolved IncidentStatus = "resolved"
)

// Event is one canonical detection anchored to the floor plan. X and Y are
// normalized map coordinates in [0,1], guaranteed walkable after the snap.
// Events are replaced wholesale, never mutated in place.
type Event struct {
	ID      string `json:"id"`
	StoreID string `json:"store_id"`

	DetectedAt int64 `json:"detected_at"`
	IngestedAt int64 `json:"ingested_at"`
	LatencyMs  int64 `json:"latency_ms"`

	Type       EventType      `json:"type"`
	Severity   int            `json:"severity"`
	Confidence float64        `json:"confidence"`
	Source     EventSource    `json:"source"`
	Status     IncidentStatus `json:"incident_status"`

	ZoneID       string `json:"zone_id"`
	CameraID     string `json:"camera_id,omitempty"`
	TrackID      string `json:"track_id,omitempty"`
	ObjectLabel  string `json:"object_label,omitempty"`
	RawStatus    string `json:"raw_status,omitempty"`
	ModelVersion string `json:"model_version,omitempty"`
	Note         string `json:"note,omitempty"`

	X float64 `json:"x"`
	Y float64 `json:"y"`

	WorldXMeters *float64 `json:"world_x_meters,omitempty"`
	WorldZMeters *float64 `json:"world_z_meters,omitempty"`
}

// Position returns the event's normalized map position.
func (e *Event) Position() geo.Point {
	return geo.Pt(e.X, e.Y)
}

// NewerThan reports whether e should replace other under last-writer-wins
// ordering by (DetectedAt, IngestedAt).
func (e *Event) NewerThan(other *Event) bool {
	if e.DetectedAt != other.DetectedAt {
		return e.DetectedAt > other.DetectedAt
	}
	return e.IngestedAt > other.IngestedAt
}

// DefaultSeverity returns the severity assumed for a type when the record
// carries no parseable severity of its own.
func (t EventType) DefaultSeverity() int {
	switch t {
	case EventFall, EventFight:
		return 3
	case EventCrowd:
		return 2
	default:
		return 1
	}
}

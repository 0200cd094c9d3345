package domain

import "github.com/floorwatch/floorwatch/internal/geo"

// AgentMode is the behavioral state of a patrol agent.
type AgentMode string

const (
	ModePatrol     AgentMode = "patrol"
	ModeResponding AgentMode = "responding"
)

// Agent is one autonomous patrol robot. Position is walkable at the end of
// every tick; the simulator owns all mutation.
type Agent struct {
	ID     string    `json:"id"`
	ZoneID string    `json:"zone_id"`
	Mode   AgentMode `json:"mode"`

	Position geo.Point `json:"position"`
	Target   geo.Point `json:"target"`

	HeadingRadians float64 `json:"heading_radians"`
	Speed          float64 `json:"speed"`
	BaseSpeed      float64 `json:"base_speed"`

	AssignedEventID string `json:"assigned_event_id,omitempty"`
	StuckTicks      int    `json:"stuck_ticks"`

	// Detouring marks a temporary waypoint around a blockage; the incident
	// target is restored once the waypoint is reached.
	Detouring bool `json:"-"`
}

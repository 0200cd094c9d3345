package sim

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floorwatch/floorwatch/internal/domain"
	"github.com/floorwatch/floorwatch/internal/geo"
	"github.com/floorwatch/floorwatch/internal/world"
)

type stubEvents struct {
	events []*domain.Event
}

func (s *stubEvents) Live(time.Time, time.Duration) []*domain.Event {
	return s.events
}

func liveEvent(id string, severity int, x, y float64) *domain.Event {
	return &domain.Event{
		ID:         id,
		DetectedAt: time.Now().UnixMilli(),
		IngestedAt: time.Now().UnixMilli(),
		Severity:   severity,
		Status:     domain.StatusNew,
		X:          x,
		Y:          y,
	}
}

func simTestWorld(t *testing.T) *world.World {
	t.Helper()
	zm := &world.ZoneMapFile{
		MapWidthPx:       1000,
		MapHeightPx:      1000,
		WorldWidthMeters: 40,
		WorldDepthMeters: 40,
		Zones: []world.ZoneDef{
			{
				ZoneID:  "floor",
				Polygon: [][]float64{{0, 0}, {1000, 0}, {1000, 1000}, {0, 1000}},
				Holes: [][][]float64{
					{{600, 600}, {800, 600}, {800, 800}, {600, 800}},
				},
			},
		},
	}
	w, err := world.New(zm, nil, world.Options{})
	require.NoError(t, err)
	return w
}

func newTestSim(t *testing.T, events EventSource, cfg Config) *Simulator {
	t.Helper()
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	return New(simTestWorld(t), events, slog.Default(), cfg)
}

func TestAgentsStartWalkable(t *testing.T) {
	s := newTestSim(t, &stubEvents{}, Config{AgentCount: 8})

	for _, a := range s.Snapshot() {
		assert.False(t, s.world.Blocked(a.Position), "agent %s starts blocked", a.ID)
		assert.Equal(t, domain.ModePatrol, a.Mode)
		assert.GreaterOrEqual(t, a.Position.X, 0.0)
		assert.LessOrEqual(t, a.Position.X, 1.0)
	}
}

func TestTickMovesTowardTarget(t *testing.T) {
	s := newTestSim(t, &stubEvents{}, Config{AgentCount: 1})
	agent := s.agents[0]
	agent.Position = geo.Pt(0.2, 0.2)
	agent.Target = geo.Pt(0.4, 0.2)

	before := agent.Position.Distance(agent.Target)
	s.Tick()
	after := agent.Position.Distance(agent.Target)

	assert.Less(t, after, before)
	assert.InDelta(t, 0.0, agent.HeadingRadians, 1e-9)
}

func TestRespondsToNearbyHighSeverityEvent(t *testing.T) {
	events := &stubEvents{events: []*domain.Event{liveEvent("inc1", 3, 0.3, 0.3)}}
	s := newTestSim(t, events, Config{AgentCount: 1})
	agent := s.agents[0]
	agent.Position = geo.Pt(0.2, 0.2)
	agent.Target = geo.Pt(0.25, 0.25)

	s.Tick()

	assert.Equal(t, domain.ModeResponding, agent.Mode)
	assert.Equal(t, "inc1", agent.AssignedEventID)
	assert.Equal(t, geo.Pt(0.3, 0.3), agent.Target)
}

func TestIgnoresLowSeverityAndFarEvents(t *testing.T) {
	events := &stubEvents{events: []*domain.Event{
		liveEvent("minor", 1, 0.3, 0.3),
		liveEvent("far", 3, 0.95, 0.95),
	}}
	s := newTestSim(t, events, Config{AgentCount: 1, ReactionRadius: 0.3})
	agent := s.agents[0]
	agent.Position = geo.Pt(0.2, 0.2)
	agent.Target = geo.Pt(0.25, 0.25)

	s.Tick()

	assert.Equal(t, domain.ModePatrol, agent.Mode)
	assert.Empty(t, agent.AssignedEventID)
}

func TestScoringFavorsSeverity(t *testing.T) {
	// Equidistant events: the severity bonus must break the tie.
	events := &stubEvents{events: []*domain.Event{
		liveEvent("sev2", 2, 0.3, 0.2),
		liveEvent("sev3", 3, 0.2, 0.3),
	}}
	s := newTestSim(t, events, Config{AgentCount: 1})
	agent := s.agents[0]
	agent.Position = geo.Pt(0.2, 0.2)
	agent.Target = geo.Pt(0.22, 0.22)

	s.Tick()

	assert.Equal(t, "sev3", agent.AssignedEventID)
}

func TestStickyAssignment(t *testing.T) {
	first := liveEvent("first", 2, 0.3, 0.3)
	events := &stubEvents{events: []*domain.Event{first}}
	s := newTestSim(t, events, Config{AgentCount: 1})
	agent := s.agents[0]
	agent.Position = geo.Pt(0.2, 0.2)
	agent.Target = geo.Pt(0.25, 0.25)

	s.Tick()
	require.Equal(t, "first", agent.AssignedEventID)

	// A closer, higher-severity event appears; the current assignment is
	// still live and in reach, so it sticks.
	events.events = append(events.events, liveEvent("shinier", 3, 0.21, 0.21))
	s.Tick()
	assert.Equal(t, "first", agent.AssignedEventID)
}

func TestDetourKeepsAssignment(t *testing.T) {
	events := &stubEvents{events: []*domain.Event{liveEvent("inc1", 3, 0.3, 0.3)}}
	s := newTestSim(t, events, Config{AgentCount: 1})
	agent := s.agents[0]
	agent.Position = geo.Pt(0.2, 0.2)
	agent.Mode = domain.ModeResponding
	agent.AssignedEventID = "inc1"
	agent.Detouring = true
	agent.Target = geo.Pt(0.2, 0.3) // waypoint around a blockage

	s.Tick()

	assert.Equal(t, "inc1", agent.AssignedEventID)
	assert.Equal(t, domain.ModeResponding, agent.Mode)
	assert.Equal(t, geo.Pt(0.2, 0.3), agent.Target, "incident target must not preempt the waypoint")
}

func TestDetourArrivalRestoresIncidentTarget(t *testing.T) {
	events := &stubEvents{events: []*domain.Event{liveEvent("inc1", 3, 0.3, 0.3)}}
	s := newTestSim(t, events, Config{AgentCount: 1})
	agent := s.agents[0]
	agent.Mode = domain.ModeResponding
	agent.AssignedEventID = "inc1"
	agent.Detouring = true
	agent.Target = geo.Pt(0.2, 0.3)
	agent.Position = geo.Pt(0.2, 0.2995) // one step from the waypoint

	s.Tick()
	require.False(t, agent.Detouring)
	require.Equal(t, "inc1", agent.AssignedEventID)

	s.Tick()
	assert.Equal(t, geo.Pt(0.3, 0.3), agent.Target)
	assert.Equal(t, domain.ModeResponding, agent.Mode)
}

func TestRespondingReturnsToPatrol(t *testing.T) {
	events := &stubEvents{}
	s := newTestSim(t, events, Config{AgentCount: 1})
	agent := s.agents[0]
	agent.Position = geo.Pt(0.2, 0.2)
	agent.Mode = domain.ModeResponding
	agent.AssignedEventID = "vanished"

	s.Tick()

	assert.Equal(t, domain.ModePatrol, agent.Mode)
	assert.Empty(t, agent.AssignedEventID)
	assert.False(t, s.world.Blocked(agent.Target))
}

func TestRescueFromInsideObstacle(t *testing.T) {
	s := newTestSim(t, &stubEvents{}, Config{AgentCount: 1})
	agent := s.agents[0]
	// Dead center of the hole: every heading and the detour are blocked.
	agent.Position = geo.Pt(0.7, 0.7)
	agent.Target = geo.Pt(0.9, 0.9)

	s.Tick()

	assert.False(t, s.world.Blocked(agent.Position))
	assert.Equal(t, domain.ModePatrol, agent.Mode)
}

func TestStuckThresholdForcesPatrolResample(t *testing.T) {
	s := newTestSim(t, &stubEvents{}, Config{AgentCount: 1, StuckThreshold: 3})
	agent := s.agents[0]
	agent.Mode = domain.ModeResponding
	agent.AssignedEventID = ""
	agent.Position = geo.Pt(0.2, 0.2)
	agent.Target = geo.Pt(0.2, 0.2)
	agent.Target.X += 1e-12 // not at target, but no meaningful progress possible
	agent.StuckTicks = 4

	s.Tick()

	assert.Equal(t, 0, agent.StuckTicks)
	assert.Equal(t, domain.ModePatrol, agent.Mode)
}

func TestLongRunKeepsInvariants(t *testing.T) {
	events := &stubEvents{events: []*domain.Event{
		liveEvent("inc1", 3, 0.3, 0.7),
		liveEvent("inc2", 2, 0.85, 0.15),
	}}
	s := newTestSim(t, events, Config{AgentCount: 6})

	for tick := 0; tick < 500; tick++ {
		s.Tick()
		for _, a := range s.Snapshot() {
			assert.False(t, s.world.Blocked(a.Position),
				"tick %d: agent inside obstacle at (%f,%f)", tick, a.Position.X, a.Position.Y)
			assert.GreaterOrEqual(t, a.Position.X, 0.0)
			assert.LessOrEqual(t, a.Position.X, 1.0)
			assert.GreaterOrEqual(t, a.Position.Y, 0.0)
			assert.LessOrEqual(t, a.Position.Y, 1.0)
		}
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := newTestSim(t, &stubEvents{}, Config{AgentCount: 1})

	snap := s.Snapshot()
	snap[0].Position = geo.Pt(-1, -1)

	assert.NotEqual(t, geo.Pt(-1, -1), s.agents[0].Position)
}

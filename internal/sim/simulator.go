// Package sim runs the tick-based patrol simulation: a fixed set of agents
// walks the floor plan, responds to live high-severity events, and recovers
// from getting stuck. All decisions are local and per-tick; there is no
// global path planner. One goroutine owns all agent state.
package sim

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/floorwatch/floorwatch/internal/domain"
	"github.com/floorwatch/floorwatch/internal/geo"
	"github.com/floorwatch/floorwatch/internal/world"
)

// Config tunes the simulation. Zero values fall back to defaults.
type Config struct {
	AgentCount     int
	TickPeriod     time.Duration
	ReactionRadius float64
	LivenessWindow time.Duration
	SeverityWeight float64
	BaseSpeed      float64
	StuckThreshold int
	ZoneHopChance  float64
	Seed           int64
}

func (c Config) withDefaults() Config {
	if c.AgentCount <= 0 {
		c.AgentCount = 4
	}
	if c.TickPeriod <= 0 {
		c.TickPeriod = 80 * time.Millisecond
	}
	if c.ReactionRadius <= 0 {
		c.ReactionRadius = 0.35
	}
	if c.LivenessWindow <= 0 {
		c.LivenessWindow = 2 * time.Minute
	}
	if c.SeverityWeight <= 0 {
		c.SeverityWeight = 0.05
	}
	if c.BaseSpeed <= 0 {
		c.BaseSpeed = 0.06
	}
	if c.StuckThreshold <= 0 {
		c.StuckThreshold = 25
	}
	if c.ZoneHopChance <= 0 {
		c.ZoneHopChance = 0.08
	}
	return c
}

const (
	planMargin      = 0.01
	footprintRadius = 0.006
	detourDistance  = 0.08
	arrivalEpsilon  = 1e-9
)

// Steering probe offsets in radians: straight ahead first, then alternating
// widening sweeps.
var headingOffsets = []float64{0, 0.35, -0.35, 0.7, -0.7, 1.05, -1.05, 1.4, -1.4}

// EventSource provides the live event snapshot read once per tick.
type EventSource interface {
	Live(now time.Time, window time.Duration) []*domain.Event
}

// Simulator owns the agent population.
type Simulator struct {
	cfg    Config
	world  *world.World
	events EventSource
	logger *slog.Logger
	rng    *rand.Rand
	now    func() time.Time

	mu     sync.RWMutex
	agents []*domain.Agent

	onTick func([]domain.Agent)
}

// New creates a simulator with agents at random walkable positions.
func New(w *world.World, events EventSource, logger *slog.Logger, cfg Config) *Simulator {
	cfg = cfg.withDefaults()
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Simulator{
		cfg:    cfg,
		world:  w,
		events: events,
		logger: logger,
		rng:    rand.New(rand.NewSource(seed)),
		now:    time.Now,
	}

	zones := w.Zones()
	for i := 0; i < cfg.AgentCount; i++ {
		zone := zones[s.rng.Intn(len(zones))]
		origin := s.sampleWalkable(zone)
		s.agents = append(s.agents, &domain.Agent{
			ID:        uuid.NewString(),
			ZoneID:    zone.ID,
			Mode:      domain.ModePatrol,
			Position:  origin,
			Target:    s.sampleWalkable(zone),
			Speed:     cfg.BaseSpeed,
			BaseSpeed: cfg.BaseSpeed,
		})
	}
	return s
}

// OnTick registers a callback invoked with the agent snapshot after every
// tick. Must be set before Run.
func (s *Simulator) OnTick(fn func([]domain.Agent)) {
	s.onTick = fn
}

// Run advances the simulation at the configured tick period until the
// context is canceled. After cancellation no further state mutation occurs.
func (s *Simulator) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickPeriod)
	defer ticker.Stop()

	s.logger.Info("simulator started",
		slog.Int("agents", len(s.agents)),
		slog.Duration("tick", s.cfg.TickPeriod),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("simulator stopped")
			return
		case <-ticker.C:
			s.Tick()
			if s.onTick != nil {
				s.onTick(s.Snapshot())
			}
		}
	}
}

// Snapshot returns a copy of every agent.
func (s *Simulator) Snapshot() []domain.Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Agent, len(s.agents))
	for i, a := range s.agents {
		out[i] = *a
	}
	return out
}

// Agent returns a copy of one agent by id.
func (s *Simulator) Agent(id string) (domain.Agent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.agents {
		if a.ID == id {
			return *a, true
		}
	}
	return domain.Agent{}, false
}

// Tick advances every agent by one fixed timestep. The live event set is
// read once; agents decide independently and may converge on the same event.
func (s *Simulator) Tick() {
	now := s.now()
	live := s.qualifyingEvents(now)

	s.mu.Lock()
	defer s.mu.Unlock()

	dt := s.cfg.TickPeriod.Seconds()
	for _, agent := range s.agents {
		s.tickAgent(agent, live, dt)
	}
}

// qualifyingEvents filters the live snapshot down to incidents worth
// responding to.
func (s *Simulator) qualifyingEvents(now time.Time) map[string]*domain.Event {
	live := s.events.Live(now, s.cfg.LivenessWindow)
	out := make(map[string]*domain.Event, len(live))
	for _, ev := range live {
		if ev.Severity >= 2 {
			out[ev.ID] = ev
		}
	}
	return out
}

func (s *Simulator) tickAgent(agent *domain.Agent, live map[string]*domain.Event, dt float64) {
	s.assignTarget(agent, live)

	step := agent.Speed * dt
	prev := agent.Position

	if agent.Position.Distance(agent.Target) <= step+arrivalEpsilon {
		agent.Position = agent.Target
		s.onArrival(agent, live)
	} else {
		s.advance(agent, step)
	}

	// Near-zero displacement over consecutive ticks trips the rescue path no
	// matter what the steering logic thinks; liveness beats optimality.
	// Holding at the target does not count as stuck.
	atTarget := agent.Position == agent.Target
	if !atTarget && agent.Position.Distance(prev) < step*0.2 {
		agent.StuckTicks++
	} else {
		agent.StuckTicks = 0
	}
	if agent.StuckTicks > s.cfg.StuckThreshold {
		s.rescue(agent)
		return
	}

	if s.blockedAt(agent.Position) {
		// Never end a tick inside an obstacle.
		agent.Position = s.world.ProjectIntoZone(s.currentZone(agent), agent.Position)
	}
	s.reattributeZone(agent)
}

// assignTarget applies the patrol/responding transition rules. The current
// assignment is sticky: a still-qualifying event is kept without re-scoring
// to avoid target oscillation.
func (s *Simulator) assignTarget(agent *domain.Agent, live map[string]*domain.Event) {
	if agent.AssignedEventID != "" {
		if ev, ok := live[agent.AssignedEventID]; ok && s.withinReach(agent, ev) {
			agent.Mode = domain.ModeResponding
			// A detour waypoint owns the target until it is reached.
			if !agent.Detouring {
				agent.Target = ev.Position()
			}
			return
		}
		// Event resolved, expired, or out of reach.
		s.toPatrol(agent)
	}

	best := s.scoreEvents(agent, live)
	if best != nil {
		agent.AssignedEventID = best.ID
		agent.Target = best.Position()
		agent.Mode = domain.ModeResponding
	}
}

func (s *Simulator) withinReach(agent *domain.Agent, ev *domain.Event) bool {
	return agent.Position.Distance(ev.Position()) <= s.cfg.ReactionRadius
}

// scoreEvents picks the best reachable event: distance minus a severity
// bonus, lower wins, mildly favoring higher severity at comparable distance.
func (s *Simulator) scoreEvents(agent *domain.Agent, live map[string]*domain.Event) *domain.Event {
	var best *domain.Event
	bestScore := math.MaxFloat64
	for _, ev := range live {
		dist := agent.Position.Distance(ev.Position())
		if dist > s.cfg.ReactionRadius {
			continue
		}
		score := dist - float64(ev.Severity)*s.cfg.SeverityWeight
		if score < bestScore || (score == bestScore && best != nil && ev.ID < best.ID) {
			bestScore = score
			best = ev
		}
	}
	return best
}

func (s *Simulator) onArrival(agent *domain.Agent, live map[string]*domain.Event) {
	if agent.Detouring {
		agent.Detouring = false
		if agent.Mode == domain.ModeResponding {
			// The incident target is restored by the next assignment pass.
			return
		}
	}
	if agent.Mode == domain.ModeResponding {
		// Hold position at the incident; reassignment happens next tick when
		// the event resolves or a better one appears.
		return
	}
	agent.Target = s.nextPatrolTarget(agent)
}

// advance attempts one step toward the target, sweeping candidate headings
// until one clears the obstacle probe.
func (s *Simulator) advance(agent *domain.Agent, step float64) {
	toTarget := agent.Target.Sub(agent.Position)
	base := math.Atan2(toTarget.Y, toTarget.X)

	for _, offset := range headingOffsets {
		heading := base + offset
		next := agent.Position.Add(geo.Pt(math.Cos(heading)*step, math.Sin(heading)*step))
		if s.clear(next) {
			agent.Position = next
			agent.HeadingRadians = heading
			return
		}
	}

	// Every candidate heading is blocked: randomized detour, then teleport
	// rescue as the last resort.
	detourHeading := base + (s.rng.Float64()-0.5)*2.4
	detour := agent.Position.Add(geo.Pt(
		math.Cos(detourHeading)*detourDistance,
		math.Sin(detourHeading)*detourDistance,
	)).Clamp()
	// The assignment survives a detour; only the teleport rescue clears it.
	if s.clear(detour) {
		agent.Target = detour
		agent.HeadingRadians = detourHeading
		agent.Detouring = true
		return
	}
	s.rescue(agent)
}

// clear probes a candidate position at its center plus radial offsets to
// emulate the agent's footprint, requiring plan margins and no obstacle hit.
func (s *Simulator) clear(p geo.Point) bool {
	if p.X < planMargin || p.X > 1-planMargin || p.Y < planMargin || p.Y > 1-planMargin {
		return false
	}
	probes := []geo.Point{
		p,
		p.Add(geo.Pt(footprintRadius, 0)),
		p.Add(geo.Pt(-footprintRadius, 0)),
		p.Add(geo.Pt(0, footprintRadius)),
		p.Add(geo.Pt(0, -footprintRadius)),
	}
	for _, probe := range probes {
		if s.blockedAt(probe) {
			return false
		}
	}
	return true
}

func (s *Simulator) blockedAt(p geo.Point) bool {
	return s.world.Blocked(p)
}

// rescue teleports the agent onto fresh walkable floor in its zone and
// resumes patrol, discarding any incident assignment.
func (s *Simulator) rescue(agent *domain.Agent) {
	zone := s.currentZone(agent)
	agent.Position = s.sampleWalkable(zone)
	agent.Target = s.sampleWalkable(zone)
	agent.StuckTicks = 0
	s.dropAssignment(agent)
}

func (s *Simulator) toPatrol(agent *domain.Agent) {
	s.dropAssignment(agent)
	agent.Target = s.nextPatrolTarget(agent)
}

func (s *Simulator) dropAssignment(agent *domain.Agent) {
	agent.AssignedEventID = ""
	agent.Mode = domain.ModePatrol
	agent.Speed = agent.BaseSpeed
	agent.Detouring = false
}

// nextPatrolTarget samples a random walkable waypoint in the agent's zone,
// occasionally hopping to a different zone.
func (s *Simulator) nextPatrolTarget(agent *domain.Agent) geo.Point {
	zone := s.currentZone(agent)
	zones := s.world.Zones()
	if len(zones) > 1 && s.rng.Float64() < s.cfg.ZoneHopChance {
		zone = zones[s.rng.Intn(len(zones))]
	}
	return s.sampleWalkable(zone)
}

func (s *Simulator) sampleWalkable(zone *world.Zone) geo.Point {
	b := zone.OuterBound
	p := geo.Pt(
		b.MinX+s.rng.Float64()*(b.MaxX-b.MinX),
		b.MinY+s.rng.Float64()*(b.MaxY-b.MinY),
	)
	return s.world.ProjectIntoZone(zone, p)
}

func (s *Simulator) currentZone(agent *domain.Agent) *world.Zone {
	if z := s.world.Zone(agent.ZoneID); z != nil {
		return z
	}
	return s.world.NearestZone(agent.Position)
}

// reattributeZone updates the agent's zone after movement across boundaries.
func (s *Simulator) reattributeZone(agent *domain.Agent) {
	if z := s.world.ZoneAt(agent.Position); z != nil && z.ID != agent.ZoneID {
		agent.ZoneID = z.ID
	}
}

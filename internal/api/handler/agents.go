package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/floorwatch/floorwatch/internal/domain"
	"github.com/floorwatch/floorwatch/internal/sim"
)

// AgentsHandler exposes the simulator's agent state
type AgentsHandler struct {
	sim *sim.Simulator
}

func NewAgentsHandler(simulator *sim.Simulator) *AgentsHandler {
	return &AgentsHandler{sim: simulator}
}

// AgentListResponse response for the agent listing endpoint
type AgentListResponse struct {
	Agents []domain.Agent `json:"agents"`
	Count  int            `json:"count"`
}

// List GET /v1/agents - snapshot of every agent
func (h *AgentsHandler) List(c *fiber.Ctx) error {
	agents := h.sim.Snapshot()
	return c.JSON(AgentListResponse{Agents: agents, Count: len(agents)})
}

// Get GET /v1/agents/:id - one agent by id
func (h *AgentsHandler) Get(c *fiber.Ctx) error {
	agent, ok := h.sim.Agent(c.Params("id"))
	if !ok {
		return domain.ErrAgentNotFound
	}
	return c.JSON(agent)
}

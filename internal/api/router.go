package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/floorwatch/floorwatch/internal/api/handler"
	"github.com/floorwatch/floorwatch/internal/api/middleware"
	"github.com/floorwatch/floorwatch/internal/repository"
	"github.com/floorwatch/floorwatch/internal/service"
	"github.com/floorwatch/floorwatch/internal/sim"
	"github.com/floorwatch/floorwatch/internal/store"
	"github.com/floorwatch/floorwatch/internal/world"
	"github.com/floorwatch/floorwatch/internal/ws"
)

type Dependencies struct {
	World     *world.World
	Store     *store.EventStore
	Ingest    *service.IngestService
	Simulator *sim.Simulator
	Hub       *ws.Hub

	// Optional; nil when no database is configured.
	Archive repository.EventArchiveInterface
	DB      handler.Pinger

	StoreID string
}

type Router struct {
	app    *fiber.App
	logger *slog.Logger
	deps   *Dependencies
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "FloorWatch API",
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	var db handler.Pinger
	if r.deps != nil {
		db = r.deps.DB
	}

	// Health check endpoints
	healthHandler := handler.NewHealthHandler(db)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	// Only configure the API surface if dependencies were provided
	if r.deps == nil {
		return
	}

	v1 := r.app.Group("/v1")

	// Event ingestion and queries
	eventsHandler := handler.NewEventsHandler(
		r.deps.Ingest, r.deps.Store, r.deps.Archive, r.deps.StoreID, r.logger)
	v1.Get("/events", eventsHandler.List)
	v1.Get("/events/history", eventsHandler.History)
	v1.Post("/events/feed", eventsHandler.Feed)
	v1.Post("/events/sync", eventsHandler.Sync)

	// Agent state
	agentsHandler := handler.NewAgentsHandler(r.deps.Simulator)
	v1.Get("/agents", agentsHandler.List)
	v1.Get("/agents/:id", agentsHandler.Get)

	// Floor-plan geometry and projection
	zonesHandler := handler.NewZonesHandler(r.deps.World)
	v1.Get("/zones", zonesHandler.List)
	v1.Get("/zones/:id", zonesHandler.Get)

	projectHandler := handler.NewProjectHandler(r.deps.World)
	v1.Post("/world/project", projectHandler.Project)

	// WebSocket endpoint
	v1.Get("/ws", ws.UpgradeMiddleware(), ws.Handler(r.deps.Hub, r.deps.StoreID))
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	return r.app.Shutdown()
}

package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/floorwatch/floorwatch/internal/domain"
	"github.com/floorwatch/floorwatch/internal/repository"
	"github.com/floorwatch/floorwatch/internal/service"
	"github.com/floorwatch/floorwatch/internal/store"
)

const (
	defaultListLimit  = 100
	defaultLiveWindow = 2 * time.Minute
)

// Ingestor runs raw payloads through normalization and the event set.
type Ingestor interface {
	Feed(ctx context.Context, raw any) (*service.FeedResult, error)
	Sync(ctx context.Context, raw any) (*service.SyncResult, error)
}

// EventsHandler handles event ingestion and queries
type EventsHandler struct {
	ingest  Ingestor
	store   *store.EventStore
	archive repository.EventArchiveInterface
	storeID string
	logger  *slog.Logger
}

// NewEventsHandler creates a new EventsHandler instance. archive may be nil
// when no database is configured.
func NewEventsHandler(ingest Ingestor, st *store.EventStore, archive repository.EventArchiveInterface, storeID string, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		ingest:  ingest,
		store:   st,
		archive: archive,
		storeID: storeID,
		logger:  logger,
	}
}

// EventListResponse response for event listing endpoints
type EventListResponse struct {
	Events []*domain.Event `json:"events"`
	Count  int             `json:"count"`
}

// List GET /v1/events - current event set, newest first
func (h *EventsHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultListLimit)
	if limit < 1 {
		limit = defaultListLimit
	}

	var events []*domain.Event
	if c.QueryBool("live", false) {
		window := defaultLiveWindow
		if raw := c.Query("window"); raw != "" {
			parsed, err := time.ParseDuration(raw)
			if err != nil {
				return domain.ErrBadRequest.WithError(err)
			}
			window = parsed
		}
		events = h.store.Live(time.Now(), window)
	} else {
		events = h.store.Snapshot()
	}

	if storeID := c.Query("store"); storeID != "" {
		filtered := make([]*domain.Event, 0, len(events))
		for _, event := range events {
			if event.StoreID == storeID {
				filtered = append(filtered, event)
			}
		}
		events = filtered
	}

	if len(events) > limit {
		events = events[:limit]
	}

	return c.JSON(EventListResponse{Events: events, Count: len(events)})
}

// Feed POST /v1/events/feed - normalize and merge a raw detection payload
func (h *EventsHandler) Feed(c *fiber.Ctx) error {
	raw, err := decodeBody(c)
	if err != nil {
		return err
	}

	result, err := h.ingest.Feed(c.Context(), raw)
	if err != nil {
		return err
	}

	return c.JSON(result)
}

// Sync POST /v1/events/sync - apply a device snapshot or delta
func (h *EventsHandler) Sync(c *fiber.Ctx) error {
	raw, err := decodeBody(c)
	if err != nil {
		return err
	}

	result, err := h.ingest.Sync(c.Context(), raw)
	if err != nil {
		return err
	}

	return c.JSON(result)
}

// History GET /v1/events/history - archived events for the store
func (h *EventsHandler) History(c *fiber.Ctx) error {
	if h.archive == nil {
		return domain.ErrArchiveDisabled
	}

	storeID := c.Query("store", h.storeID)
	limit := c.QueryInt("limit", defaultListLimit)
	if limit < 1 {
		limit = defaultListLimit
	}

	events, err := h.archive.RecentByStore(c.Context(), storeID, limit)
	if err != nil {
		h.logger.Error("archive query failed", "error", err, "store", storeID)
		return domain.ErrInternal.WithError(err)
	}

	return c.JSON(EventListResponse{Events: events, Count: len(events)})
}

func decodeBody(c *fiber.Ctx) (any, error) {
	var raw any
	if err := json.Unmarshal(c.Body(), &raw); err != nil {
		return nil, domain.ErrBadRequest.WithError(err)
	}
	return raw, nil
}

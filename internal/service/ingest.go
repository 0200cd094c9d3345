package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/floorwatch/floorwatch/internal/domain"
	"github.com/floorwatch/floorwatch/internal/normalize"
	"github.com/floorwatch/floorwatch/internal/repository"
	"github.com/floorwatch/floorwatch/internal/store"
	"github.com/floorwatch/floorwatch/internal/ws"
)

const (
	archiveTimeout = 5 * time.Second
	alertTimeout   = 15 * time.Second
)

// Alerter evaluates accepted events against alert rules and notifies
// subscribers.
type Alerter interface {
	Dispatch(ctx context.Context, event *domain.Event) error
}

// IngestService runs raw detection payloads through normalization and applies
// the surviving events to the in-memory set. The archive and the hub are
// optional; both are best-effort side channels off the ingest path.
type IngestService struct {
	adapter *normalize.Adapter
	store   *store.EventStore
	archive repository.EventArchiveInterface
	hub     *ws.Hub
	alerter Alerter
	logger  *slog.Logger
	opts    normalize.FeedOptions
}

func NewIngestService(adapter *normalize.Adapter, st *store.EventStore, logger *slog.Logger, opts normalize.FeedOptions) *IngestService {
	return &IngestService{
		adapter: adapter,
		store:   st,
		logger:  logger,
		opts:    opts,
	}
}

// SetArchive enables mirroring accepted events to Postgres.
func (s *IngestService) SetArchive(archive repository.EventArchiveInterface) {
	s.archive = archive
}

// SetHub enables broadcasting applied changes to WebSocket subscribers.
func (s *IngestService) SetHub(hub *ws.Hub) {
	s.hub = hub
}

// SetAlerter enables alert evaluation for accepted events.
func (s *IngestService) SetAlerter(alerter Alerter) {
	s.alerter = alerter
}

// FeedResult reports what a feed ingestion did.
type FeedResult struct {
	Events  []*domain.Event `json:"events"`
	Applied int             `json:"applied"`
}

// SyncResult reports what a sync application did.
type SyncResult struct {
	Mode    normalize.SyncMode `json:"mode"`
	Applied int                `json:"applied"`
	Deleted int                `json:"deleted"`
	Events  []*domain.Event    `json:"events"`
}

// Feed normalizes a raw detection payload and merges it into the event set.
// A bare object is treated as a single-record feed.
func (s *IngestService) Feed(ctx context.Context, raw any) (*FeedResult, error) {
	var records []any
	switch v := raw.(type) {
	case []any:
		records = v
	case map[string]any:
		records = []any{v}
	default:
		return nil, domain.ErrBadRequest
	}

	events := s.adapter.NormalizeFeed(records, s.opts)
	applied := s.store.Upsert(events)

	s.logger.Info("feed ingested",
		"records", len(records), "normalized", len(events), "applied", applied)

	s.mirror(events, nil)
	s.notify(events)
	for _, event := range events {
		s.broadcast(event.StoreID, ws.EventIngested, event)
	}

	return &FeedResult{Events: events, Applied: applied}, nil
}

// Sync applies a device snapshot or delta to the event set. An empty replace
// would silently wipe the store, so it is rejected as unusable input.
func (s *IngestService) Sync(ctx context.Context, raw any) (*SyncResult, error) {
	payload, ok := normalize.ParseSyncPayload(raw)
	if !ok {
		return nil, domain.ErrInvalidSyncPayload
	}

	events := s.adapter.NormalizeFeed(payload.Records, s.opts)
	if payload.Mode == normalize.SyncReplace && len(events) == 0 && len(payload.DeletedIDs) == 0 {
		return nil, domain.ErrInvalidSyncPayload
	}

	applied := s.store.ApplySync(payload.Mode, events, payload.DeletedIDs)

	s.logger.Info("sync applied",
		"mode", payload.Mode, "normalized", len(events),
		"applied", applied, "deleted", len(payload.DeletedIDs))

	s.mirror(events, payload.DeletedIDs)
	s.notify(events)
	s.broadcast(s.opts.FallbackStoreID, ws.EventSyncApplied, map[string]any{
		"mode":    payload.Mode,
		"applied": applied,
		"deleted": len(payload.DeletedIDs),
	})

	return &SyncResult{
		Mode:    payload.Mode,
		Applied: applied,
		Deleted: len(payload.DeletedIDs),
		Events:  events,
	}, nil
}

// mirror writes accepted events and deletions to the archive asynchronously.
func (s *IngestService) mirror(events []*domain.Event, deletedIDs []string) {
	if s.archive == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()

		if err := s.archive.UpsertBatch(ctx, events); err != nil {
			s.logger.Warn("failed to archive events", "error", err, "count", len(events))
		}
		for _, id := range deletedIDs {
			if err := s.archive.Delete(ctx, id); err != nil {
				s.logger.Warn("failed to archive deletion", "error", err, "id", id)
			}
		}
	}()
}

// notify runs alert evaluation off the ingest path.
func (s *IngestService) notify(events []*domain.Event) {
	if s.alerter == nil || len(events) == 0 {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), alertTimeout)
		defer cancel()

		for _, event := range events {
			if err := s.alerter.Dispatch(ctx, event); err != nil {
				s.logger.Warn("failed to dispatch alert", "error", err, "event_id", event.ID)
			}
		}
	}()
}

func (s *IngestService) broadcast(storeID string, eventType ws.EventType, data any) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToStore(storeID, eventType, data)
}

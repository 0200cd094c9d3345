package repository

import (
	"context"
	"fmt"

	"github.com/floorwatch/floorwatch/internal/domain"
)

type EventArchive struct {
	pool PgxPool
}

func NewEventArchive(pool PgxPool) *EventArchive {
	return &EventArchive{pool: pool}
}

const eventColumns = `
	id, store_id, detected_at, ingested_at, latency_ms,
	type, severity, confidence, source, incident_status,
	zone_id, camera_id, track_id, object_label, raw_status,
	model_version, note, x, y, world_x_meters, world_z_meters
`

// Upsert writes the event, replacing an existing row with the same id only
// when the incoming record is at least as recent by (detected_at, ingested_at).
func (r *EventArchive) Upsert(ctx context.Context, event *domain.Event) error {
	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (id) DO UPDATE SET
			store_id = EXCLUDED.store_id,
			detected_at = EXCLUDED.detected_at,
			ingested_at = EXCLUDED.ingested_at,
			latency_ms = EXCLUDED.latency_ms,
			type = EXCLUDED.type,
			severity = EXCLUDED.severity,
			confidence = EXCLUDED.confidence,
			source = EXCLUDED.source,
			incident_status = EXCLUDED.incident_status,
			zone_id = EXCLUDED.zone_id,
			camera_id = EXCLUDED.camera_id,
			track_id = EXCLUDED.track_id,
			object_label = EXCLUDED.object_label,
			raw_status = EXCLUDED.raw_status,
			model_version = EXCLUDED.model_version,
			note = EXCLUDED.note,
			x = EXCLUDED.x,
			y = EXCLUDED.y,
			world_x_meters = EXCLUDED.world_x_meters,
			world_z_meters = EXCLUDED.world_z_meters
		WHERE (EXCLUDED.detected_at, EXCLUDED.ingested_at) >= (events.detected_at, events.ingested_at)
	`

	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.StoreID,
		event.DetectedAt,
		event.IngestedAt,
		event.LatencyMs,
		event.Type,
		event.Severity,
		event.Confidence,
		event.Source,
		event.Status,
		event.ZoneID,
		event.CameraID,
		event.TrackID,
		event.ObjectLabel,
		event.RawStatus,
		event.ModelVersion,
		event.Note,
		event.X,
		event.Y,
		event.WorldXMeters,
		event.WorldZMeters,
	)
	if err != nil {
		return fmt.Errorf("upsert event: %w", err)
	}

	return nil
}

// UpsertBatch writes each event in turn, stopping at the first failure.
func (r *EventArchive) UpsertBatch(ctx context.Context, events []*domain.Event) error {
	for _, event := range events {
		if err := r.Upsert(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the event with the given id. Ids that were never archived
// are not an error; sync deletions routinely reference them.
func (r *EventArchive) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM events
		WHERE id = $1
	`

	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}

	return nil
}

// RecentByStore returns the store's most recent events ordered newest first.
func (r *EventArchive) RecentByStore(ctx context.Context, storeID string, limit int) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE store_id = $1
		ORDER BY detected_at DESC, ingested_at DESC, id
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, storeID, limit)
	if err != nil {
		return nil, fmt.Errorf("list events by store: %w", err)
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		var event domain.Event
		err := rows.Scan(
			&event.ID,
			&event.StoreID,
			&event.DetectedAt,
			&event.IngestedAt,
			&event.LatencyMs,
			&event.Type,
			&event.Severity,
			&event.Confidence,
			&event.Source,
			&event.Status,
			&event.ZoneID,
			&event.CameraID,
			&event.TrackID,
			&event.ObjectLabel,
			&event.RawStatus,
			&event.ModelVersion,
			&event.Note,
			&event.X,
			&event.Y,
			&event.WorldXMeters,
			&event.WorldZMeters,
		)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events by store: %w", err)
	}

	return events, nil
}

// PurgeOlderThan deletes events detected before the cutoff and reports how
// many rows went away.
func (r *EventArchive) PurgeOlderThan(ctx context.Context, cutoffMs int64) (int64, error) {
	query := `
		DELETE FROM events
		WHERE detected_at < $1
	`

	tag, err := r.pool.Exec(ctx, query, cutoffMs)
	if err != nil {
		return 0, fmt.Errorf("purge events: %w", err)
	}

	return tag.RowsAffected(), nil
}

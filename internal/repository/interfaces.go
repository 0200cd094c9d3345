package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/floorwatch/floorwatch/internal/domain"
)

// PgxPool is the subset of pgxpool.Pool the repositories use. pgxmock
// implements it for tests.
type PgxPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// EventArchiveInterface defines operations for durable event persistence
type EventArchiveInterface interface {
	Upsert(ctx context.Context, event *domain.Event) error
	UpsertBatch(ctx context.Context, events []*domain.Event) error
	Delete(ctx context.Context, id string) error
	RecentByStore(ctx context.Context, storeID string, limit int) ([]*domain.Event, error)
	PurgeOlderThan(ctx context.Context, cutoffMs int64) (int64, error)
}

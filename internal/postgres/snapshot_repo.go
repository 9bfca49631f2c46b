package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lucas-remigio/graocerto.pt/internal/relay"
)

const schema = `
CREATE TABLE IF NOT EXISTS relay_snapshots (
	id          BIGSERIAL PRIMARY KEY,
	instance_id TEXT        NOT NULL,
	taken_at    TIMESTAMPTZ NOT NULL,
	connections INTEGER     NOT NULL,
	rooms       INTEGER     NOT NULL,
	room_counts JSONB       NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS relay_snapshots_taken_at_idx ON relay_snapshots (taken_at DESC);`

// Snapshot is an aggregate view of the relay at one point in time.
type Snapshot struct {
	InstanceID  string
	TakenAt     time.Time
	Connections int
	Rooms       []relay.RoomStat
}

type SnapshotRepository struct {
	db *pgxpool.Pool
}

func NewSnapshotRepository(db *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (r *SnapshotRepository) Insert(ctx context.Context, s Snapshot) error {
	rooms := s.Rooms
	if rooms == nil {
		rooms = []relay.RoomStat{}
	}
	counts, err := json.Marshal(rooms)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO relay_snapshots (instance_id, taken_at, connections, rooms, room_counts)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.Exec(ctx, query, s.InstanceID, s.TakenAt, s.Connections, len(s.Rooms), counts); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

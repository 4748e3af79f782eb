// Package store persists room snapshots and the operation archive in
// Postgres. The engine runs fully in memory; this layer is durability only.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"cowrite/engine/internal/engine"
	"cowrite/engine/internal/ot"
)

var ErrNotFound = errors.New("store: not found")

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// SaveSnapshot upserts the latest snapshot for a room.
func (s *PostgresStore) SaveSnapshot(ctx context.Context, snap engine.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	const upsert = `
		INSERT INTO room_snapshots (room_id, name, owner_id, version, payload, exported_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (room_id) DO UPDATE SET
			name = EXCLUDED.name,
			owner_id = EXCLUDED.owner_id,
			version = EXCLUDED.version,
			payload = EXCLUDED.payload,
			exported_at = EXCLUDED.exported_at
	`
	if _, err := s.db.ExecContext(ctx, upsert,
		snap.RoomID, snap.Name, snap.OwnerID, snap.Version, payload, snap.ExportedAt); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the latest stored snapshot for a room.
func (s *PostgresStore) LoadSnapshot(ctx context.Context, roomID string) (engine.Snapshot, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM room_snapshots WHERE room_id = $1`, roomID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}

	var snap engine.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return engine.Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, nil
}

// ArchiveOperation appends one committed operation to the archive.
func (s *PostgresStore) ArchiveOperation(ctx context.Context, op ot.Operation) error {
	payload, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("marshal operation: %w", err)
	}

	const insert = `
		INSERT INTO room_operations (id, room_id, user_id, op_type, sequence, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, insert,
		op.ID, op.RoomID, op.UserID, string(op.Type), op.Sequence, payload, op.Timestamp); err != nil {
		return fmt.Errorf("archive operation: %w", err)
	}
	return nil
}

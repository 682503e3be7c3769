package repository

import (
	"context"
	"database/sql"

	"github.com/triproom/server/internal/model"
)

// ChangeLogRepo provides append and read access to the room_change_logs
// table. The table is append-only: nothing in the system updates or
// deletes rows. Appends always run after the mutation they describe has
// committed, so the log can never record a rolled-back change.
type ChangeLogRepo struct {
	db *sql.DB
}

// NewChangeLogRepo returns a new ChangeLogRepo bound to the given database.
func NewChangeLogRepo(db *sql.DB) *ChangeLogRepo { return &ChangeLogRepo{db: db} }

// Append inserts one audit entry. entityID is nil for bulk operations
// (day reorders); diff is an opaque JSON string or nil.
func (r *ChangeLogRepo) Append(ctx context.Context, roomID uint64, actorID *uint64, entityType model.EntityType, entityID *uint64, action model.Action, diff *string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO room_change_logs (room_id, actor_id, entity_type, entity_id, action, diff_json)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		roomID, actorID, entityType, entityID, action, diff)
	return err
}

// List returns the newest entries first. limit is clamped to [1,200];
// zero or negative values fall back to the default of 50.
func (r *ChangeLogRepo) List(ctx context.Context, roomID uint64, limit int) ([]model.ChangeLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, room_id, actor_id, entity_type, entity_id, action, diff_json, created_at
		 FROM room_change_logs
		 WHERE room_id = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		roomID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ChangeLogEntry, 0, limit)
	for rows.Next() {
		var e model.ChangeLogEntry
		if err := rows.Scan(&e.ID, &e.RoomID, &e.ActorID, &e.EntityType, &e.EntityID,
			&e.Action, &e.Diff, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

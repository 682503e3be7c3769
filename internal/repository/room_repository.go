package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/triproom/server/internal/model"
)

// RoomRepo provides data access to the rooms table. Room creation also
// writes the creator's OWNER membership so a room can never exist without
// exactly one owner; the two inserts share a transaction.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// RoomSummary is a room row joined with the calling user's role and the
// room's member count, as returned by ListForUser.
type RoomSummary struct {
	Room        model.Room
	MyRole      model.Role
	MemberCount int
}

// Create inserts a room and its OWNER membership in one transaction and
// returns the new room id.
func (r *RoomRepo) Create(ctx context.Context, ownerID uint64, title string, description, startDate, endDate *string) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO rooms (owner_id, title, description, travel_start_date, travel_end_date)
		 VALUES (?, ?, ?, ?, ?)`,
		ownerID, title, description, startDate, endDate)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO room_members (room_id, user_id, role) VALUES (?, ?, ?)`,
		id, ownerID, model.RoleOwner); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return uint64(id), nil
}

// GetByID fetches a single room. It returns ErrRoomNotFound when the id
// does not exist.
func (r *RoomRepo) GetByID(ctx context.Context, roomID uint64) (model.Room, error) {
	var rm model.Room
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, description,
		        DATE_FORMAT(travel_start_date, '%Y-%m-%d'),
		        DATE_FORMAT(travel_end_date, '%Y-%m-%d'),
		        created_at, updated_at
		 FROM rooms WHERE id = ? LIMIT 1`,
		roomID).Scan(&rm.ID, &rm.OwnerID, &rm.Title, &rm.Description,
		&rm.TravelStartDate, &rm.TravelEndDate, &rm.CreatedAt, &rm.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Room{}, ErrRoomNotFound
	}
	return rm, err
}

// ListForUser returns every room the user belongs to, newest first, with
// the user's own role and the total member count per room.
func (r *RoomRepo) ListForUser(ctx context.Context, userID uint64) ([]RoomSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.owner_id, r.title, r.description,
		        DATE_FORMAT(r.travel_start_date, '%Y-%m-%d'),
		        DATE_FORMAT(r.travel_end_date, '%Y-%m-%d'),
		        r.created_at, r.updated_at,
		        my.role,
		        (SELECT COUNT(*) FROM room_members m WHERE m.room_id = r.id) AS member_count
		 FROM rooms r
		 INNER JOIN room_members my ON my.room_id = r.id AND my.user_id = ?
		 ORDER BY r.created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]RoomSummary, 0)
	for rows.Next() {
		var s RoomSummary
		if err := rows.Scan(&s.Room.ID, &s.Room.OwnerID, &s.Room.Title, &s.Room.Description,
			&s.Room.TravelStartDate, &s.Room.TravelEndDate, &s.Room.CreatedAt, &s.Room.UpdatedAt,
			&s.MyRole, &s.MemberCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

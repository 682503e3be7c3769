package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/triproom/server/internal/model"
)

// MemberRepo provides data access to the room_members table. GetRole is
// the single authorization primitive for the whole API: every guarded
// route resolves the caller's role through it before touching anything
// else.
type MemberRepo struct {
	db *sql.DB
}

// NewMemberRepo returns a new MemberRepo bound to the given database.
func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{db: db} }

// MemberInfo is a membership row joined with the user's public profile,
// as returned by List.
type MemberInfo struct {
	UserID   uint64
	Nickname string
	Role     model.Role
	JoinedAt sql.NullTime
}

// GetRole returns the user's role in the room, or ErrForbidden when the
// user has no membership. It is a pure read with no side effects.
func (r *MemberRepo) GetRole(ctx context.Context, roomID, userID uint64) (model.Role, error) {
	var role model.Role
	err := r.db.QueryRowContext(ctx,
		`SELECT role FROM room_members WHERE room_id = ? AND user_id = ? LIMIT 1`,
		roomID, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrForbidden
	}
	return role, err
}

// List returns the room's members ordered by privilege then join time.
func (r *MemberRepo) List(ctx context.Context, roomID uint64) ([]MemberInfo, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.user_id, u.nickname, m.role, m.joined_at
		 FROM room_members m
		 INNER JOIN users u ON u.id = m.user_id
		 WHERE m.room_id = ?
		 ORDER BY FIELD(m.role, 'OWNER', 'EDITOR', 'VIEWER'), m.joined_at ASC`,
		roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]MemberInfo, 0)
	for rows.Next() {
		var m MemberInfo
		if err := rows.Scan(&m.UserID, &m.Nickname, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpdateRole sets a member's role. It returns ErrMemberNotFound when the
// target user is not a member of the room. The caller is responsible for
// verifying the actor's OWNER role first.
func (r *MemberRepo) UpdateRole(ctx context.Context, roomID, userID uint64, role model.Role) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE room_members SET role = ? WHERE room_id = ? AND user_id = ?`,
		role, roomID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish "not a member" from "role unchanged": MySQL reports
		// zero affected rows for both, so re-check existence.
		var one int
		err := r.db.QueryRowContext(ctx,
			`SELECT 1 FROM room_members WHERE room_id = ? AND user_id = ? LIMIT 1`,
			roomID, userID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMemberNotFound
		}
		return err
	}
	return nil
}

// ExistsTx reports within a transaction whether the user is already a
// member of the room. Used by the invite accept flow while the invite row
// is locked.
func (r *MemberRepo) ExistsTx(ctx context.Context, tx *sql.Tx, roomID, userID uint64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM room_members WHERE room_id = ? AND user_id = ? LIMIT 1`,
		roomID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InsertTx adds a membership within the provided transaction.
func (r *MemberRepo) InsertTx(ctx context.Context, tx *sql.Tx, roomID, userID uint64, role model.Role) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO room_members (room_id, user_id, role) VALUES (?, ?, ?)`,
		roomID, userID, role)
	return err
}

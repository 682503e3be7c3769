package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/triproom/server/internal/model"
)

// InviteRepo provides data access to the room_invites table. Lookups are
// by hash only: the raw token and code never reach this layer, let alone
// the database. Accept is the one operation in the system that uses a
// pessimistic row lock: the used-count increment cannot be protected by an
// optimistic version check because concurrent redeemers must queue on the
// same row rather than fail and retry.
type InviteRepo struct {
	db *sql.DB
}

// NewInviteRepo returns a new InviteRepo bound to the given database.
func NewInviteRepo(db *sql.DB) *InviteRepo { return &InviteRepo{db: db} }

const inviteColumns = `id, room_id, created_by, token_hash, code_hash,
	expires_at, max_uses, used_count, revoked_at, created_at`

func scanInvite(row *sql.Row) (model.Invite, error) {
	var inv model.Invite
	err := row.Scan(&inv.ID, &inv.RoomID, &inv.CreatedBy, &inv.TokenHash, &inv.CodeHash,
		&inv.ExpiresAt, &inv.MaxUses, &inv.UsedCount, &inv.RevokedAt, &inv.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Invite{}, ErrInviteNotFound
	}
	return inv, err
}

// Create inserts an invite and returns its id. codeHash is nil when the
// issuer did not request a short code.
func (r *InviteRepo) Create(ctx context.Context, roomID, createdBy uint64, tokenHash string, codeHash *string, expiresAt time.Time, maxUses uint32) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO room_invites (room_id, created_by, token_hash, code_hash, expires_at, max_uses)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		roomID, createdBy, tokenHash, codeHash, expiresAt, maxUses)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// FindByTokenHash resolves an invite by its token hash. Revoked, expired
// and exhausted invites still resolve here; redeemability is checked
// separately so each failure surfaces its own error.
func (r *InviteRepo) FindByTokenHash(ctx context.Context, tokenHash string) (model.Invite, error) {
	return scanInvite(r.db.QueryRowContext(ctx,
		`SELECT `+inviteColumns+` FROM room_invites WHERE token_hash = ? LIMIT 1`, tokenHash))
}

// FindByCodeHash resolves an invite by its short-code hash.
func (r *InviteRepo) FindByCodeHash(ctx context.Context, codeHash string) (model.Invite, error) {
	return scanInvite(r.db.QueryRowContext(ctx,
		`SELECT `+inviteColumns+` FROM room_invites WHERE code_hash = ? LIMIT 1`, codeHash))
}

// Revoke marks an invite revoked. It is idempotent: an already revoked
// invite keeps its original revoked_at. Past use counts are unaffected.
// It returns ErrInviteNotFound when the invite does not belong to the
// given room.
func (r *InviteRepo) Revoke(ctx context.Context, inviteID, roomID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE room_invites SET revoked_at = UTC_TIMESTAMP()
		 WHERE id = ? AND room_id = ? AND revoked_at IS NULL`,
		inviteID, roomID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	// Zero rows is either "already revoked" (fine, keep the original
	// revoked_at) or "no such invite in this room".
	var exists int
	err = r.db.QueryRowContext(ctx,
		`SELECT 1 FROM room_invites WHERE id = ? AND room_id = ? LIMIT 1`,
		inviteID, roomID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrInviteNotFound
	}
	return err
}

// AcceptResult reports the outcome of a confirmed redemption.
type AcceptResult struct {
	RoomID        uint64
	AlreadyMember bool
}

// Accept performs a confirmed redemption in a single transaction:
//
//  1. re-read the invite row under an exclusive lock (SELECT ... FOR
//     UPDATE), so concurrent redemptions of the same invite serialize here;
//  2. re-check revoked / expired / exhausted against the locked row,
//     since the pre-lock resolve may have raced another redeemer;
//  3. if the user is not already a member, insert an EDITOR membership and
//     increment used_count. Redemption is idempotent per user: an existing
//     member consumes nothing and gets no error.
//
// members is used for the existence check and the insert so both run on
// the same transaction.
func (r *InviteRepo) Accept(ctx context.Context, members *MemberRepo, inviteID, userID uint64) (AcceptResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return AcceptResult{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	inv, err := scanInvite(tx.QueryRowContext(ctx,
		`SELECT `+inviteColumns+` FROM room_invites WHERE id = ? FOR UPDATE`, inviteID))
	if err != nil {
		return AcceptResult{}, err
	}
	if err := inv.RedeemableAt(time.Now().UTC()); err != nil {
		return AcceptResult{}, err
	}

	already, err := members.ExistsTx(ctx, tx, inv.RoomID, userID)
	if err != nil {
		return AcceptResult{}, err
	}
	if !already {
		if err := members.InsertTx(ctx, tx, inv.RoomID, userID, model.RoleEditor); err != nil {
			return AcceptResult{}, err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE room_invites SET used_count = used_count + 1 WHERE id = ?`, inv.ID); err != nil {
			return AcceptResult{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return AcceptResult{}, err
	}
	committed = true
	return AcceptResult{RoomID: inv.RoomID, AlreadyMember: already}, nil
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triproom/server/internal/model"
)

func newMockInviteRepo(t *testing.T) (*InviteRepo, *MemberRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewInviteRepo(db), NewMemberRepo(db), mock
}

func lockedInviteRows(usedCount, maxUses uint32, revokedAt *time.Time) *sqlmock.Rows {
	var revoked interface{}
	if revokedAt != nil {
		revoked = *revokedAt
	}
	return sqlmock.NewRows([]string{
		"id", "room_id", "created_by", "token_hash", "code_hash",
		"expires_at", "max_uses", "used_count", "revoked_at", "created_at",
	}).AddRow(
		5, 1, 2, "tokenhash", nil,
		time.Now().UTC().Add(24*time.Hour), maxUses, usedCount, revoked, time.Now().UTC(),
	)
}

func TestInviteAcceptNewMember(t *testing.T) {
	repo, members, mock := newMockInviteRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM room_invites WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(5)).
		WillReturnRows(lockedInviteRows(3, 10, nil))
	mock.ExpectQuery(`SELECT 1 FROM room_members WHERE room_id = \? AND user_id = \? LIMIT 1`).
		WithArgs(uint64(1), uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectExec(`INSERT INTO room_members \(room_id, user_id, role\) VALUES \(\?, \?, \?\)`).
		WithArgs(uint64(1), uint64(42), model.RoleEditor).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE room_invites SET used_count = used_count \+ 1 WHERE id = \?`).
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := repo.Accept(context.Background(), members, 5, 42)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.RoomID)
	assert.False(t, res.AlreadyMember)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// An existing member consumes nothing: no membership insert, no
// used_count increment, and no error.
func TestInviteAcceptAlreadyMember(t *testing.T) {
	repo, members, mock := newMockInviteRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM room_invites WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(5)).
		WillReturnRows(lockedInviteRows(3, 10, nil))
	mock.ExpectQuery(`SELECT 1 FROM room_members WHERE room_id = \? AND user_id = \? LIMIT 1`).
		WithArgs(uint64(1), uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectCommit()

	res, err := repo.Accept(context.Background(), members, 5, 42)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.RoomID)
	assert.True(t, res.AlreadyMember)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The cap is re-checked against the locked row, so an invite that became
// exhausted after the pre-lock resolve still fails here.
func TestInviteAcceptExhaustedUnderLock(t *testing.T) {
	repo, members, mock := newMockInviteRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM room_invites WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(5)).
		WillReturnRows(lockedInviteRows(10, 10, nil))
	mock.ExpectRollback()

	_, err := repo.Accept(context.Background(), members, 5, 42)
	assert.ErrorIs(t, err, model.ErrInviteExhausted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInviteAcceptRevokedUnderLock(t *testing.T) {
	repo, members, mock := newMockInviteRepo(t)

	revoked := time.Now().UTC().Add(-time.Hour)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM room_invites WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(5)).
		WillReturnRows(lockedInviteRows(3, 10, &revoked))
	mock.ExpectRollback()

	_, err := repo.Accept(context.Background(), members, 5, 42)
	assert.ErrorIs(t, err, model.ErrInviteRevoked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Revoking twice keeps the first revoked_at: the guarded UPDATE matches
// nothing and the follow-up probe confirms the invite exists.
func TestInviteRevokeIdempotent(t *testing.T) {
	repo, _, mock := newMockInviteRepo(t)

	mock.ExpectExec(`(?s)UPDATE room_invites SET revoked_at = UTC_TIMESTAMP\(\)\s+WHERE id = \? AND room_id = \? AND revoked_at IS NULL`).
		WithArgs(uint64(5), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT 1 FROM room_invites WHERE id = \? AND room_id = \? LIMIT 1`).
		WithArgs(uint64(5), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	require.NoError(t, repo.Revoke(context.Background(), 5, 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInviteRevokeUnknownInvite(t *testing.T) {
	repo, _, mock := newMockInviteRepo(t)

	mock.ExpectExec(`(?s)UPDATE room_invites SET revoked_at = UTC_TIMESTAMP\(\)\s+WHERE id = \? AND room_id = \? AND revoked_at IS NULL`).
		WithArgs(uint64(5), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT 1 FROM room_invites WHERE id = \? AND room_id = \? LIMIT 1`).
		WithArgs(uint64(5), uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	assert.ErrorIs(t, repo.Revoke(context.Background(), 5, 1), ErrInviteNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

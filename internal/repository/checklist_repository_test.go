package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triproom/server/internal/model"
)

const checklistCASPattern = `(?s)UPDATE checklist_items\s+SET name = \?, version = version \+ 1\s+WHERE room_id = \? AND id = \? AND version = \?`

func newMockChecklistRepo(t *testing.T) (*ChecklistRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewChecklistRepo(db), mock
}

func namePatch(name string) ChecklistPatch {
	return ChecklistPatch{Name: &name}
}

func TestChecklistUpdateMatchingVersion(t *testing.T) {
	repo, mock := newMockChecklistRepo(t)

	mock.ExpectExec(checklistCASPattern).
		WithArgs("Sunscreen", uint64(1), uint64(9), uint32(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), 1, 9, 2, namePatch("Sunscreen")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChecklistUpdateStaleVersionConflicts(t *testing.T) {
	repo, mock := newMockChecklistRepo(t)

	mock.ExpectExec(checklistCASPattern).
		WithArgs("Sunscreen", uint64(1), uint64(9), uint32(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT 1 FROM checklist_items WHERE room_id = \? AND id = \? LIMIT 1`).
		WithArgs(uint64(1), uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	err := repo.Update(context.Background(), 1, 9, 1, namePatch("Sunscreen"))
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChecklistUpdateMissingItem(t *testing.T) {
	repo, mock := newMockChecklistRepo(t)

	mock.ExpectExec(checklistCASPattern).
		WithArgs("Sunscreen", uint64(1), uint64(9), uint32(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT 1 FROM checklist_items WHERE room_id = \? AND id = \? LIMIT 1`).
		WithArgs(uint64(1), uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	err := repo.Update(context.Background(), 1, 9, 1, namePatch("Sunscreen"))
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChecklistUpdateRenameCollision(t *testing.T) {
	repo, mock := newMockChecklistRepo(t)

	mock.ExpectExec(checklistCASPattern).
		WithArgs("Towels", uint64(1), uint64(9), uint32(2)).
		WillReturnError(errors.New("Error 1062: Duplicate entry 'Towels' for key 'uq_checklist_room_category_name'"))

	err := repo.Update(context.Background(), 1, 9, 2, namePatch("Towels"))
	assert.ErrorIs(t, err, ErrDuplicateChecklistItem)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChecklistCreateDuplicate(t *testing.T) {
	repo, mock := newMockChecklistRepo(t)

	mock.ExpectExec(`INSERT INTO checklist_items`).
		WillReturnError(errors.New("Error 1062: Duplicate entry"))

	item := &model.ChecklistItem{RoomID: 1, Name: "Towels", Quantity: 2}
	_, err := repo.Create(context.Background(), item)
	assert.ErrorIs(t, err, ErrDuplicateChecklistItem)
	assert.NoError(t, mock.ExpectationsWereMet())
}

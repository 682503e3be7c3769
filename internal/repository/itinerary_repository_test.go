package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The version check and the increment must live in one UPDATE statement;
// these tests pin that shape and the zero-rows disambiguation.

const itineraryCASPattern = `(?s)UPDATE itinerary_items\s+SET title = \?, updated_by = \?, version = version \+ 1\s+WHERE room_id = \? AND id = \? AND version = \?`

func newMockItineraryRepo(t *testing.T) (*ItineraryRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewItineraryRepo(db), mock
}

func titlePatch(title string) ItineraryPatch {
	return ItineraryPatch{Title: &title}
}

func TestItineraryUpdateMatchingVersion(t *testing.T) {
	repo, mock := newMockItineraryRepo(t)

	mock.ExpectExec(itineraryCASPattern).
		WithArgs("Louvre", uint64(7), uint64(1), uint64(42), uint32(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), 1, 42, 3, 7, titlePatch("Louvre"))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItineraryUpdateStaleVersionConflicts(t *testing.T) {
	repo, mock := newMockItineraryRepo(t)

	mock.ExpectExec(itineraryCASPattern).
		WithArgs("Louvre", uint64(7), uint64(1), uint64(42), uint32(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	// The item still exists, so the zero-row update was a stale version.
	mock.ExpectQuery(`SELECT 1 FROM itinerary_items WHERE room_id = \? AND id = \? LIMIT 1`).
		WithArgs(uint64(1), uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	err := repo.Update(context.Background(), 1, 42, 2, 7, titlePatch("Louvre"))
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItineraryUpdateMissingItem(t *testing.T) {
	repo, mock := newMockItineraryRepo(t)

	mock.ExpectExec(itineraryCASPattern).
		WithArgs("Louvre", uint64(7), uint64(1), uint64(42), uint32(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT 1 FROM itinerary_items WHERE room_id = \? AND id = \? LIMIT 1`).
		WithArgs(uint64(1), uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	err := repo.Update(context.Background(), 1, 42, 2, 7, titlePatch("Louvre"))
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItineraryDeleteMissingItem(t *testing.T) {
	repo, mock := newMockItineraryRepo(t)

	mock.ExpectExec(`DELETE FROM itinerary_items WHERE room_id = \? AND id = \?`).
		WithArgs(uint64(1), uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 1, 42), ErrItemNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItineraryReorderStaleDayVersion(t *testing.T) {
	repo, mock := newMockItineraryRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO itinerary_days`).
		WithArgs(uint64(1), "2026-09-01").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT id, version FROM itinerary_days WHERE room_id = \? AND day_date = \? FOR UPDATE`).
		WithArgs(uint64(1), "2026-09-01").
		WillReturnRows(sqlmock.NewRows([]string{"id", "version"}).AddRow(5, 4))
	mock.ExpectRollback()

	_, err := repo.Reorder(context.Background(), 1, "2026-09-01", 3, []uint64{10, 11}, 7)
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItineraryReorderBumpsDayVersion(t *testing.T) {
	repo, mock := newMockItineraryRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO itinerary_days`).
		WithArgs(uint64(1), "2026-09-01").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT id, version FROM itinerary_days WHERE room_id = \? AND day_date = \? FOR UPDATE`).
		WithArgs(uint64(1), "2026-09-01").
		WillReturnRows(sqlmock.NewRows([]string{"id", "version"}).AddRow(5, 3))
	mock.ExpectQuery(`SELECT id FROM itinerary_items WHERE room_id = \? AND day_date = \?`).
		WithArgs(uint64(1), "2026-09-01").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10).AddRow(11))
	mock.ExpectExec(`(?s)UPDATE itinerary_items\s+SET order_index = \?, updated_by = \?, version = version \+ 1\s+WHERE room_id = \? AND id = \?`).
		WithArgs(0, uint64(7), uint64(1), uint64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`(?s)UPDATE itinerary_items\s+SET order_index = \?, updated_by = \?, version = version \+ 1\s+WHERE room_id = \? AND id = \?`).
		WithArgs(1, uint64(7), uint64(1), uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE itinerary_days SET version = version \+ 1 WHERE id = \?`).
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	newVersion, err := repo.Reorder(context.Background(), 1, "2026-09-01", 3, []uint64{11, 10}, 7)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), newVersion)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/triproom/server/internal/model"
)

// ItineraryRepo provides data access to itinerary_items and their per-day
// version rows in itinerary_days. Single-item updates rely purely on an
// optimistic compare-and-swap (version match and increment in one UPDATE);
// reordering locks the day row because it rewrites many items at once and
// the day version is the unit of conflict.
type ItineraryRepo struct {
	db *sql.DB
}

// NewItineraryRepo returns a new ItineraryRepo bound to the given database.
func NewItineraryRepo(db *sql.DB) *ItineraryRepo { return &ItineraryRepo{db: db} }

// ItineraryPatch describes a column-level diff for an item update. Nil
// fields are left untouched. For nullable text columns an empty string
// clears the column to NULL; DurationMin zero clears duration_min.
type ItineraryPatch struct {
	Title       *string
	Memo        *string
	PlaceRef    *string
	StartTime   *string
	DurationMin *uint32
	Status      *string
}

// Empty reports whether the patch touches no columns at all.
func (p ItineraryPatch) Empty() bool {
	return p.Title == nil && p.Memo == nil && p.PlaceRef == nil &&
		p.StartTime == nil && p.DurationMin == nil && p.Status == nil
}

// ensureDayTx lazily creates the version row for (room, day) with version
// 1. The INSERT is a no-op when the row already exists.
func ensureDayTx(ctx context.Context, tx *sql.Tx, roomID uint64, dayDate string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO itinerary_days (room_id, day_date, version)
		 VALUES (?, ?, 1)
		 ON DUPLICATE KEY UPDATE id = id`,
		roomID, dayDate)
	return err
}

// GetDayVersion returns the current version of a day, or 1 when no item
// has ever been written for that date.
func (r *ItineraryRepo) GetDayVersion(ctx context.Context, roomID uint64, dayDate string) (uint32, error) {
	var v uint32
	err := r.db.QueryRowContext(ctx,
		`SELECT version FROM itinerary_days WHERE room_id = ? AND day_date = ? LIMIT 1`,
		roomID, dayDate).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 1, nil
	}
	return v, err
}

// ListByDay returns the day's items ordered by their order index. Items
// never move between days, so a day listing plus the day version is a
// complete, reorder-consistent snapshot.
func (r *ItineraryRepo) ListByDay(ctx context.Context, roomID uint64, dayDate string) ([]model.ItineraryItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, room_id, DATE_FORMAT(day_date, '%Y-%m-%d'), order_index, title, memo, place_ref,
		        start_time, duration_min, status, version,
		        created_by, updated_by, created_at, updated_at
		 FROM itinerary_items
		 WHERE room_id = ? AND day_date = ?
		 ORDER BY order_index ASC, id ASC`,
		roomID, dayDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.ItineraryItem, 0)
	for rows.Next() {
		var it model.ItineraryItem
		if err := rows.Scan(&it.ID, &it.RoomID, &it.DayDate, &it.OrderIndex, &it.Title,
			&it.Memo, &it.PlaceRef, &it.StartTime, &it.DurationMin, &it.Status, &it.Version,
			&it.CreatedBy, &it.UpdatedBy, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Create inserts an item at the end of the day's ordering and returns its
// id. The order index is computed inside the transaction so two
// concurrent creates cannot claim the same slot, and the day version row
// is created on first use. New items start at version 1.
func (r *ItineraryRepo) Create(ctx context.Context, item *model.ItineraryItem) (uint64, error) {
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

	if err := ensureDayTx(ctx, tx, item.RoomID, item.DayDate); err != nil {
		return 0, err
	}
	// Lock the day row while counting so concurrent creates serialize on
	// the order index.
	var dayID uint64
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM itinerary_days WHERE room_id = ? AND day_date = ? FOR UPDATE`,
		item.RoomID, item.DayDate).Scan(&dayID); err != nil {
		return 0, err
	}
	var count uint32
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM itinerary_items WHERE room_id = ? AND day_date = ?`,
		item.RoomID, item.DayDate).Scan(&count); err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO itinerary_items
		   (room_id, day_date, order_index, title, memo, place_ref, start_time,
		    duration_min, status, version, created_by, updated_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		item.RoomID, item.DayDate, count, item.Title, item.Memo, item.PlaceRef,
		item.StartTime, item.DurationMin, item.Status, item.CreatedBy, item.CreatedBy)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	item.ID = uint64(id)
	item.OrderIndex = count
	item.Version = 1
	return item.ID, nil
}

// Update applies a column-level diff to an item, but only when the stored
// version equals expectedVersion. Version check and increment happen in
// the same UPDATE statement: there is no read-modify-write window, so a
// lost update is impossible. Zero affected rows means either a stale
// version (ErrVersionConflict) or a missing item (ErrItemNotFound); the
// two are told apart with a follow-up existence probe.
func (r *ItineraryRepo) Update(ctx context.Context, roomID, itemID uint64, expectedVersion uint32, actorID uint64, p ItineraryPatch) error {
	sets := make([]string, 0, 7)
	args := make([]interface{}, 0, 10)
	addSet := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if p.Title != nil {
		addSet("title", *p.Title)
	}
	if p.Memo != nil {
		addSet("memo", nullIfEmpty(*p.Memo))
	}
	if p.PlaceRef != nil {
		addSet("place_ref", nullIfEmpty(*p.PlaceRef))
	}
	if p.StartTime != nil {
		addSet("start_time", nullIfEmpty(*p.StartTime))
	}
	if p.DurationMin != nil {
		if *p.DurationMin == 0 {
			addSet("duration_min", nil)
		} else {
			addSet("duration_min", *p.DurationMin)
		}
	}
	if p.Status != nil {
		addSet("status", *p.Status)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, actorID, roomID, itemID, expectedVersion)
	res, err := r.db.ExecContext(ctx,
		`UPDATE itinerary_items
		 SET `+strings.Join(sets, ", ")+`, updated_by = ?, version = version + 1
		 WHERE room_id = ? AND id = ? AND version = ?`,
		args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return r.conflictOrMissing(ctx, roomID, itemID)
	}
	return nil
}

// Delete removes an item permanently. There is no soft delete and no
// undo; the change log is the only record it existed.
func (r *ItineraryRepo) Delete(ctx context.Context, roomID, itemID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM itinerary_items WHERE room_id = ? AND id = ?`,
		roomID, itemID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Reorder rewrites the order indices of a day's items in one transaction.
// The day row is locked first; a stale expectedDayVersion fails with
// ErrVersionConflict before anything is written. orderedIDs must be
// exactly the day's current item set; any omission, duplicate or foreign
// id fails with ErrReorderSetMismatch. On success items take indices
// 0..n-1 in the given sequence, each touched item's version increments,
// and the day version increments by one. The new day version is returned.
func (r *ItineraryRepo) Reorder(ctx context.Context, roomID uint64, dayDate string, expectedDayVersion uint32, orderedIDs []uint64, actorID uint64) (uint32, error) {
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

	if err := ensureDayTx(ctx, tx, roomID, dayDate); err != nil {
		return 0, err
	}
	var dayID uint64
	var current uint32
	if err := tx.QueryRowContext(ctx,
		`SELECT id, version FROM itinerary_days WHERE room_id = ? AND day_date = ? FOR UPDATE`,
		roomID, dayDate).Scan(&dayID, &current); err != nil {
		return 0, err
	}
	if current != expectedDayVersion {
		return 0, ErrVersionConflict
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM itinerary_items WHERE room_id = ? AND day_date = ?`,
		roomID, dayDate)
	if err != nil {
		return 0, err
	}
	existing := make([]uint64, 0, len(orderedIDs))
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		existing = append(existing, id)
	}
	if err := rows.Close(); err != nil {
		return 0, err
	}
	if err := ValidateReorderSet(existing, orderedIDs); err != nil {
		return 0, err
	}

	for i, id := range orderedIDs {
		if _, err := tx.ExecContext(ctx,
			`UPDATE itinerary_items
			 SET order_index = ?, updated_by = ?, version = version + 1
			 WHERE room_id = ? AND id = ?`,
			i, actorID, roomID, id); err != nil {
			return 0, err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE itinerary_days SET version = version + 1 WHERE id = ?`, dayID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return current + 1, nil
}

// ValidateReorderSet checks that ordered is a permutation of current:
// same length, no duplicates, and every id present in current. Partial
// reorders are rejected so a client working from a stale listing cannot
// silently drop an item to the end of the day.
func ValidateReorderSet(current, ordered []uint64) error {
	if len(current) != len(ordered) {
		return ErrReorderSetMismatch
	}
	have := make(map[uint64]struct{}, len(current))
	for _, id := range current {
		have[id] = struct{}{}
	}
	seen := make(map[uint64]struct{}, len(ordered))
	for _, id := range ordered {
		if _, ok := have[id]; !ok {
			return ErrReorderSetMismatch
		}
		if _, dup := seen[id]; dup {
			return ErrReorderSetMismatch
		}
		seen[id] = struct{}{}
	}
	return nil
}

// conflictOrMissing disambiguates a zero-row conditional update: when the
// item still exists the version was stale, otherwise the item is gone.
func (r *ItineraryRepo) conflictOrMissing(ctx context.Context, roomID, itemID uint64) error {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM itinerary_items WHERE room_id = ? AND id = ? LIMIT 1`,
		roomID, itemID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrItemNotFound
	}
	if err != nil {
		return err
	}
	return ErrVersionConflict
}

// nullIfEmpty maps an empty string to SQL NULL for nullable text columns.
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

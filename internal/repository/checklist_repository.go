package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/triproom/server/internal/model"
)

// ChecklistRepo provides data access to the checklist_items table.
// Checklist items are flat per room (no day grouping, no ordering), so
// unlike the itinerary there is no container version: the per-item
// compare-and-swap is the whole concurrency story.
type ChecklistRepo struct {
	db *sql.DB
}

// NewChecklistRepo returns a new ChecklistRepo bound to the given database.
func NewChecklistRepo(db *sql.DB) *ChecklistRepo { return &ChecklistRepo{db: db} }

// ChecklistPatch describes a column-level diff for an item update. Nil
// fields are left untouched; empty Category clears it to NULL, zero
// AssigneeID clears the assignee.
type ChecklistPatch struct {
	Category   *string
	Name       *string
	Quantity   *uint32
	AssigneeID *uint64
	Done       *bool
}

// Empty reports whether the patch touches no columns at all.
func (p ChecklistPatch) Empty() bool {
	return p.Category == nil && p.Name == nil && p.Quantity == nil &&
		p.AssigneeID == nil && p.Done == nil
}

// List returns the room's checklist items in insertion order.
func (r *ChecklistRepo) List(ctx context.Context, roomID uint64) ([]model.ChecklistItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, room_id, category, name, quantity, assignee_id, done, version,
		        created_at, updated_at
		 FROM checklist_items
		 WHERE room_id = ?
		 ORDER BY id ASC`,
		roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.ChecklistItem, 0)
	for rows.Next() {
		var it model.ChecklistItem
		if err := rows.Scan(&it.ID, &it.RoomID, &it.Category, &it.Name, &it.Quantity,
			&it.AssigneeID, &it.Done, &it.Version, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Create inserts a checklist item at version 1 and returns its id. A
// collision on the unique (room_id, category, name) key is reported as
// ErrDuplicateChecklistItem; duplicates are rejected, never merged.
func (r *ChecklistRepo) Create(ctx context.Context, item *model.ChecklistItem) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO checklist_items (room_id, category, name, quantity, assignee_id, done, version)
		 VALUES (?, ?, ?, ?, ?, 0, 1)`,
		item.RoomID, item.Category, item.Name, item.Quantity, item.AssigneeID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrDuplicateChecklistItem
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	item.ID = uint64(id)
	item.Version = 1
	return item.ID, nil
}

// Update applies a column-level diff under the optimistic version check:
// the UPDATE both compares and increments version, so a concurrent editor
// cannot be silently overwritten. Renames can also hit the (room,
// category, name) unique key, reported as ErrDuplicateChecklistItem.
func (r *ChecklistRepo) Update(ctx context.Context, roomID, itemID uint64, expectedVersion uint32, p ChecklistPatch) error {
	sets := make([]string, 0, 5)
	args := make([]interface{}, 0, 8)
	addSet := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if p.Category != nil {
		addSet("category", nullIfEmpty(*p.Category))
	}
	if p.Name != nil {
		addSet("name", *p.Name)
	}
	if p.Quantity != nil {
		addSet("quantity", *p.Quantity)
	}
	if p.AssigneeID != nil {
		if *p.AssigneeID == 0 {
			addSet("assignee_id", nil)
		} else {
			addSet("assignee_id", *p.AssigneeID)
		}
	}
	if p.Done != nil {
		addSet("done", *p.Done)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, roomID, itemID, expectedVersion)
	res, err := r.db.ExecContext(ctx,
		`UPDATE checklist_items
		 SET `+strings.Join(sets, ", ")+`, version = version + 1
		 WHERE room_id = ? AND id = ? AND version = ?`,
		args...)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrDuplicateChecklistItem
		}
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

// Delete removes an item permanently.
func (r *ChecklistRepo) Delete(ctx context.Context, roomID, itemID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM checklist_items WHERE room_id = ? AND id = ?`,
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

func (r *ChecklistRepo) conflictOrMissing(ctx context.Context, roomID, itemID uint64) error {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM checklist_items WHERE room_id = ? AND id = ? LIMIT 1`,
		roomID, itemID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrItemNotFound
	}
	if err != nil {
		return err
	}
	return ErrVersionConflict
}

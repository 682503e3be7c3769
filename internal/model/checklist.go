package model

import "time"

// ChecklistItem is a packing/preparation entry shared by a room. The
// (room_id, category, name) triple is unique; creating a duplicate is
// rejected, never merged. Like itinerary items, checklist items carry a
// per-row version counter for optimistic concurrency.
type ChecklistItem struct {
	ID         uint64    // checklist_items.id
	RoomID     uint64    // checklist_items.room_id
	Category   *string   // checklist_items.category (nullable)
	Name       string    // checklist_items.name
	Quantity   uint32    // checklist_items.quantity
	AssigneeID *uint64   // checklist_items.assignee_id (nullable)
	Done       bool      // checklist_items.done
	Version    uint32    // checklist_items.version
	CreatedAt  time.Time // checklist_items.created_at
	UpdatedAt  time.Time // checklist_items.updated_at
}

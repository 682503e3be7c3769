package model

import "time"

// ChangeLogEntry is one row of a room's append-only audit trail. Entries
// are inserted after the mutation they describe has committed and are never
// updated or deleted.
//
// Fields:
//  ID         – primary key identifier.
//  RoomID     – room the mutation happened in.
//  ActorID    – user who performed the mutation (nullable for system rows).
//  EntityType – kind of entity that changed.
//  EntityID   – id of the changed entity; null for bulk operations such as
//               a day reorder.
//  Action     – CREATE, UPDATE, DELETE or REORDER.
//  Diff       – opaque JSON payload describing the change.
//  CreatedAt  – when the entry was appended.
type ChangeLogEntry struct {
	ID         uint64     // room_change_logs.id
	RoomID     uint64     // room_change_logs.room_id
	ActorID    *uint64    // room_change_logs.actor_id (nullable)
	EntityType EntityType // room_change_logs.entity_type
	EntityID   *uint64    // room_change_logs.entity_id (nullable)
	Action     Action     // room_change_logs.action
	Diff       *string    // room_change_logs.diff_json (nullable)
	CreatedAt  time.Time  // room_change_logs.created_at
}

// Package queue defines the broker-facing message shapes and the
// background consumer that turns room activity into an append-only
// activity log file.
package queue

import "time"

// QueueRoomActivity is the durable queue room mutations are published to.
const QueueRoomActivity = "room.activity"

// RoomActivityEvent is the JSON body published for every committed room
// mutation. It mirrors the websocket event but is flattened for offline
// consumers that have no session context.
type RoomActivityEvent struct {
	Event      string    `json:"event"`
	RoomID     uint64    `json:"room_id"`
	ActorID    *uint64   `json:"actor_id,omitempty"`
	EntityType string    `json:"entity_type"`
	EntityID   *uint64   `json:"entity_id,omitempty"`
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurred_at"`
}

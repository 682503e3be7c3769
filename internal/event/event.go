// Package event carries mutation notifications from the HTTP handlers to
// the audit log, the websocket hub and the message broker. Handlers build
// an Event after their database transaction has committed and hand it to
// the Dispatcher; nothing in this package can fail a request.
package event

import (
	"github.com/triproom/server/internal/model"
)

// Event names pushed over the room channel and onto the broker. The
// convention is "<area>:<verb>".
const (
	RoomCreated       = "room:created"
	MemberJoined      = "member:joined"
	MemberRoleUpdated = "member:role_updated"

	InviteCreated = "invite:created"
	InviteRevoked = "invite:revoked"

	ItineraryCreated   = "itinerary:created"
	ItineraryUpdated   = "itinerary:updated"
	ItineraryDeleted   = "itinerary:deleted"
	ItineraryReordered = "itinerary:reordered"

	ChecklistCreated = "checklist:created"
	ChecklistUpdated = "checklist:updated"
	ChecklistDeleted = "checklist:deleted"
)

// Event describes one committed mutation.
//
// Fields:
//   - Name: one of the event name constants above.
//   - RoomID / ActorID: where it happened and who did it. ActorID is nil
//     for system-originated changes.
//   - EntityType / EntityID / Action: what the audit log records.
//   - Diff: optional JSON fragment stored alongside the audit entry.
//   - Payload: what subscribers receive; built by the handler, usually
//     the mutated entity plus roomId/actorId/updatedAt.
type Event struct {
	Name       string
	RoomID     uint64
	ActorID    *uint64
	EntityType model.EntityType
	EntityID   *uint64
	Action     model.Action
	Diff       interface{}
	Payload    interface{}
}

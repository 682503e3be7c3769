package model

import "fmt"

// Role is a member's privilege level inside a room. Roles form a strict
// order: VIEWER < EDITOR < OWNER. Authorization everywhere in the API is
// expressed as "actual role is at least the required role", so new code
// should use AtLeast rather than comparing role values directly.
type Role string

const (
	RoleViewer Role = "VIEWER"
	RoleEditor Role = "EDITOR"
	RoleOwner  Role = "OWNER"
)

// rank maps each role to its position in the privilege order. Unknown
// roles rank below VIEWER so they never pass an AtLeast check.
func (r Role) rank() int {
	switch r {
	case RoleViewer:
		return 1
	case RoleEditor:
		return 2
	case RoleOwner:
		return 3
	}
	return 0
}

// AtLeast reports whether r grants the privileges of min.
func (r Role) AtLeast(min Role) bool { return r.rank() >= min.rank() }

// ParseRole validates a role string received from a client. Only the three
// canonical upper-case values are accepted.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleViewer, RoleEditor, RoleOwner:
		return Role(s), nil
	}
	return "", fmt.Errorf("invalid role %q", s)
}

// Action identifies what kind of mutation a change-log entry records.
type Action string

const (
	ActionCreate  Action = "CREATE"
	ActionUpdate  Action = "UPDATE"
	ActionDelete  Action = "DELETE"
	ActionReorder Action = "REORDER"
)

// EntityType identifies which kind of entity a change-log entry or a
// realtime event refers to.
type EntityType string

const (
	EntityRoom          EntityType = "room"
	EntityMember        EntityType = "member"
	EntityInvite        EntityType = "invite"
	EntityItineraryItem EntityType = "itinerary_item"
	EntityItineraryDay  EntityType = "itinerary_day"
	EntityChecklistItem EntityType = "checklist_item"
)

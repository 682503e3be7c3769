// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios and map
// them to stable HTTP statuses. Invite lifecycle errors (revoked,
// expired, exhausted) live next to the redeemability check in the model
// package; the sentinels here cover lookups and concurrency.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// room they are not a member of, or with a role below the required one.
// Handlers translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrRoomNotFound is returned when a room id does not resolve to a room.
var ErrRoomNotFound = errors.New("room not found")

// ErrMemberNotFound is returned when a role change targets a user who is
// not a member of the room.
var ErrMemberNotFound = errors.New("member not found")

// ErrItemNotFound is returned when an itinerary or checklist item id does
// not exist in the given room. Deletes and updates of absent rows report
// this rather than succeeding silently.
var ErrItemNotFound = errors.New("item not found")

// ErrInviteNotFound is returned when neither the token hash nor the code
// hash matches a stored invite. Revoked and expired invites still
// resolve; they fail later with their specific lifecycle error.
var ErrInviteNotFound = errors.New("invite not found")

// ErrVersionConflict is returned when a conditional update or a reorder
// carries a stale expected version. The write is guaranteed not to have
// happened; the caller must re-fetch and resubmit. Handlers translate
// this into an HTTP 409 response.
var ErrVersionConflict = errors.New("version conflict")

// ErrDuplicateChecklistItem is returned when a checklist create collides
// with the unique (room, category, name) constraint.
var ErrDuplicateChecklistItem = errors.New("duplicate checklist item")

// ErrReorderSetMismatch is returned when a reorder's id list does not
// exactly equal the current item set of the day: partial reorders and
// foreign ids are both rejected.
var ErrReorderSetMismatch = errors.New("reorder id set mismatch")

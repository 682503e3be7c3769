package model

import "time"

// Room represents a shared trip-planning workspace as stored in the
// `rooms` table. A room always has exactly one OWNER membership, created
// in the same transaction as the room itself; ownership only moves through
// an explicit role change.
//
// Fields:
//  ID              – primary key identifier.
//  OwnerID         – user who created the room.
//  Title           – display title.
//  Description     – optional free-form description.
//  TravelStartDate – optional first day of the trip (date only).
//  TravelEndDate   – optional last day of the trip (date only).
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Room struct {
	ID              uint64     // rooms.id
	OwnerID         uint64     // rooms.owner_id
	Title           string     // rooms.title
	Description     *string    // rooms.description (nullable)
	TravelStartDate *string    // rooms.travel_start_date (nullable, YYYY-MM-DD)
	TravelEndDate   *string    // rooms.travel_end_date (nullable, YYYY-MM-DD)
	CreatedAt       time.Time  // rooms.created_at
	UpdatedAt       time.Time  // rooms.updated_at
}

// Membership links a user to a room with a role. The (room_id, user_id)
// pair is unique.
type Membership struct {
	RoomID   uint64    // room_members.room_id
	UserID   uint64    // room_members.user_id
	Role     Role      // room_members.role
	JoinedAt time.Time // room_members.joined_at
}

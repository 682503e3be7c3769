package model

import "time"

// ItineraryDay is the per-date container for a room's itinerary items. Its
// version counter scopes reorder conflicts: every successful reorder of the
// day's items increments it, and a reorder carrying a stale version is
// rejected. Day rows are created lazily on the first item write for a date.
type ItineraryDay struct {
	ID      uint64 // itinerary_days.id
	RoomID  uint64 // itinerary_days.room_id
	DayDate string // itinerary_days.day_date (YYYY-MM-DD)
	Version uint32 // itinerary_days.version
}

// ItineraryItem is a single scheduled entry for one day of a trip.
// Each item carries its own version counter for optimistic concurrency:
// updates only apply when the caller's expected version matches, and each
// successful update increments it by exactly one.
//
// Fields:
//  ID          – primary key identifier.
//  RoomID      – room this item belongs to.
//  DayDate     – day grouping key (YYYY-MM-DD).
//  OrderIndex  – position within the day, 0-based.
//  Title       – display title.
//  Memo        – optional free-form note.
//  PlaceRef    – optional external place reference.
//  StartTime   – optional start time (HH:MM).
//  DurationMin – optional duration in minutes.
//  Status      – PLANNED or DONE.
//  Version     – optimistic concurrency counter, starts at 1.
//  CreatedBy   – user who created the item.
//  UpdatedBy   – user who last modified the item.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type ItineraryItem struct {
	ID          uint64    // itinerary_items.id
	RoomID      uint64    // itinerary_items.room_id
	DayDate     string    // itinerary_items.day_date
	OrderIndex  uint32    // itinerary_items.order_index
	Title       string    // itinerary_items.title
	Memo        *string   // itinerary_items.memo (nullable)
	PlaceRef    *string   // itinerary_items.place_ref (nullable)
	StartTime   *string   // itinerary_items.start_time (nullable, HH:MM)
	DurationMin *uint32   // itinerary_items.duration_min (nullable)
	Status      string    // itinerary_items.status
	Version     uint32    // itinerary_items.version
	CreatedBy   uint64    // itinerary_items.created_by
	UpdatedBy   uint64    // itinerary_items.updated_by
	CreatedAt   time.Time // itinerary_items.created_at
	UpdatedAt   time.Time // itinerary_items.updated_at
}

package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/triproom/server/internal/event"
	"github.com/triproom/server/internal/middleware"
	"github.com/triproom/server/internal/model"
	"github.com/triproom/server/internal/repository"
)

// Kicker force-disconnects a user's live subscriptions to a room.
// Satisfied by *realtime.Hub.
type Kicker interface {
	KickUser(roomID, userID uint64)
}

// RoomHandler covers room creation, listing, detail and membership role
// changes.
type RoomHandler struct {
	Rooms      *repository.RoomRepo
	Members    *repository.MemberRepo
	Dispatcher *event.Dispatcher
	Kicker     Kicker
	Log        *logrus.Logger
}

func NewRoomHandler(rooms *repository.RoomRepo, members *repository.MemberRepo, d *event.Dispatcher, k Kicker, log *logrus.Logger) *RoomHandler {
	return &RoomHandler{Rooms: rooms, Members: members, Dispatcher: d, Kicker: k, Log: log}
}

type createRoomRequest struct {
	Title           string  `json:"title"`
	Description     *string `json:"description"`
	TravelStartDate *string `json:"travelStartDate"`
	TravelEndDate   *string `json:"travelEndDate"`
}

type roomResponse struct {
	ID              uint64    `json:"id"`
	OwnerID         uint64    `json:"ownerId"`
	Title           string    `json:"title"`
	Description     *string   `json:"description"`
	TravelStartDate *string   `json:"travelStartDate"`
	TravelEndDate   *string   `json:"travelEndDate"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toRoomResponse(r model.Room) roomResponse {
	return roomResponse{
		ID:              r.ID,
		OwnerID:         r.OwnerID,
		Title:           r.Title,
		Description:     r.Description,
		TravelStartDate: r.TravelStartDate,
		TravelEndDate:   r.TravelEndDate,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// Create makes a new room with the caller as OWNER.
func (h *RoomHandler) Create(c echo.Context) error {
	var req createRoomRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON body"})
	}
	if req.Title == "" || len(req.Title) > 120 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required (max 120 chars)"})
	}
	if msg := validateTravelDates(req.TravelStartDate, req.TravelEndDate); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	userID := middleware.UserID(c)
	roomID, err := h.Rooms.Create(c.Request().Context(), userID, req.Title, req.Description, req.TravelStartDate, req.TravelEndDate)
	if err != nil {
		h.Log.WithError(err).Error("room: create")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create room"})
	}

	room, err := h.Rooms.GetByID(c.Request().Context(), roomID)
	if err != nil {
		h.Log.WithError(err).Error("room: read back created room")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create room"})
	}

	h.Dispatcher.Dispatch(c.Request().Context(), event.Event{
		Name:       event.RoomCreated,
		RoomID:     roomID,
		ActorID:    &userID,
		EntityType: model.EntityRoom,
		EntityID:   &roomID,
		Action:     model.ActionCreate,
		Payload: echo.Map{
			"roomId":    roomID,
			"actorId":   userID,
			"room":      toRoomResponse(room),
			"updatedAt": room.UpdatedAt,
		},
	})
	return c.JSON(http.StatusCreated, toRoomResponse(room))
}

// ListMine returns every room the caller belongs to, newest first, with
// the caller's role and the member count.
func (h *RoomHandler) ListMine(c echo.Context) error {
	summaries, err := h.Rooms.ListForUser(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		h.Log.WithError(err).Error("room: list for user")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list rooms"})
	}
	out := make([]echo.Map, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, echo.Map{
			"room":        toRoomResponse(s.Room),
			"myRole":      s.MyRole,
			"memberCount": s.MemberCount,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": out})
}

// Detail returns the room, the caller's role and the member list. Any
// member may read it; the guarding middleware enforces membership.
func (h *RoomHandler) Detail(c echo.Context) error {
	roomID := middleware.RoomID(c)
	room, err := h.Rooms.GetByID(c.Request().Context(), roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		h.Log.WithError(err).Error("room: detail")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load room"})
	}
	members, err := h.Members.List(c.Request().Context(), roomID)
	if err != nil {
		h.Log.WithError(err).Error("room: list members")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load members"})
	}
	memberOut := make([]echo.Map, 0, len(members))
	for _, m := range members {
		entry := echo.Map{"userId": m.UserID, "nickname": m.Nickname, "role": m.Role}
		if m.JoinedAt.Valid {
			entry["joinedAt"] = m.JoinedAt.Time
		}
		memberOut = append(memberOut, entry)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"room":    toRoomResponse(room),
		"myRole":  middleware.RoomRole(c),
		"members": memberOut,
	})
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

// ChangeRole updates a member's role. Owner-only, bound by the router.
// The owner cannot change their own role, which guarantees the room never
// loses its single OWNER. When the change is a demotion to VIEWER the
// member's live subscriptions are cut so a stale connection cannot keep a
// privilege the database has already withdrawn.
func (h *RoomHandler) ChangeRole(c echo.Context) error {
	roomID := middleware.RoomID(c)
	targetID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil || targetID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	var req changeRoleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON body"})
	}
	role, err := model.ParseRole(req.Role)
	if err != nil || role == model.RoleOwner {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be VIEWER or EDITOR"})
	}

	actorID := middleware.UserID(c)
	if targetID == actorID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot change your own role"})
	}

	if err := h.Members.UpdateRole(c.Request().Context(), roomID, targetID, role); err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "member not found"})
		}
		h.Log.WithError(err).Error("room: change role")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to change role"})
	}

	if role == model.RoleViewer && h.Kicker != nil {
		h.Kicker.KickUser(roomID, targetID)
	}

	now := time.Now().UTC()
	h.Dispatcher.Dispatch(c.Request().Context(), event.Event{
		Name:       event.MemberRoleUpdated,
		RoomID:     roomID,
		ActorID:    &actorID,
		EntityType: model.EntityMember,
		EntityID:   &targetID,
		Action:     model.ActionUpdate,
		Diff:       echo.Map{"role": role},
		Payload: echo.Map{
			"roomId":    roomID,
			"actorId":   actorID,
			"userId":    targetID,
			"role":      role,
			"updatedAt": now,
		},
	})
	return c.JSON(http.StatusOK, echo.Map{"userId": targetID, "role": role})
}

// validateTravelDates checks the optional YYYY-MM-DD pair and their
// ordering. Returns an error message, or "" when valid.
func validateTravelDates(start, end *string) string {
	parse := func(s *string) (time.Time, bool, string) {
		if s == nil {
			return time.Time{}, false, ""
		}
		t, err := time.Parse("2006-01-02", *s)
		if err != nil {
			return time.Time{}, false, "dates must be formatted YYYY-MM-DD"
		}
		return t, true, ""
	}
	s, hasStart, msg := parse(start)
	if msg != "" {
		return msg
	}
	e, hasEnd, msg := parse(end)
	if msg != "" {
		return msg
	}
	if hasStart && hasEnd && e.Before(s) {
		return "travelEndDate must not be before travelStartDate"
	}
	return ""
}

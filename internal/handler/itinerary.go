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

// ItineraryHandler covers the per-day schedule: listing, item CRUD and
// the whole-day reorder. Every write is guarded by a version token; a
// stale token yields 409 and the write is guaranteed not to have
// happened.
type ItineraryHandler struct {
	Items      *repository.ItineraryRepo
	Dispatcher *event.Dispatcher
	Log        *logrus.Logger
}

func NewItineraryHandler(items *repository.ItineraryRepo, d *event.Dispatcher, log *logrus.Logger) *ItineraryHandler {
	return &ItineraryHandler{Items: items, Dispatcher: d, Log: log}
}

type itineraryItemResponse struct {
	ID          uint64    `json:"id"`
	DayDate     string    `json:"day"`
	OrderIndex  uint32    `json:"orderIndex"`
	Title       string    `json:"title"`
	Memo        *string   `json:"memo"`
	PlaceRef    *string   `json:"placeRef"`
	StartTime   *string   `json:"startTime"`
	DurationMin *uint32   `json:"durationMin"`
	Status      string    `json:"status"`
	Version     uint32    `json:"version"`
	CreatedBy   uint64    `json:"createdBy"`
	UpdatedBy   uint64    `json:"updatedBy"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toItineraryResponse(it model.ItineraryItem) itineraryItemResponse {
	return itineraryItemResponse{
		ID:          it.ID,
		DayDate:     it.DayDate,
		OrderIndex:  it.OrderIndex,
		Title:       it.Title,
		Memo:        it.Memo,
		PlaceRef:    it.PlaceRef,
		StartTime:   it.StartTime,
		DurationMin: it.DurationMin,
		Status:      it.Status,
		Version:     it.Version,
		CreatedBy:   it.CreatedBy,
		UpdatedBy:   it.UpdatedBy,
		UpdatedAt:   it.UpdatedAt,
	}
}

// List returns one day's items in display order, along with the day's
// version so the client can attempt a reorder without another round trip.
func (h *ItineraryHandler) List(c echo.Context) error {
	day := c.QueryParam("day")
	if !validDay(day) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "day must be formatted YYYY-MM-DD"})
	}
	roomID := middleware.RoomID(c)
	ctx := c.Request().Context()

	items, err := h.Items.ListByDay(ctx, roomID, day)
	if err != nil {
		h.Log.WithError(err).Error("itinerary: list")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list itinerary"})
	}
	dayVersion, err := h.Items.GetDayVersion(ctx, roomID, day)
	if err != nil {
		h.Log.WithError(err).Error("itinerary: day version")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list itinerary"})
	}
	out := make([]itineraryItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toItineraryResponse(it))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"day":        day,
		"dayVersion": dayVersion,
		"items":      out,
	})
}

type createItineraryRequest struct {
	Day         string  `json:"day"`
	Title       string  `json:"title"`
	Memo        *string `json:"memo"`
	PlaceRef    *string `json:"placeRef"`
	StartTime   *string `json:"startTime"`
	DurationMin *uint32 `json:"durationMin"`
	Status      string  `json:"status"`
}

// Create appends an item to the end of the day's ordering.
func (h *ItineraryHandler) Create(c echo.Context) error {
	var req createItineraryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON body"})
	}
	if !validDay(req.Day) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "day must be formatted YYYY-MM-DD"})
	}
	if req.Title == "" || len(req.Title) > 200 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required (max 200 chars)"})
	}
	if req.StartTime != nil && !validClock(*req.StartTime) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "startTime must be formatted HH:MM"})
	}
	status := req.Status
	if status == "" {
		status = "PLANNED"
	}
	if status != "PLANNED" && status != "DONE" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be PLANNED or DONE"})
	}

	actorID := middleware.UserID(c)
	item := model.ItineraryItem{
		RoomID:      middleware.RoomID(c),
		DayDate:     req.Day,
		Title:       req.Title,
		Memo:        req.Memo,
		PlaceRef:    req.PlaceRef,
		StartTime:   req.StartTime,
		DurationMin: req.DurationMin,
		Status:      status,
		CreatedBy:   actorID,
		UpdatedBy:   actorID,
	}
	itemID, err := h.Items.Create(c.Request().Context(), &item)
	if err != nil {
		h.Log.WithError(err).Error("itinerary: create")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create item"})
	}
	item.UpdatedAt = time.Now().UTC()

	h.Dispatcher.Dispatch(c.Request().Context(), event.Event{
		Name:       event.ItineraryCreated,
		RoomID:     item.RoomID,
		ActorID:    &actorID,
		EntityType: model.EntityItineraryItem,
		EntityID:   &itemID,
		Action:     model.ActionCreate,
		Payload: echo.Map{
			"roomId":    item.RoomID,
			"actorId":   actorID,
			"item":      toItineraryResponse(item),
			"updatedAt": item.UpdatedAt,
		},
	})
	return c.JSON(http.StatusCreated, toItineraryResponse(item))
}

type patchItineraryRequest struct {
	Version     uint32  `json:"version"`
	Title       *string `json:"title"`
	Memo        *string `json:"memo"`
	PlaceRef    *string `json:"placeRef"`
	StartTime   *string `json:"startTime"`
	DurationMin *uint32 `json:"durationMin"`
	Status      *string `json:"status"`
}

// Update applies a partial edit under the item's version token. Omitted
// fields are untouched; an empty string clears a nullable text field and
// a zero durationMin clears the duration. A patch that touches nothing is
// rejected rather than burning a version increment.
func (h *ItineraryHandler) Update(c echo.Context) error {
	itemID, err := strconv.ParseUint(c.Param("itemId"), 10, 64)
	if err != nil || itemID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	var req patchItineraryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON body"})
	}
	if req.Version == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "version is required"})
	}
	if req.Title != nil && (*req.Title == "" || len(*req.Title) > 200) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title must be non-empty (max 200 chars)"})
	}
	if req.StartTime != nil && *req.StartTime != "" && !validClock(*req.StartTime) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "startTime must be formatted HH:MM"})
	}
	if req.Status != nil && *req.Status != "PLANNED" && *req.Status != "DONE" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be PLANNED or DONE"})
	}

	patch := repository.ItineraryPatch{
		Title:       req.Title,
		Memo:        req.Memo,
		PlaceRef:    req.PlaceRef,
		StartTime:   req.StartTime,
		DurationMin: req.DurationMin,
		Status:      req.Status,
	}
	if patch.Empty() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "patch must change at least one field"})
	}

	roomID := middleware.RoomID(c)
	actorID := middleware.UserID(c)
	if err := h.Items.Update(c.Request().Context(), roomID, itemID, req.Version, actorID, patch); err != nil {
		return h.mapWriteError(c, err, "itinerary: update")
	}

	now := time.Now().UTC()
	h.Dispatcher.Dispatch(c.Request().Context(), event.Event{
		Name:       event.ItineraryUpdated,
		RoomID:     roomID,
		ActorID:    &actorID,
		EntityType: model.EntityItineraryItem,
		EntityID:   &itemID,
		Action:     model.ActionUpdate,
		Diff:       patch,
		Payload: echo.Map{
			"roomId":    roomID,
			"actorId":   actorID,
			"itemId":    itemID,
			"version":   req.Version + 1,
			"updatedAt": now,
		},
	})
	return c.JSON(http.StatusOK, echo.Map{"id": itemID, "version": req.Version + 1})
}

// Delete removes an item. Deletes are unconditional: there is no version
// check, and deleting an already deleted item reports 404.
func (h *ItineraryHandler) Delete(c echo.Context) error {
	itemID, err := strconv.ParseUint(c.Param("itemId"), 10, 64)
	if err != nil || itemID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	roomID := middleware.RoomID(c)
	actorID := middleware.UserID(c)
	if err := h.Items.Delete(c.Request().Context(), roomID, itemID); err != nil {
		return h.mapWriteError(c, err, "itinerary: delete")
	}

	h.Dispatcher.Dispatch(c.Request().Context(), event.Event{
		Name:       event.ItineraryDeleted,
		RoomID:     roomID,
		ActorID:    &actorID,
		EntityType: model.EntityItineraryItem,
		EntityID:   &itemID,
		Action:     model.ActionDelete,
		Payload: echo.Map{
			"roomId":    roomID,
			"actorId":   actorID,
			"itemId":    itemID,
			"updatedAt": time.Now().UTC(),
		},
	})
	return c.NoContent(http.StatusNoContent)
}

type reorderRequest struct {
	Day        string   `json:"day"`
	DayVersion uint32   `json:"dayVersion"`
	OrderedIDs []uint64 `json:"orderedIds"`
}

// Reorder replaces the day's ordering atomically. The submitted id list
// must be exactly the day's current item set (no omissions, additions or
// duplicates) and the day version must match; otherwise nothing changes.
func (h *ItineraryHandler) Reorder(c echo.Context) error {
	var req reorderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON body"})
	}
	if !validDay(req.Day) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "day must be formatted YYYY-MM-DD"})
	}
	if req.DayVersion == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "dayVersion is required"})
	}
	if len(req.OrderedIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "orderedIds must not be empty"})
	}

	roomID := middleware.RoomID(c)
	actorID := middleware.UserID(c)
	newVersion, err := h.Items.Reorder(c.Request().Context(), roomID, req.Day, req.DayVersion, req.OrderedIDs, actorID)
	if err != nil {
		if errors.Is(err, repository.ErrReorderSetMismatch) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "orderedIds must match the day's item set exactly"})
		}
		return h.mapWriteError(c, err, "itinerary: reorder")
	}

	h.Dispatcher.Dispatch(c.Request().Context(), event.Event{
		Name:       event.ItineraryReordered,
		RoomID:     roomID,
		ActorID:    &actorID,
		EntityType: model.EntityItineraryDay,
		Action:     model.ActionReorder,
		Diff:       echo.Map{"day": req.Day, "orderedIds": req.OrderedIDs},
		Payload: echo.Map{
			"roomId":     roomID,
			"actorId":    actorID,
			"day":        req.Day,
			"orderedIds": req.OrderedIDs,
			"dayVersion": newVersion,
			"updatedAt":  time.Now().UTC(),
		},
	})
	return c.JSON(http.StatusOK, echo.Map{"day": req.Day, "dayVersion": newVersion})
}

// mapWriteError translates the shared repository sentinels for itinerary
// writes.
func (h *ItineraryHandler) mapWriteError(c echo.Context, err error, op string) error {
	switch {
	case errors.Is(err, repository.ErrVersionConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "version conflict, re-fetch and retry"})
	case errors.Is(err, repository.ErrItemNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
	}
	h.Log.WithError(err).Error(op)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "operation failed"})
}

func validDay(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func validClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

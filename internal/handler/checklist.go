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

// ChecklistHandler covers the room's shared packing list.
type ChecklistHandler struct {
	Items      *repository.ChecklistRepo
	Dispatcher *event.Dispatcher
	Log        *logrus.Logger
}

func NewChecklistHandler(items *repository.ChecklistRepo, d *event.Dispatcher, log *logrus.Logger) *ChecklistHandler {
	return &ChecklistHandler{Items: items, Dispatcher: d, Log: log}
}

type checklistItemResponse struct {
	ID         uint64    `json:"id"`
	Category   *string   `json:"category"`
	Name       string    `json:"name"`
	Quantity   uint32    `json:"quantity"`
	AssigneeID *uint64   `json:"assigneeId"`
	Done       bool      `json:"done"`
	Version    uint32    `json:"version"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toChecklistResponse(it model.ChecklistItem) checklistItemResponse {
	return checklistItemResponse{
		ID:         it.ID,
		Category:   it.Category,
		Name:       it.Name,
		Quantity:   it.Quantity,
		AssigneeID: it.AssigneeID,
		Done:       it.Done,
		Version:    it.Version,
		UpdatedAt:  it.UpdatedAt,
	}
}

// List returns every checklist item in the room.
func (h *ChecklistHandler) List(c echo.Context) error {
	items, err := h.Items.List(c.Request().Context(), middleware.RoomID(c))
	if err != nil {
		h.Log.WithError(err).Error("checklist: list")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list checklist"})
	}
	out := make([]checklistItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toChecklistResponse(it))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

type createChecklistRequest struct {
	Category   *string `json:"category"`
	Name       string  `json:"name"`
	Quantity   *uint32 `json:"quantity"`
	AssigneeID *uint64 `json:"assigneeId"`
}

// Create adds an item. The (category, name) pair is unique per room;
// collisions return 409 and leave the existing item untouched.
func (h *ChecklistHandler) Create(c echo.Context) error {
	var req createChecklistRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON body"})
	}
	if req.Name == "" || len(req.Name) > 100 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required (max 100 chars)"})
	}
	quantity := uint32(1)
	if req.Quantity != nil && *req.Quantity > 0 {
		quantity = *req.Quantity
	}

	actorID := middleware.UserID(c)
	item := model.ChecklistItem{
		RoomID:     middleware.RoomID(c),
		Category:   req.Category,
		Name:       req.Name,
		Quantity:   quantity,
		AssigneeID: req.AssigneeID,
	}
	itemID, err := h.Items.Create(c.Request().Context(), &item)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateChecklistItem) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "an item with this category and name already exists"})
		}
		h.Log.WithError(err).Error("checklist: create")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create item"})
	}
	item.UpdatedAt = time.Now().UTC()

	h.Dispatcher.Dispatch(c.Request().Context(), event.Event{
		Name:       event.ChecklistCreated,
		RoomID:     item.RoomID,
		ActorID:    &actorID,
		EntityType: model.EntityChecklistItem,
		EntityID:   &itemID,
		Action:     model.ActionCreate,
		Payload: echo.Map{
			"roomId":    item.RoomID,
			"actorId":   actorID,
			"item":      toChecklistResponse(item),
			"updatedAt": item.UpdatedAt,
		},
	})
	return c.JSON(http.StatusCreated, toChecklistResponse(item))
}

type patchChecklistRequest struct {
	Version    uint32  `json:"version"`
	Category   *string `json:"category"`
	Name       *string `json:"name"`
	Quantity   *uint32 `json:"quantity"`
	AssigneeID *uint64 `json:"assigneeId"`
	Done       *bool   `json:"done"`
}

// Update applies a partial edit under the item's version token. An empty
// category clears it, a zero assigneeId unassigns, and renaming into an
// existing (category, name) pair is rejected with 409.
func (h *ChecklistHandler) Update(c echo.Context) error {
	itemID, err := strconv.ParseUint(c.Param("itemId"), 10, 64)
	if err != nil || itemID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	var req patchChecklistRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON body"})
	}
	if req.Version == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "version is required"})
	}
	if req.Name != nil && (*req.Name == "" || len(*req.Name) > 100) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name must be non-empty (max 100 chars)"})
	}

	patch := repository.ChecklistPatch{
		Category:   req.Category,
		Name:       req.Name,
		Quantity:   req.Quantity,
		AssigneeID: req.AssigneeID,
		Done:       req.Done,
	}
	if patch.Empty() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "patch must change at least one field"})
	}

	roomID := middleware.RoomID(c)
	actorID := middleware.UserID(c)
	if err := h.Items.Update(c.Request().Context(), roomID, itemID, req.Version, patch); err != nil {
		switch {
		case errors.Is(err, repository.ErrVersionConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "version conflict, re-fetch and retry"})
		case errors.Is(err, repository.ErrItemNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
		case errors.Is(err, repository.ErrDuplicateChecklistItem):
			return c.JSON(http.StatusConflict, echo.Map{"error": "an item with this category and name already exists"})
		}
		h.Log.WithError(err).Error("checklist: update")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update item"})
	}

	now := time.Now().UTC()
	h.Dispatcher.Dispatch(c.Request().Context(), event.Event{
		Name:       event.ChecklistUpdated,
		RoomID:     roomID,
		ActorID:    &actorID,
		EntityType: model.EntityChecklistItem,
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

// Delete removes an item unconditionally.
func (h *ChecklistHandler) Delete(c echo.Context) error {
	itemID, err := strconv.ParseUint(c.Param("itemId"), 10, 64)
	if err != nil || itemID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	roomID := middleware.RoomID(c)
	actorID := middleware.UserID(c)
	if err := h.Items.Delete(c.Request().Context(), roomID, itemID); err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
		}
		h.Log.WithError(err).Error("checklist: delete")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete item"})
	}

	h.Dispatcher.Dispatch(c.Request().Context(), event.Event{
		Name:       event.ChecklistDeleted,
		RoomID:     roomID,
		ActorID:    &actorID,
		EntityType: model.EntityChecklistItem,
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

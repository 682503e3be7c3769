package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/triproom/server/internal/middleware"
	"github.com/triproom/server/internal/model"
	"github.com/triproom/server/internal/repository"
)

// ChangeLogHandler exposes the room's audit trail, read-only.
type ChangeLogHandler struct {
	Changes *repository.ChangeLogRepo
	Log     *logrus.Logger
}

func NewChangeLogHandler(changes *repository.ChangeLogRepo, log *logrus.Logger) *ChangeLogHandler {
	return &ChangeLogHandler{Changes: changes, Log: log}
}

type changeLogEntryResponse struct {
	ID         uint64           `json:"id"`
	ActorID    *uint64          `json:"actorId"`
	EntityType model.EntityType `json:"entityType"`
	EntityID   *uint64          `json:"entityId"`
	Action     model.Action     `json:"action"`
	Diff       json.RawMessage  `json:"diff"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// List returns the newest entries first. The limit query parameter is
// clamped by the repository (default 50, max 200); a non-numeric limit is
// treated as unspecified.
func (h *ChangeLogHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	entries, err := h.Changes.List(c.Request().Context(), middleware.RoomID(c), limit)
	if err != nil {
		h.Log.WithError(err).Error("changelog: list")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list change log"})
	}
	out := make([]changeLogEntryResponse, 0, len(entries))
	for _, e := range entries {
		entry := changeLogEntryResponse{
			ID:         e.ID,
			ActorID:    e.ActorID,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Action:     e.Action,
			CreatedAt:  e.CreatedAt,
		}
		if e.Diff != nil {
			entry.Diff = json.RawMessage(*e.Diff)
		}
		out = append(out, entry)
	}
	return c.JSON(http.StatusOK, echo.Map{"entries": out})
}

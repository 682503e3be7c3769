package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/triproom/server/internal/event"
	"github.com/triproom/server/internal/mail"
	"github.com/triproom/server/internal/middleware"
	"github.com/triproom/server/internal/model"
	"github.com/triproom/server/internal/repository"
	"github.com/triproom/server/internal/utils"
)

// Invite parameter bounds. Out-of-range values are clamped, not rejected,
// so older clients with different defaults keep working.
const (
	inviteDefaultTTLDays = 7
	inviteMaxTTLDays     = 30
	inviteDefaultMaxUses = 10
	inviteMaxMaxUses     = 100
)

// InviteHandler covers issuing, previewing/redeeming and revoking room
// invites.
type InviteHandler struct {
	Invites    *repository.InviteRepo
	Rooms      *repository.RoomRepo
	Members    *repository.MemberRepo
	Mailer     *mail.Mailer
	Dispatcher *event.Dispatcher
	Pepper     string
	Log        *logrus.Logger
}

func NewInviteHandler(invites *repository.InviteRepo, rooms *repository.RoomRepo, members *repository.MemberRepo,
	mailer *mail.Mailer, d *event.Dispatcher, pepper string, log *logrus.Logger) *InviteHandler {
	return &InviteHandler{
		Invites: invites, Rooms: rooms, Members: members,
		Mailer: mailer, Dispatcher: d, Pepper: pepper, Log: log,
	}
}

type createInviteRequest struct {
	TTLDays        int     `json:"ttlDays"`
	MaxUses        int     `json:"maxUses"`
	WithCode       bool    `json:"withCode"`
	RecipientEmail *string `json:"recipientEmail"`
}

// Create issues an invite for the room. The raw token (and the short code
// when requested) appear only in this response; the database keeps
// peppered hashes. When a recipient email is supplied the invite is also
// mailed, best effort.
func (h *InviteHandler) Create(c echo.Context) error {
	var req createInviteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON body"})
	}
	ttlDays := clampInt(req.TTLDays, 1, inviteMaxTTLDays, inviteDefaultTTLDays)
	maxUses := clampInt(req.MaxUses, 1, inviteMaxMaxUses, inviteDefaultMaxUses)

	token, err := utils.NewInviteToken()
	if err != nil {
		h.Log.WithError(err).Error("invite: generate token")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create invite"})
	}
	var code, codeHash *string
	if req.WithCode {
		raw, err := utils.NewInviteCode()
		if err != nil {
			h.Log.WithError(err).Error("invite: generate code")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create invite"})
		}
		hash := utils.HashInviteValue(h.Pepper, raw)
		code, codeHash = &raw, &hash
	}

	roomID := middleware.RoomID(c)
	actorID := middleware.UserID(c)
	expiresAt := time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour)

	inviteID, err := h.Invites.Create(c.Request().Context(), roomID, actorID,
		utils.HashInviteValue(h.Pepper, token), codeHash, expiresAt, uint32(maxUses))
	if err != nil {
		h.Log.WithError(err).Error("invite: create")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create invite"})
	}

	if req.RecipientEmail != nil && *req.RecipientEmail != "" {
		room, err := h.Rooms.GetByID(c.Request().Context(), roomID)
		if err == nil {
			if err := h.Mailer.SendInvite(*req.RecipientEmail, room.Title, token, code); err != nil {
				h.Log.WithError(err).Warn("invite: send mail")
			}
		}
	}

	h.Dispatcher.Dispatch(c.Request().Context(), event.Event{
		Name:       event.InviteCreated,
		RoomID:     roomID,
		ActorID:    &actorID,
		EntityType: model.EntityInvite,
		EntityID:   &inviteID,
		Action:     model.ActionCreate,
		Diff:       echo.Map{"ttlDays": ttlDays, "maxUses": maxUses, "withCode": req.WithCode},
	})

	resp := echo.Map{
		"id":        inviteID,
		"token":     token,
		"expiresAt": expiresAt,
		"maxUses":   maxUses,
	}
	if code != nil {
		resp["code"] = *code
	}
	return c.JSON(http.StatusCreated, resp)
}

type acceptInviteRequest struct {
	Token   *string `json:"token"`
	Code    *string `json:"code"`
	Confirm bool    `json:"confirm"`
}

// Accept handles the two-step redemption flow. Without confirm the invite
// is only previewed: the caller learns which room it opens and whether it
// is still redeemable, and nothing changes. With confirm the redemption
// runs inside the locking transaction in the repository. Exactly one of
// token or code must be supplied.
func (h *InviteHandler) Accept(c echo.Context) error {
	var req acceptInviteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON body"})
	}
	hasToken := req.Token != nil && *req.Token != ""
	hasCode := req.Code != nil && *req.Code != ""
	if hasToken == hasCode {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "supply exactly one of token or code"})
	}

	ctx := c.Request().Context()
	var inv model.Invite
	var err error
	if hasToken {
		inv, err = h.Invites.FindByTokenHash(ctx, utils.HashInviteValue(h.Pepper, *req.Token))
	} else {
		inv, err = h.Invites.FindByCodeHash(ctx, utils.HashInviteValue(h.Pepper, *req.Code))
	}
	if err != nil {
		if errors.Is(err, repository.ErrInviteNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invite not found"})
		}
		h.Log.WithError(err).Error("invite: resolve")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve invite"})
	}

	if err := inv.RedeemableAt(time.Now().UTC()); err != nil {
		return inviteLifecycleResponse(c, err)
	}

	userID := middleware.UserID(c)
	if !req.Confirm {
		room, err := h.Rooms.GetByID(ctx, inv.RoomID)
		if err != nil {
			h.Log.WithError(err).Error("invite: preview room")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to preview invite"})
		}
		// Preview consumes nothing; it only tells the caller what the
		// invite opens and whether confirming would be a no-op.
		already := true
		if _, err := h.Members.GetRole(ctx, inv.RoomID, userID); err != nil {
			if !errors.Is(err, repository.ErrForbidden) {
				h.Log.WithError(err).Error("invite: preview membership")
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to preview invite"})
			}
			already = false
		}
		return c.JSON(http.StatusOK, echo.Map{
			"roomId":        room.ID,
			"title":         room.Title,
			"expiresAt":     inv.ExpiresAt,
			"usesLeft":      inv.MaxUses - inv.UsedCount,
			"alreadyMember": already,
		})
	}
	res, err := h.Invites.Accept(ctx, h.Members, inv.ID, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInviteRevoked),
			errors.Is(err, model.ErrInviteExpired),
			errors.Is(err, model.ErrInviteExhausted):
			return inviteLifecycleResponse(c, err)
		case errors.Is(err, repository.ErrInviteNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invite not found"})
		}
		h.Log.WithError(err).Error("invite: accept")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to accept invite"})
	}

	if !res.AlreadyMember {
		h.Dispatcher.Dispatch(ctx, event.Event{
			Name:       event.MemberJoined,
			RoomID:     res.RoomID,
			ActorID:    &userID,
			EntityType: model.EntityMember,
			EntityID:   &userID,
			Action:     model.ActionCreate,
			Payload: echo.Map{
				"roomId":    res.RoomID,
				"actorId":   userID,
				"userId":    userID,
				"role":      model.RoleEditor,
				"updatedAt": time.Now().UTC(),
			},
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"roomId":        res.RoomID,
		"alreadyMember": res.AlreadyMember,
	})
}

// Revoke permanently disables an invite. Owner-only; idempotent.
func (h *InviteHandler) Revoke(c echo.Context) error {
	inviteID, err := strconv.ParseUint(c.Param("inviteId"), 10, 64)
	if err != nil || inviteID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invite id"})
	}
	roomID := middleware.RoomID(c)
	if err := h.Invites.Revoke(c.Request().Context(), inviteID, roomID); err != nil {
		if errors.Is(err, repository.ErrInviteNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invite not found"})
		}
		h.Log.WithError(err).Error("invite: revoke")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to revoke invite"})
	}

	actorID := middleware.UserID(c)
	h.Dispatcher.Dispatch(c.Request().Context(), event.Event{
		Name:       event.InviteRevoked,
		RoomID:     roomID,
		ActorID:    &actorID,
		EntityType: model.EntityInvite,
		EntityID:   &inviteID,
		Action:     model.ActionDelete,
	})
	return c.NoContent(http.StatusNoContent)
}

// inviteLifecycleResponse maps a terminal invite state to 410 Gone with a
// state-specific message.
func inviteLifecycleResponse(c echo.Context, err error) error {
	msg := "invite is no longer redeemable"
	switch {
	case errors.Is(err, model.ErrInviteRevoked):
		msg = "invite has been revoked"
	case errors.Is(err, model.ErrInviteExpired):
		msg = "invite has expired"
	case errors.Is(err, model.ErrInviteExhausted):
		msg = "invite has no uses left"
	}
	return c.JSON(http.StatusGone, echo.Map{"error": msg})
}

// clampInt returns v bounded to [min, max], or def when v is zero or
// negative (treated as "not specified").
func clampInt(v, min, max, def int) int {
	if v <= 0 {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

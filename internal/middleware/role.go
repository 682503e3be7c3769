package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/triproom/server/internal/model"
	"github.com/triproom/server/internal/repository"
)

// RoleLookup resolves a user's role inside a room. *repository.MemberRepo
// satisfies it; tests substitute a stub.
type RoleLookup interface {
	GetRole(ctx context.Context, roomID, userID uint64) (model.Role, error)
}

// RequireRoomRole parses :roomId, resolves the caller's membership from
// the database and rejects the request unless the role is at least min.
// Roles are looked up fresh on every request rather than trusted from the
// token, so revocations and demotions apply immediately. Non-members get
// the same 403 whether the room exists or not, which keeps room ids from
// being probeable.
func RequireRoomRole(min model.Role, lookup RoleLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			roomID, err := strconv.ParseUint(c.Param("roomId"), 10, 64)
			if err != nil || roomID == 0 {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
			}
			userID := UserID(c)
			if userID == 0 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}

			role, err := lookup.GetRole(c.Request().Context(), roomID, userID)
			if err != nil {
				if errors.Is(err, repository.ErrForbidden) {
					return c.JSON(http.StatusForbidden, echo.Map{"error": "not a member of this room"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve membership"})
			}
			if !role.AtLeast(min) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient role"})
			}

			c.Set(ctxRoomID, roomID)
			c.Set(ctxRoomRole, role)
			return next(c)
		}
	}
}

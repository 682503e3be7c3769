package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/triproom/server/internal/model"
)

// UserID returns the authenticated caller's id, or 0 when JWTAuth did not
// run on this route.
func UserID(c echo.Context) uint64 {
	id, _ := c.Get(ctxUserID).(uint64)
	return id
}

// RoomID returns the room id parsed by RequireRoomRole.
func RoomID(c echo.Context) uint64 {
	id, _ := c.Get(ctxRoomID).(uint64)
	return id
}

// RoomRole returns the caller's role in the room on routes guarded by
// RequireRoomRole.
func RoomRole(c echo.Context) model.Role {
	role, _ := c.Get(ctxRoomRole).(model.Role)
	return role
}

// Package router wires the HTTP routes to their handlers and guards.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/triproom/server/internal/config"
	"github.com/triproom/server/internal/handler"
	"github.com/triproom/server/internal/middleware"
	"github.com/triproom/server/internal/model"
	"github.com/triproom/server/internal/realtime"
	"github.com/triproom/server/internal/repository"
)

// Deps bundles everything the route table needs.
type Deps struct {
	Cfg       *config.Config
	Log       *logrus.Logger
	Redis     *redis.Client
	RateLimit config.RateLimitConfig

	Health    *handler.HealthHandler
	Auth      *handler.AuthHandler
	Rooms     *handler.RoomHandler
	Invites   *handler.InviteHandler
	Itinerary *handler.ItineraryHandler
	Checklist *handler.ChecklistHandler
	ChangeLog *handler.ChangeLogHandler
	Realtime  *realtime.Handler

	Members *repository.MemberRepo
}

// New builds the echo instance. Route-level guards encode the privilege
// model: VIEWER for reads, EDITOR for content writes, OWNER for role and
// invite administration.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	e.GET("/healthz", d.Health.Check)

	auth := e.Group("/v1/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.POST("/logout", d.Auth.Logout)
	auth.POST("/logout_all", d.Auth.LogoutAll, middleware.JWTAuth(d.Cfg.JWTSecret))
	auth.GET("/me", d.Auth.Me, middleware.JWTAuth(d.Cfg.JWTSecret))

	v1 := e.Group("/v1", middleware.JWTAuth(d.Cfg.JWTSecret))

	v1.POST("/rooms", d.Rooms.Create)
	v1.GET("/rooms", d.Rooms.ListMine)

	// Invite acceptance is deliberately outside any room group: the caller
	// is not a member yet. It is the only rate-limited route because short
	// codes are brute-forceable.
	v1.POST("/invites/accept", d.Invites.Accept,
		middleware.RateLimit(d.Redis, d.RateLimit, d.Log))

	asViewer := middleware.RequireRoomRole(model.RoleViewer, d.Members)
	asEditor := middleware.RequireRoomRole(model.RoleEditor, d.Members)
	asOwner := middleware.RequireRoomRole(model.RoleOwner, d.Members)

	room := v1.Group("/rooms/:roomId")
	room.GET("", d.Rooms.Detail, asViewer)
	room.PATCH("/members/:userId/role", d.Rooms.ChangeRole, asOwner)

	room.POST("/invites", d.Invites.Create, asOwner)
	room.POST("/invites/:inviteId/revoke", d.Invites.Revoke, asOwner)

	room.GET("/itinerary", d.Itinerary.List, asViewer)
	room.POST("/itinerary", d.Itinerary.Create, asEditor)
	room.POST("/itinerary/reorder", d.Itinerary.Reorder, asEditor)
	room.PATCH("/itinerary/:itemId", d.Itinerary.Update, asEditor)
	room.DELETE("/itinerary/:itemId", d.Itinerary.Delete, asEditor)

	room.GET("/checklist", d.Checklist.List, asViewer)
	room.POST("/checklist", d.Checklist.Create, asEditor)
	room.PATCH("/checklist/:itemId", d.Checklist.Update, asEditor)
	room.DELETE("/checklist/:itemId", d.Checklist.Delete, asEditor)

	room.GET("/changelog", d.ChangeLog.List, asViewer)

	// Websocket handshake carries its own auth (token query parameter).
	e.GET("/ws/rooms/:roomId", d.Realtime.Subscribe)

	return e
}

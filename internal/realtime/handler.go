package realtime

import (
	"net/http"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/triproom/server/internal/repository"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is not enforced here; auth is carried by the token and the
	// API is same-credential with the HTTP surface.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades GET /ws/rooms/:roomId into a room subscription.
// Browsers cannot set an Authorization header on a websocket handshake,
// so the access token travels in the ?token query parameter instead.
type Handler struct {
	Hub       *Hub
	Members   *repository.MemberRepo
	JWTSecret string
}

func NewHandler(hub *Hub, members *repository.MemberRepo, secret string) *Handler {
	return &Handler{Hub: hub, Members: members, JWTSecret: secret}
}

// Subscribe authenticates the handshake, verifies the caller is a member
// of the room, then hands the connection to the hub. Membership is only
// checked here, at subscribe time; later demotions are handled by the
// hub's KickUser.
func (h *Handler) Subscribe(c echo.Context) error {
	roomID, err := strconv.ParseUint(c.Param("roomId"), 10, 64)
	if err != nil || roomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}

	userID, err := h.userFromToken(c.QueryParam("token"))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or missing token"})
	}

	if _, err := h.Members.GetRole(c.Request().Context(), roomID, userID); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a member of this room"})
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the handshake failure.
		return nil
	}

	client := &Client{
		hub:    h.Hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		pings:  make(chan struct{}, 1),
		roomID: roomID,
		userID: userID,
	}
	h.Hub.register <- client

	go client.writePump()
	go client.readPump()
	return nil
}

func (h *Handler) userFromToken(raw string) (uint64, error) {
	if raw == "" {
		return 0, jwt.ErrTokenMalformed
	}
	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(h.JWTSecret), nil
	})
	if err != nil || !tok.Valid {
		return 0, jwt.ErrTokenMalformed
	}
	if typ, _ := claims["typ"].(string); typ != "access" {
		return 0, jwt.ErrTokenInvalidClaims
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, jwt.ErrTokenInvalidClaims
	}
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || id == 0 {
		return 0, jwt.ErrTokenInvalidClaims
	}
	return id, nil
}

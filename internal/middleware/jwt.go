// Package middleware holds the request-scoped guards: bearer token
// verification, per-room role enforcement and the Redis-backed rate
// limiter.
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys set by the middleware chain.
const (
	ctxUserID   = "user_id"
	ctxRoomID   = "room_id"
	ctxRoomRole = "room_role"
)

// JWTAuth verifies the Authorization bearer token and stores the caller's
// user id in the echo context. Tokens carry only identity; what the user
// may do in a given room is resolved per request by RequireRoomRole, so a
// role change takes effect on the very next call.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			claims := jwt.MapClaims{}
			tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}
			if typ, _ := claims["typ"].(string); typ != "access" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not an access token"})
			}
			sub, _ := claims["sub"].(string)
			userID, err := strconv.ParseUint(sub, 10, 64)
			if err != nil || userID == 0 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "malformed subject claim"})
			}

			c.Set(ctxUserID, userID)
			return next(c)
		}
	}
}

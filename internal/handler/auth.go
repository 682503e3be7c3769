package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/triproom/server/internal/config"
	"github.com/triproom/server/internal/middleware"
	"github.com/triproom/server/internal/repository"
	"github.com/triproom/server/internal/utils"
)

// AuthHandler covers registration, login and the refresh token rotation
// flow. Access tokens carry identity only; room authorization is decided
// per request.
type AuthHandler struct {
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
	Cfg    *config.Config
	Log    *logrus.Logger
}

func NewAuthHandler(users *repository.UserRepo, tokens *repository.TokenRepo, cfg *config.Config, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{Users: users, Tokens: tokens, Cfg: cfg, Log: log}
}

type registerRequest struct {
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

// Register creates an account. Email collisions return 409 and never leak
// the stored hash.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON body"})
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Nickname = strings.TrimSpace(req.Nickname)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "a valid email is required"})
	}
	if req.Nickname == "" || len(req.Nickname) > 50 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nickname is required (max 50 chars)"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}

	id, err := h.Users.Create(c.Request().Context(), req.Email, req.Nickname, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		h.Log.WithError(err).Error("auth: register")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to register"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "email": req.Email, "nickname": req.Nickname})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and issues an access/refresh token pair.
// Wrong email and wrong password produce the same 401.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON body"})
	}
	user, err := h.Users.GetByEmail(c.Request().Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil || !utils.VerifyPassword(user.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
	}
	return h.issueTokens(c, user.ID)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh rotates the refresh token: the presented token is revoked and a
// fresh pair is issued, so a leaked token is only good once.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refreshToken is required"})
	}
	hash := utils.HashRefreshRaw(req.RefreshToken)
	userID, err := h.Tokens.ValidateRefresh(c.Request().Context(), hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired refresh token"})
	}
	if err := h.Tokens.RevokeByHash(c.Request().Context(), hash); err != nil {
		h.Log.WithError(err).Error("auth: revoke rotated refresh token")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to refresh"})
	}
	return h.issueTokens(c, userID)
}

// Logout revokes the presented refresh token. Idempotent: revoking an
// already revoked or unknown token still returns 204.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refreshToken is required"})
	}
	if err := h.Tokens.RevokeByHash(c.Request().Context(), utils.HashRefreshRaw(req.RefreshToken)); err != nil {
		h.Log.WithError(err).Error("auth: logout")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to log out"})
	}
	return c.NoContent(http.StatusNoContent)
}

// LogoutAll revokes every active refresh token the caller holds, on every
// device. Live access tokens keep working until they expire.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	if err := h.Tokens.RevokeAllForUser(c.Request().Context(), middleware.UserID(c)); err != nil {
		h.Log.WithError(err).Error("auth: logout all")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to log out"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := h.Users.GetByID(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account no longer exists"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":       user.ID,
		"email":    user.Email,
		"nickname": user.Nickname,
	})
}

func (h *AuthHandler) issueTokens(c echo.Context, userID uint64) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, h.Cfg.AccessTTLMin)
	if err != nil {
		h.Log.WithError(err).Error("auth: sign access token")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue tokens"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		h.Log.WithError(err).Error("auth: generate refresh token")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue tokens"})
	}
	if err := h.Tokens.StoreRefresh(c.Request().Context(), userID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		h.Log.WithError(err).Error("auth: store refresh token")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue tokens"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"accessToken":  access.Token,
		"expiresAt":    access.Exp,
		"refreshToken": refresh.Raw,
	})
}

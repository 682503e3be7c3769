package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triproom/server/internal/model"
	"github.com/triproom/server/internal/repository"
)

type stubRoles struct {
	roles map[uint64]model.Role // userID -> role
}

func (s stubRoles) GetRole(_ context.Context, _, userID uint64) (model.Role, error) {
	role, ok := s.roles[userID]
	if !ok {
		return "", repository.ErrForbidden
	}
	return role, nil
}

func roleTestContext(t *testing.T, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("roomId")
	c.SetParamValues("5")
	if userID != 0 {
		c.Set(ctxUserID, userID)
	}
	return c, rec
}

func TestRequireRoomRole(t *testing.T) {
	lookup := stubRoles{roles: map[uint64]model.Role{
		1: model.RoleOwner,
		2: model.RoleEditor,
		3: model.RoleViewer,
	}}

	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	cases := []struct {
		name   string
		userID uint64
		min    model.Role
		status int
	}{
		{"owner passes owner gate", 1, model.RoleOwner, http.StatusOK},
		{"editor passes editor gate", 2, model.RoleEditor, http.StatusOK},
		{"editor passes viewer gate", 2, model.RoleViewer, http.StatusOK},
		{"viewer blocked from editor gate", 3, model.RoleEditor, http.StatusForbidden},
		{"editor blocked from owner gate", 2, model.RoleOwner, http.StatusForbidden},
		{"non-member blocked from viewer gate", 9, model.RoleViewer, http.StatusForbidden},
		{"unauthenticated rejected", 0, model.RoleViewer, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := roleTestContext(t, tc.userID)
			err := RequireRoomRole(tc.min, lookup)(next)(c)
			require.NoError(t, err)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestRequireRoomRoleStoresContext(t *testing.T) {
	lookup := stubRoles{roles: map[uint64]model.Role{2: model.RoleEditor}}
	c, rec := roleTestContext(t, 2)

	var seenRoom uint64
	var seenRole model.Role
	next := func(c echo.Context) error {
		seenRoom = RoomID(c)
		seenRole = RoomRole(c)
		return c.NoContent(http.StatusOK)
	}
	require.NoError(t, RequireRoomRole(model.RoleViewer, lookup)(next)(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(5), seenRoom)
	assert.Equal(t, model.RoleEditor, seenRole)
}

func TestRequireRoomRoleRejectsBadRoomID(t *testing.T) {
	lookup := stubRoles{roles: map[uint64]model.Role{1: model.RoleOwner}}
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("roomId")
	c.SetParamValues("not-a-number")
	c.Set(ctxUserID, uint64(1))

	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	require.NoError(t, RequireRoomRole(model.RoleViewer, lookup)(next)(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

package handler

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triproom/server/internal/repository"
)

func newPreviewHandler(t *testing.T) (*InviteHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	return &InviteHandler{
		Invites: repository.NewInviteRepo(db),
		Rooms:   repository.NewRoomRepo(db),
		Members: repository.NewMemberRepo(db),
		Pepper:  "pepper",
		Log:     log,
	}, mock
}

func previewContext(userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/invites/accept",
		strings.NewReader(`{"token":"abc"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	return c, rec
}

func expectInviteAndRoom(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`FROM room_invites WHERE token_hash = \? LIMIT 1`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "room_id", "created_by", "token_hash", "code_hash",
			"expires_at", "max_uses", "used_count", "revoked_at", "created_at",
		}).AddRow(5, 1, 2, "tokenhash", nil,
			time.Now().UTC().Add(24*time.Hour), 10, 3, nil, time.Now().UTC()))
	mock.ExpectQuery(`FROM rooms WHERE id = \? LIMIT 1`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "owner_id", "title", "description",
			"travel_start_date", "travel_end_date", "created_at", "updated_at",
		}).AddRow(1, 2, "Kyoto", nil, nil, nil, time.Now().UTC(), time.Now().UTC()))
}

func TestInvitePreviewNonMember(t *testing.T) {
	h, mock := newPreviewHandler(t)
	expectInviteAndRoom(mock)
	mock.ExpectQuery(`SELECT role FROM room_members WHERE room_id = \? AND user_id = \? LIMIT 1`).
		WithArgs(uint64(1), uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"role"}))

	c, rec := previewContext(42)
	require.NoError(t, h.Accept(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"alreadyMember":false`)
	assert.Contains(t, rec.Body.String(), `"usesLeft":7`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A failed membership lookup must not be mistaken for membership: the
// preview reports it as a server error instead of answering from a guess.
func TestInvitePreviewMembershipLookupFailure(t *testing.T) {
	h, mock := newPreviewHandler(t)
	expectInviteAndRoom(mock)
	mock.ExpectQuery(`SELECT role FROM room_members WHERE room_id = \? AND user_id = \? LIMIT 1`).
		WithArgs(uint64(1), uint64(42)).
		WillReturnError(errors.New("driver: bad connection"))

	c, rec := previewContext(42)
	require.NoError(t, h.Accept(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to preview invite")
	assert.NoError(t, mock.ExpectationsWereMet())
}

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sessionwarden/sessionwarden/internal/auth"
	"github.com/sessionwarden/sessionwarden/internal/constants"
	"github.com/sessionwarden/sessionwarden/internal/models"
	"github.com/sessionwarden/sessionwarden/internal/utils"
)

// MockSessionService implements SessionServiceInterface with per-test overrides.
type MockSessionService struct {
	GetSessionFunc            func(ctx context.Context, sessionID string) (*models.Session, error)
	GetUserSessionsFunc       func(ctx context.Context, userID int64) ([]*models.SessionInfo, error)
	ListSessionsFunc          func(ctx context.Context, page, pageSize int) ([]*models.SessionInfo, int, error)
	CountSessionsFunc         func(ctx context.Context) (map[models.SessionStatus]int64, error)
	TerminateSessionFunc      func(ctx context.Context, sessionID string) error
	TerminateUserSessionsFunc func(ctx context.Context, userID int64) (int64, error)
	PurgeInactiveSessionsFunc func(ctx context.Context, retention time.Duration) (int64, error)
}

func (m *MockSessionService) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &models.Session{ID: sessionID, UserID: 1, Status: models.StatusLive}, nil
}

func (m *MockSessionService) GetUserSessions(ctx context.Context, userID int64) ([]*models.SessionInfo, error) {
	if m.GetUserSessionsFunc != nil {
		return m.GetUserSessionsFunc(ctx, userID)
	}
	return []*models.SessionInfo{}, nil
}

func (m *MockSessionService) ListSessions(ctx context.Context, page, pageSize int) ([]*models.SessionInfo, int, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx, page, pageSize)
	}
	return []*models.SessionInfo{}, 0, nil
}

func (m *MockSessionService) CountSessions(ctx context.Context) (map[models.SessionStatus]int64, error) {
	if m.CountSessionsFunc != nil {
		return m.CountSessionsFunc(ctx)
	}
	return map[models.SessionStatus]int64{}, nil
}

func (m *MockSessionService) TerminateSession(ctx context.Context, sessionID string) error {
	if m.TerminateSessionFunc != nil {
		return m.TerminateSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockSessionService) TerminateUserSessions(ctx context.Context, userID int64) (int64, error) {
	if m.TerminateUserSessionsFunc != nil {
		return m.TerminateUserSessionsFunc(ctx, userID)
	}
	return 0, nil
}

func (m *MockSessionService) PurgeInactiveSessions(ctx context.Context, retention time.Duration) (int64, error) {
	if m.PurgeInactiveSessionsFunc != nil {
		return m.PurgeInactiveSessionsFunc(ctx, retention)
	}
	return 0, nil
}

func setupSessionHandlerTest() (*SessionHandler, *MockSessionService) {
	mockService := new(MockSessionService)
	return NewSessionHandler(mockService), mockService
}

// authedRequest builds a request carrying an authenticated user ID and any
// chi URL parameters.
func authedRequest(method, target string, userID int64, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	ctx := req.Context()
	if userID != 0 {
		ctx = context.WithValue(ctx, auth.UserIDContextKey, userID)
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func TestListMySessions_ReturnsOwnSessionsOnly(t *testing.T) {
	handler, mockService := setupSessionHandlerTest()

	mockService.GetUserSessionsFunc = func(ctx context.Context, userID int64) ([]*models.SessionInfo, error) {
		assert.Equal(t, int64(42), userID)
		return []*models.SessionInfo{
			{ID: "s1", UserID: 42, Status: models.StatusLive},
			{ID: "s2", UserID: 42, Status: models.StatusIdle},
		}, nil
	}

	req := authedRequest(http.MethodGet, "/api/sessions/me", 42, nil)
	rec := httptest.NewRecorder()

	handler.ListMySessions(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, data, 2)
}

func TestListMySessions_Unauthenticated(t *testing.T) {
	handler, _ := setupSessionHandlerTest()

	req := authedRequest(http.MethodGet, "/api/sessions/me", 0, nil)
	rec := httptest.NewRecorder()

	handler.ListMySessions(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTerminateMySession_Success(t *testing.T) {
	handler, mockService := setupSessionHandlerTest()
	sessionID := uuid.NewString()

	mockService.GetSessionFunc = func(ctx context.Context, id string) (*models.Session, error) {
		return &models.Session{ID: id, UserID: 42, Status: models.StatusLive}, nil
	}
	var terminated string
	mockService.TerminateSessionFunc = func(ctx context.Context, id string) error {
		terminated = id
		return nil
	}

	req := authedRequest(http.MethodDelete, "/api/sessions/me/"+sessionID, 42,
		map[string]string{constants.ParamSessionID: sessionID})
	rec := httptest.NewRecorder()

	handler.TerminateMySession(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, sessionID, terminated)
}

func TestTerminateMySession_NotOwnerForbidden(t *testing.T) {
	handler, mockService := setupSessionHandlerTest()
	sessionID := uuid.NewString()

	mockService.GetSessionFunc = func(ctx context.Context, id string) (*models.Session, error) {
		return &models.Session{ID: id, UserID: 99, Status: models.StatusLive}, nil
	}
	mockService.TerminateSessionFunc = func(ctx context.Context, id string) error {
		t.Fatal("session of another user must not be terminated")
		return nil
	}

	req := authedRequest(http.MethodDelete, "/api/sessions/me/"+sessionID, 42,
		map[string]string{constants.ParamSessionID: sessionID})
	rec := httptest.NewRecorder()

	handler.TerminateMySession(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTerminateMySession_InvalidSessionID(t *testing.T) {
	handler, _ := setupSessionHandlerTest()

	req := authedRequest(http.MethodDelete, "/api/sessions/me/not-a-uuid", 42,
		map[string]string{constants.ParamSessionID: "not-a-uuid"})
	rec := httptest.NewRecorder()

	handler.TerminateMySession(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTerminateMySession_UnknownSession(t *testing.T) {
	handler, mockService := setupSessionHandlerTest()
	sessionID := uuid.NewString()

	mockService.GetSessionFunc = func(ctx context.Context, id string) (*models.Session, error) {
		return nil, utils.NewNotFoundError("Session", id)
	}

	req := authedRequest(http.MethodDelete, "/api/sessions/me/"+sessionID, 42,
		map[string]string{constants.ParamSessionID: sessionID})
	rec := httptest.NewRecorder()

	handler.TerminateMySession(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminListSessions_ReturnsPageWithMeta(t *testing.T) {
	handler, mockService := setupSessionHandlerTest()

	mockService.ListSessionsFunc = func(ctx context.Context, page, pageSize int) ([]*models.SessionInfo, int, error) {
		assert.Equal(t, 2, page)
		assert.Equal(t, 10, pageSize)
		return []*models.SessionInfo{{ID: "s1", Status: models.StatusLive}}, 25, nil
	}

	req := authedRequest(http.MethodGet, "/api/admin/sessions?page=2&page_size=10", 1, nil)
	rec := httptest.NewRecorder()

	handler.AdminListSessions(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 25, resp.Meta.TotalItems)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestAdminSessionStats(t *testing.T) {
	handler, mockService := setupSessionHandlerTest()

	mockService.CountSessionsFunc = func(ctx context.Context) (map[models.SessionStatus]int64, error) {
		return map[models.SessionStatus]int64{
			models.StatusLive:    10,
			models.StatusIdle:    4,
			models.StatusRevoked: 7,
		}, nil
	}

	req := authedRequest(http.MethodGet, "/api/admin/sessions/count", 1, nil)
	rec := httptest.NewRecorder()

	handler.AdminSessionStats(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(10), data["live"])
	assert.Equal(t, float64(7), data["revoked"])
}

func TestAdminListUserSessions(t *testing.T) {
	handler, mockService := setupSessionHandlerTest()

	mockService.GetUserSessionsFunc = func(ctx context.Context, userID int64) ([]*models.SessionInfo, error) {
		assert.Equal(t, int64(7), userID)
		return []*models.SessionInfo{{ID: "s1", UserID: 7, Status: models.StatusRevoked}}, nil
	}

	req := authedRequest(http.MethodGet, "/api/admin/sessions/user/7", 1,
		map[string]string{constants.ParamUserID: "7"})
	rec := httptest.NewRecorder()

	handler.AdminListUserSessions(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, data, 1)
}

func TestAdminTerminateUserSessions(t *testing.T) {
	handler, mockService := setupSessionHandlerTest()

	mockService.TerminateUserSessionsFunc = func(ctx context.Context, userID int64) (int64, error) {
		assert.Equal(t, int64(7), userID)
		return 2, nil
	}

	req := authedRequest(http.MethodDelete, "/api/admin/sessions/user/7", 1,
		map[string]string{constants.ParamUserID: "7"})
	rec := httptest.NewRecorder()

	handler.AdminTerminateUserSessions(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), data["sessions_terminated"])
}

func TestAdminTerminateUserSessions_BadUserID(t *testing.T) {
	handler, _ := setupSessionHandlerTest()

	req := authedRequest(http.MethodDelete, "/api/admin/sessions/user/abc", 1,
		map[string]string{constants.ParamUserID: "abc"})
	rec := httptest.NewRecorder()

	handler.AdminTerminateUserSessions(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminPurgeSessions_DefaultRetention(t *testing.T) {
	handler, mockService := setupSessionHandlerTest()

	mockService.PurgeInactiveSessionsFunc = func(ctx context.Context, retention time.Duration) (int64, error) {
		assert.Equal(t, constants.DefaultPurgeRetention, retention)
		return 12, nil
	}

	req := authedRequest(http.MethodDelete, "/api/admin/sessions/inactive", 1, nil)
	rec := httptest.NewRecorder()

	handler.AdminPurgeSessions(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(12), data["sessions_purged"])
}

func TestAdminPurgeSessions_CustomRetention(t *testing.T) {
	handler, mockService := setupSessionHandlerTest()

	mockService.PurgeInactiveSessionsFunc = func(ctx context.Context, retention time.Duration) (int64, error) {
		assert.Equal(t, 48*time.Hour, retention)
		return 3, nil
	}

	req := authedRequest(http.MethodDelete, "/api/admin/sessions/inactive?retention=48h", 1, nil)
	rec := httptest.NewRecorder()

	handler.AdminPurgeSessions(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminPurgeSessions_ZeroRetentionPurgesAllInactive(t *testing.T) {
	handler, mockService := setupSessionHandlerTest()

	mockService.PurgeInactiveSessionsFunc = func(ctx context.Context, retention time.Duration) (int64, error) {
		assert.Equal(t, time.Duration(0), retention)
		return 9, nil
	}

	req := authedRequest(http.MethodDelete, "/api/admin/sessions/inactive?retention=0s", 1, nil)
	rec := httptest.NewRecorder()

	handler.AdminPurgeSessions(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(9), data["sessions_purged"])
}

func TestAdminPurgeSessions_InvalidRetention(t *testing.T) {
	handler, _ := setupSessionHandlerTest()

	req := authedRequest(http.MethodDelete, "/api/admin/sessions/inactive?retention=yesterday", 1, nil)
	rec := httptest.NewRecorder()

	handler.AdminPurgeSessions(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sessionwarden/sessionwarden/internal/auth"
	"github.com/sessionwarden/sessionwarden/internal/constants"
	"github.com/sessionwarden/sessionwarden/internal/middleware"
	"github.com/sessionwarden/sessionwarden/internal/utils"
)

// clientIP resolves the caller's address, honoring proxy headers.
func clientIP(r *http.Request) string {
	return middleware.GetClientIP(r)
}

// SessionHandler handles session introspection and management routes.
type SessionHandler struct {
	sessionService SessionServiceInterface
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(sessionService SessionServiceInterface) *SessionHandler {
	if sessionService == nil {
		panic("sessionService cannot be nil")
	}
	return &SessionHandler{
		sessionService: sessionService,
	}
}

// ListMySessions returns the authenticated user's sessions, newest first.
// Token material never appears in the response.
func (h *SessionHandler) ListMySessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r)
	if !ok {
		utils.Unauthorized(w, "")
		return
	}

	sessions, err := h.sessionService.GetUserSessions(r.Context(), userID)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusOK, sessions)
}

// TerminateMySession revokes one of the authenticated user's own sessions.
// Terminating somebody else's session is a 403 even when the ID exists.
func (h *SessionHandler) TerminateMySession(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r)
	if !ok {
		utils.Unauthorized(w, "")
		return
	}

	sessionID := chi.URLParam(r, constants.ParamSessionID)
	if err := utils.ValidateSessionID(sessionID); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	session, err := h.sessionService.GetSession(r.Context(), sessionID)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}
	if session.UserID != userID {
		utils.Forbidden(w, constants.MsgForbiddenOwner)
		return
	}

	if err := h.sessionService.TerminateSession(r.Context(), sessionID); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.NoContent(w)
}

// AdminListSessions returns a page of all sessions.
func (h *SessionHandler) AdminListSessions(w http.ResponseWriter, r *http.Request) {
	params := utils.GetPaginationParams(r)

	sessions, total, err := h.sessionService.ListSessions(r.Context(), params.Page, params.PageSize)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	totalPages := total / params.PageSize
	if total%params.PageSize > 0 {
		totalPages++
	}

	utils.JSONWithMeta(w, http.StatusOK, sessions, &utils.MetaInfo{
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalItems: total,
		TotalPages: totalPages,
	})
}

// AdminSessionStats returns session counts per lifecycle status.
func (h *SessionHandler) AdminSessionStats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.sessionService.CountSessions(r.Context())
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusOK, counts)
}

// AdminTerminateSession revokes any session by ID.
func (h *SessionHandler) AdminTerminateSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, constants.ParamSessionID)
	if err := utils.ValidateSessionID(sessionID); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	if err := h.sessionService.TerminateSession(r.Context(), sessionID); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.NoContent(w)
}

// AdminListUserSessions returns the given user's sessions.
func (h *SessionHandler) AdminListUserSessions(w http.ResponseWriter, r *http.Request) {
	userIDParam := chi.URLParam(r, constants.ParamUserID)
	userID, err := strconv.ParseInt(userIDParam, 10, 64)
	if err != nil {
		utils.ErrorFromAppError(w, utils.NewValidationError(constants.ParamUserID, "Must be a valid user ID"))
		return
	}

	sessions, err := h.sessionService.GetUserSessions(r.Context(), userID)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusOK, sessions)
}

// AdminPurgeSessions deletes revoked and idle sessions older than the
// retention window. Accepts an optional "retention" query parameter in Go
// duration syntax; "0s" purges every inactive session regardless of age.
func (h *SessionHandler) AdminPurgeSessions(w http.ResponseWriter, r *http.Request) {
	retention := constants.DefaultPurgeRetention
	if raw := r.URL.Query().Get("retention"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed < 0 {
			utils.ErrorFromAppError(w, utils.NewValidationError("retention", "Must be a non-negative duration such as 720h"))
			return
		}
		retention = parsed
	}

	count, err := h.sessionService.PurgeInactiveSessions(r.Context(), retention)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"sessions_purged": count,
		"retention":       retention.String(),
	})
}

// AdminTerminateUserSessions revokes every session of the given user.
func (h *SessionHandler) AdminTerminateUserSessions(w http.ResponseWriter, r *http.Request) {
	userIDParam := chi.URLParam(r, constants.ParamUserID)
	userID, err := strconv.ParseInt(userIDParam, 10, 64)
	if err != nil {
		utils.ErrorFromAppError(w, utils.NewValidationError(constants.ParamUserID, "Must be a valid user ID"))
		return
	}

	count, err := h.sessionService.TerminateUserSessions(r.Context(), userID)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"sessions_terminated": count,
	})
}

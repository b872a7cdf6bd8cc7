package handlers

import (
	"context"
	"time"

	"github.com/sessionwarden/sessionwarden/internal/config"
	"github.com/sessionwarden/sessionwarden/internal/models"
	"github.com/sessionwarden/sessionwarden/internal/service"
)

// AuthServiceInterface defines the methods the auth handlers require from the
// authentication service. Handlers depend on this interface rather than the
// concrete implementation so tests can substitute their own.
type AuthServiceInterface interface {
	// RegisterUser registers a new user with the provided credentials.
	RegisterUser(ctx context.Context, creds *models.UserCredentials) (*models.User, error)

	// AuthenticateUser authenticates a user and records a live session for the
	// issued token pair. The client address and user agent are stored with the
	// session for later inspection.
	AuthenticateUser(ctx context.Context, creds *models.UserCredentials, ipAddress, userAgent string) (*models.User, *service.TokenPair, error)

	// RefreshTokens exchanges a refresh token for a new token pair, rotating
	// the stored fingerprints in the same step.
	RefreshTokens(ctx context.Context, refreshToken string) (*service.TokenPair, error)

	// Logout permanently revokes the session behind the given access token.
	Logout(ctx context.Context, accessToken string) error

	// LogoutAll permanently revokes every session belonging to the user and
	// returns how many were revoked.
	LogoutAll(ctx context.Context, userID int64) (int64, error)
}

// SessionServiceInterface defines the methods the session handlers require
// from the session service.
type SessionServiceInterface interface {
	// GetSession returns a session by ID, whatever its status.
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)

	// GetUserSessions returns the user's sessions without token material.
	GetUserSessions(ctx context.Context, userID int64) ([]*models.SessionInfo, error)

	// ListSessions returns a page of all sessions plus the total count.
	ListSessions(ctx context.Context, page, pageSize int) ([]*models.SessionInfo, int, error)

	// CountSessions returns session counts grouped by lifecycle status.
	CountSessions(ctx context.Context) (map[models.SessionStatus]int64, error)

	// TerminateSession permanently revokes a session. Revoking an already
	// revoked session succeeds without changing anything.
	TerminateSession(ctx context.Context, sessionID string) error

	// TerminateUserSessions permanently revokes every session of the user.
	TerminateUserSessions(ctx context.Context, userID int64) (int64, error)

	// PurgeInactiveSessions deletes revoked and idle sessions older than the
	// retention window and returns how many rows were removed.
	PurgeInactiveSessions(ctx context.Context, retention time.Duration) (int64, error)
}

// JWTServiceInterface defines the methods the handlers require from the JWT
// service.
type JWTServiceInterface interface {
	// GetConfig returns the JWT settings, used to report token expiry to
	// clients.
	GetConfig() *config.JWTSettings
}

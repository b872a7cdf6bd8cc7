// Package service implements the business logic of the SessionWarden
// application on top of the repositories.
//
// This file contains the session lifecycle service: creating session records
// at login, resolving token fingerprints, recording liveness, the terminal
// revocation transitions, and the maintenance operations run by the sweep.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sessionwarden/sessionwarden/internal/auth"
	"github.com/sessionwarden/sessionwarden/internal/config"
	"github.com/sessionwarden/sessionwarden/internal/models"
	"github.com/sessionwarden/sessionwarden/internal/repository"
	"github.com/sessionwarden/sessionwarden/internal/utils"
)

// SessionService manages the server-side lifecycle of login sessions.
type SessionService struct {
	sessionRepo repository.SessionRepository
	vault       *auth.TokenVault
	settings    *config.SessionSettings
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	sessionRepo repository.SessionRepository,
	vault *auth.TokenVault,
	settings *config.SessionSettings,
) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		vault:       vault,
		settings:    settings,
	}
}

// CreateSession records the server-side state for a fresh login. The access
// and refresh tokens are fingerprinted for lookup and encrypted at rest; the
// plaintext never touches the database.
func (s *SessionService) CreateSession(ctx context.Context, userID int64, accessToken, refreshToken, ipAddress, userAgent string) (*models.Session, error) {
	session := models.NewSession(userID, ipAddress, userAgent)

	session.AccessTokenHash = s.vault.Fingerprint(accessToken)
	accessCipher, err := s.vault.Encrypt(accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}
	session.AccessTokenCipher = accessCipher

	if refreshToken != "" {
		session.RefreshTokenHash = s.vault.Fingerprint(refreshToken)
		refreshCipher, err := s.vault.Encrypt(refreshToken)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
		session.RefreshTokenCipher = refreshCipher
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	utils.LogSessionEvent("session_created", session.ID, userID)
	return session, nil
}

// ResolveAccessToken looks up the session owning an access token, regardless
// of its status. Returns NotFoundError when no session carries the
// fingerprint.
func (s *SessionService) ResolveAccessToken(ctx context.Context, accessToken string) (*models.Session, error) {
	return s.sessionRepo.GetByAccessTokenHash(ctx, s.vault.Fingerprint(accessToken))
}

// ResolveRefreshToken looks up the session owning a refresh token, regardless
// of its status.
func (s *SessionService) ResolveRefreshToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	return s.sessionRepo.GetByRefreshTokenHash(ctx, s.vault.Fingerprint(refreshToken))
}

// Touch records a liveness touch for a live session. The repository guard
// keeps the timestamp monotonic, so a touch that lost a race is silently
// absorbed.
func (s *SessionService) Touch(ctx context.Context, sessionID string, at time.Time) error {
	advanced, err := s.sessionRepo.TouchLastActive(ctx, sessionID, at)
	if err != nil {
		return err
	}
	if !advanced {
		log.Debug().
			Str("session_id", sessionID).
			Msg("Liveness touch skipped (stale or session not live)")
	}
	return nil
}

// Reactivate attempts to return an idle session to live status. Returns true
// only when this call performed the idle -> live transition.
func (s *SessionService) Reactivate(ctx context.Context, sessionID string, at time.Time) (bool, error) {
	reactivated, err := s.sessionRepo.Reactivate(ctx, sessionID, at)
	if err != nil {
		return false, err
	}
	if reactivated {
		utils.LogSessionEvent("session_reactivated", sessionID, 0)
	}
	return reactivated, nil
}

// TerminateSession permanently revokes a session. Idempotent: terminating an
// already revoked session succeeds and preserves the original termination
// time.
func (s *SessionService) TerminateSession(ctx context.Context, sessionID string) error {
	if err := s.sessionRepo.MarkTerminated(ctx, sessionID, time.Now().UTC()); err != nil {
		return err
	}
	utils.LogSessionEvent("session_terminated", sessionID, 0)
	return nil
}

// TerminateUserSessions permanently revokes every non-revoked session of a
// user. Used for "log out everywhere" and administrative account lockout.
func (s *SessionService) TerminateUserSessions(ctx context.Context, userID int64) (int64, error) {
	count, err := s.sessionRepo.MarkTerminatedByUser(ctx, userID, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	log.Info().
		Int64("user_id", userID).
		Int64("count", count).
		Msg("All sessions terminated for user")
	return count, nil
}

// RotateTokens atomically replaces a session's token pairs after a refresh
// exchange. The rotation only succeeds when the presented refresh token is
// still the session's current one and the session is live; a false return
// means the caller must fail the refresh. An exchange that issued no new
// refresh token rotates the access pair only, leaving the stored refresh
// pair in place.
func (s *SessionService) RotateTokens(ctx context.Context, sessionID, oldRefreshToken, newAccessToken, newRefreshToken string) (bool, error) {
	accessCipher, err := s.vault.Encrypt(newAccessToken)
	if err != nil {
		return false, fmt.Errorf("failed to encrypt access token: %w", err)
	}

	rotation := &models.TokenRotation{
		AccessTokenHash:   s.vault.Fingerprint(newAccessToken),
		AccessTokenCipher: accessCipher,
		RotatedAt:         time.Now().UTC(),
	}

	if newRefreshToken != "" {
		refreshCipher, err := s.vault.Encrypt(newRefreshToken)
		if err != nil {
			return false, fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
		rotation.RefreshTokenHash = s.vault.Fingerprint(newRefreshToken)
		rotation.RefreshTokenCipher = refreshCipher
	}

	rotated, err := s.sessionRepo.RotateTokens(ctx, sessionID, s.vault.Fingerprint(oldRefreshToken), rotation)
	if err != nil {
		return false, err
	}
	if rotated {
		utils.LogSessionEvent("session_tokens_rotated", sessionID, 0)
	}
	return rotated, nil
}

// GetSession retrieves a session by ID.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	return s.sessionRepo.GetByID(ctx, sessionID)
}

// GetUserSessions returns the summaries of all sessions owned by a user,
// newest first. Token material never leaves this method.
func (s *SessionService) GetUserSessions(ctx context.Context, userID int64) ([]*models.SessionInfo, error) {
	sessions, err := s.sessionRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	infos := make([]*models.SessionInfo, 0, len(sessions))
	for _, session := range sessions {
		infos = append(infos, session.Info())
	}
	return infos, nil
}

// ListSessions returns a page of all sessions, for the administrative API.
func (s *SessionService) ListSessions(ctx context.Context, page, pageSize int) ([]*models.SessionInfo, int, error) {
	sessions, total, err := s.sessionRepo.ListAll(ctx, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	infos := make([]*models.SessionInfo, 0, len(sessions))
	for _, session := range sessions {
		infos = append(infos, session.Info())
	}
	return infos, total, nil
}

// CountSessions returns session counts per lifecycle status.
func (s *SessionService) CountSessions(ctx context.Context) (map[models.SessionStatus]int64, error) {
	return s.sessionRepo.CountByStatus(ctx)
}

// DeactivateIdleSessions marks live sessions idle when their last recorded
// activity is older than the configured idle timeout. Run by the background
// sweep.
func (s *SessionService) DeactivateIdleSessions(ctx context.Context) (int64, error) {
	threshold := time.Now().UTC().Add(-s.settings.IdleTimeout)
	count, err := s.sessionRepo.DeactivateIdle(ctx, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate idle sessions: %w", err)
	}
	return count, nil
}

// PurgeInactiveSessions deletes non-live sessions older than the retention
// threshold.
func (s *SessionService) PurgeInactiveSessions(ctx context.Context, retention time.Duration) (int64, error) {
	threshold := time.Now().UTC().Add(-retention)
	count, err := s.sessionRepo.DeleteInactive(ctx, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to purge inactive sessions: %w", err)
	}
	return count, nil
}

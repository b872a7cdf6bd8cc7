// Package service implements the business logic of the SessionWarden
// application.
//
// This file contains the authentication service: login issues tokens and
// records a session, refresh exchanges a refresh token for a new pair with
// the session acting as a revocation gate, and logout revokes sessions.
package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/sessionwarden/sessionwarden/internal/auth"
	"github.com/sessionwarden/sessionwarden/internal/models"
	"github.com/sessionwarden/sessionwarden/internal/repository"
	"github.com/sessionwarden/sessionwarden/internal/utils"
)

// AuthService handles authentication operations
type AuthService struct {
	userRepo       repository.UserRepository
	sessionService *SessionService
	jwtService     *auth.JWTService
	passwordCfg    *auth.PasswordConfig
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo repository.UserRepository,
	sessionService *SessionService,
	jwtService *auth.JWTService,
	passwordCfg *auth.PasswordConfig,
) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		sessionService: sessionService,
		jwtService:     jwtService,
		passwordCfg:    passwordCfg,
	}
}

// TokenPair is the result of a successful login or refresh exchange.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	SessionID    string `json:"session_id"`
}

// RegisterUser creates a new user account
func (s *AuthService) RegisterUser(ctx context.Context, creds *models.UserCredentials) (*models.User, error) {
	// Hash the password
	passwordHash, salt, err := auth.HashPassword(creds.Password, s.passwordCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Create the user
	user := &models.User{
		Username:     creds.Username,
		PasswordHash: passwordHash,
		Salt:         salt,
		Role:         models.RoleUser,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	utils.LogAuth("register_success", fmt.Sprintf("%d", user.ID), user.Username, true, "")

	return user.Sanitize(), nil
}

// AuthenticateUser verifies user credentials, issues a token pair and records
// the session. A session store failure does not fail the login: the engine is
// advisory and the middleware treats unknown fingerprints permissively, so
// the issued tokens remain usable.
func (s *AuthService) AuthenticateUser(ctx context.Context, creds *models.UserCredentials, ipAddress, userAgent string) (*models.User, *TokenPair, error) {
	// Find the user
	user, err := s.userRepo.GetByUsername(ctx, creds.Username)
	if err != nil {
		if utils.IsNotFoundError(err) {
			utils.LogAuth("login_failed", "0", creds.Username, false, "user not found")
			return nil, nil, utils.NewInvalidCredentialsError()
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	// Verify the password
	match, err := auth.VerifyPassword(creds.Password, user.PasswordHash, user.Salt, s.passwordCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		utils.LogAuth("login_failed", fmt.Sprintf("%d", user.ID), user.Username, false, "invalid password")
		return nil, nil, utils.NewInvalidCredentialsError()
	}

	// Issue the token pair
	accessToken, _, err := s.jwtService.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, _, err := s.jwtService.GenerateRefreshToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	// Record the session. Log-don't-fail: the tokens are already signed and
	// the engine degrades to permissive passes for this login.
	pair := &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}
	session, err := s.sessionService.CreateSession(ctx, user.ID, accessToken, refreshToken, ipAddress, userAgent)
	if err != nil {
		log.Error().
			Err(err).
			Int64("user_id", user.ID).
			Msg("Failed to store session for login")
	} else {
		pair.SessionID = session.ID
	}

	utils.LogAuth("login_success", fmt.Sprintf("%d", user.ID), user.Username, true, "")

	return user.Sanitize(), pair, nil
}

// RefreshTokens exchanges a refresh token for a new token pair. The session
// acts as a revocation gate in front of the JWT exchange: only a live session
// may refresh. An idle session must first reactivate through a validated
// request, and a revoked session gets the generic termination error no matter
// how valid the JWT itself is.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	// Resolve the session owning this refresh token
	session, err := s.sessionService.ResolveRefreshToken(ctx, refreshToken)
	if err != nil {
		if utils.IsNotFoundError(err) {
			// No session claims this token; it was either never recorded or
			// already rotated away. Treat as an invalid credential.
			return nil, utils.NewInvalidTokenError()
		}
		return nil, fmt.Errorf("failed to resolve refresh token: %w", err)
	}

	if !session.IsLive() {
		utils.LogSessionEvent("refresh_rejected", session.ID, session.UserID)
		return nil, utils.NewSessionTerminatedError()
	}

	// Delegate the cryptographic exchange
	newAccess, newRefresh, claims, err := s.jwtService.ExchangeRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.UserID != session.UserID {
		return nil, utils.NewInvalidTokenError()
	}

	// Atomically rotate the stored token pairs. Losing the guard means a
	// concurrent refresh already consumed this token.
	rotated, err := s.sessionService.RotateTokens(ctx, session.ID, refreshToken, newAccess, newRefresh)
	if err != nil {
		return nil, fmt.Errorf("failed to rotate tokens: %w", err)
	}
	if !rotated {
		utils.LogSessionEvent("refresh_lost_rotation_race", session.ID, session.UserID)
		return nil, utils.NewInvalidTokenError()
	}

	return &TokenPair{
		AccessToken:  newAccess,
		RefreshToken: newRefresh,
		SessionID:    session.ID,
	}, nil
}

// Logout permanently revokes the session owning the presented access token.
// Idempotent: logging out of an already terminated session succeeds.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	session, err := s.sessionService.ResolveAccessToken(ctx, accessToken)
	if err != nil {
		if utils.IsNotFoundError(err) {
			// Nothing to revoke; logout of an unknown token is a no-op.
			return nil
		}
		return fmt.Errorf("failed to resolve access token: %w", err)
	}

	if err := s.sessionService.TerminateSession(ctx, session.ID); err != nil {
		return err
	}

	utils.LogAuth("logout_success", fmt.Sprintf("%d", session.UserID), "", true, "")
	return nil
}

// LogoutAll permanently revokes every non-revoked session of the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID int64) (int64, error) {
	count, err := s.sessionService.TerminateUserSessions(ctx, userID)
	if err != nil {
		return 0, err
	}

	utils.LogAuth("logout_all_success", fmt.Sprintf("%d", userID), "", true, "")
	return count, nil
}

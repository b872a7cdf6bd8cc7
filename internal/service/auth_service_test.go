package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sessionwarden/sessionwarden/internal/auth"
	"github.com/sessionwarden/sessionwarden/internal/config"
	"github.com/sessionwarden/sessionwarden/internal/models"
	"github.com/sessionwarden/sessionwarden/internal/utils"
)

type MockUserRepository struct {
	users           map[int64]*models.User
	usersByUsername map[string]*models.User
	nextID          int64
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:           make(map[int64]*models.User),
		usersByUsername: make(map[string]*models.User),
		nextID:          1,
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	if _, exists := m.usersByUsername[user.Username]; exists {
		return utils.NewDuplicateError("User", "username", user.Username)
	}
	user.ID = m.nextID
	m.nextID++
	m.users[user.ID] = user
	m.usersByUsername[user.Username] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, utils.NewNotFoundError("User", id)
	}
	return user, nil
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, ok := m.usersByUsername[username]
	if !ok {
		return nil, utils.NewNotFoundError("User", username)
	}
	return user, nil
}

func newTestAuthService(t *testing.T) (*AuthService, *MockUserRepository, *MockSessionRepository) {
	t.Helper()

	settings := testSessionSettings()
	vault, err := auth.NewTokenVault([]byte(settings.EncryptionKey))
	require.NoError(t, err)

	sessionRepo := NewMockSessionRepository()
	sessionService := NewSessionService(sessionRepo, vault, settings)

	userRepo := NewMockUserRepository()
	jwtService := auth.NewJWTService(&config.JWTSettings{
		Secret:        "test-secret",
		Expiry:        15 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        "sessionwarden-test",
	})
	passwordCfg := &auth.PasswordConfig{
		Memory: 16 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
	}

	return NewAuthService(userRepo, sessionService, jwtService, passwordCfg), userRepo, sessionRepo
}

func registerAndLogin(t *testing.T, svc *AuthService) (*models.User, *TokenPair) {
	t.Helper()

	creds := &models.UserCredentials{Username: "alice", Password: "str0ng-passw0rd"}
	user, err := svc.RegisterUser(context.Background(), creds)
	require.NoError(t, err)

	user, pair, err := svc.AuthenticateUser(context.Background(), creds, "203.0.113.7", "agent")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEmpty(t, pair.SessionID)

	return user, pair
}

func TestAuthService_AuthenticateUser_CreatesLiveSession(t *testing.T) {
	svc, _, sessionRepo := newTestAuthService(t)

	_, pair := registerAndLogin(t, svc)

	stored := sessionRepo.sessions[pair.SessionID]
	require.NotNil(t, stored)
	assert.Equal(t, models.StatusLive, stored.Status)
	assert.Equal(t, "203.0.113.7", stored.IPAddress)
}

func TestAuthService_AuthenticateUser_WrongPassword(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	creds := &models.UserCredentials{Username: "alice", Password: "str0ng-passw0rd"}
	_, err := svc.RegisterUser(context.Background(), creds)
	require.NoError(t, err)

	_, _, err = svc.AuthenticateUser(context.Background(),
		&models.UserCredentials{Username: "alice", Password: "wrong"}, "", "")
	require.Error(t, err)
	assert.Equal(t, 401, utils.StatusCode(err))
}

func TestAuthService_AuthenticateUser_UnknownUser(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, _, err := svc.AuthenticateUser(context.Background(),
		&models.UserCredentials{Username: "ghost", Password: "whatever1"}, "", "")
	require.Error(t, err)
	// Same generic error as a wrong password so usernames cannot be probed
	assert.Equal(t, 401, utils.StatusCode(err))
}

func TestAuthService_RefreshTokens_RotatesSessionTokens(t *testing.T) {
	svc, _, sessionRepo := newTestAuthService(t)

	_, pair := registerAndLogin(t, svc)
	oldRefreshHash := sessionRepo.sessions[pair.SessionID].RefreshTokenHash

	newPair, err := svc.RefreshTokens(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, pair.SessionID, newPair.SessionID)
	assert.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)

	// The stored fingerprints moved to the new generation
	assert.NotEqual(t, oldRefreshHash, sessionRepo.sessions[pair.SessionID].RefreshTokenHash)
}

func TestAuthService_RefreshTokens_ReplayFails(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, pair := registerAndLogin(t, svc)

	_, err := svc.RefreshTokens(context.Background(), pair.RefreshToken)
	require.NoError(t, err)

	// The consumed refresh token no longer matches any session fingerprint
	_, err = svc.RefreshTokens(context.Background(), pair.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, 401, utils.StatusCode(err))
}

func TestAuthService_RefreshTokens_RevokedSessionIsGated(t *testing.T) {
	svc, _, sessionRepo := newTestAuthService(t)

	_, pair := registerAndLogin(t, svc)

	now := time.Now().UTC()
	sessionRepo.sessions[pair.SessionID].Status = models.StatusRevoked
	sessionRepo.sessions[pair.SessionID].TerminatedAt = &now

	// The JWT is still cryptographically valid but the session gate rejects it
	_, err := svc.RefreshTokens(context.Background(), pair.RefreshToken)
	require.Error(t, err)
	assert.True(t, utils.IsSessionTerminatedError(err))
}

func TestAuthService_RefreshTokens_IdleSessionIsGated(t *testing.T) {
	svc, _, sessionRepo := newTestAuthService(t)

	_, pair := registerAndLogin(t, svc)
	sessionRepo.sessions[pair.SessionID].Status = models.StatusIdle

	// Idle sessions must reactivate through a validated request first
	_, err := svc.RefreshTokens(context.Background(), pair.RefreshToken)
	require.Error(t, err)
	assert.True(t, utils.IsSessionTerminatedError(err))
}

func TestAuthService_Logout_RevokesSession(t *testing.T) {
	svc, _, sessionRepo := newTestAuthService(t)

	_, pair := registerAndLogin(t, svc)

	require.NoError(t, svc.Logout(context.Background(), pair.AccessToken))
	assert.Equal(t, models.StatusRevoked, sessionRepo.sessions[pair.SessionID].Status)

	// Logging out again is a no-op success
	require.NoError(t, svc.Logout(context.Background(), pair.AccessToken))
}

func TestAuthService_Logout_UnknownTokenIsNoOp(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	assert.NoError(t, svc.Logout(context.Background(), "never-issued"))
}

func TestAuthService_LogoutAll(t *testing.T) {
	svc, _, sessionRepo := newTestAuthService(t)

	user, _ := registerAndLogin(t, svc)

	// Two more logins for the same user
	creds := &models.UserCredentials{Username: "alice", Password: "str0ng-passw0rd"}
	for i := 0; i < 2; i++ {
		_, _, err := svc.AuthenticateUser(context.Background(), creds, "", "")
		require.NoError(t, err)
	}

	count, err := svc.LogoutAll(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	for _, session := range sessionRepo.sessions {
		assert.Equal(t, models.StatusRevoked, session.Status)
	}
}

func TestAuthService_RegisterUser_DuplicateUsername(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	creds := &models.UserCredentials{Username: "alice", Password: "str0ng-passw0rd"}
	_, err := svc.RegisterUser(context.Background(), creds)
	require.NoError(t, err)

	_, err = svc.RegisterUser(context.Background(), creds)
	assert.True(t, utils.IsDuplicateError(err))
}

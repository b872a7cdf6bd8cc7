package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sessionwarden/sessionwarden/internal/config"
	"github.com/sessionwarden/sessionwarden/internal/constants"
	"github.com/sessionwarden/sessionwarden/internal/utils"
)

func testJWTService() *JWTService {
	return NewJWTService(&config.JWTSettings{
		Secret:        "test-secret-key-for-jwt-signing",
		Expiry:        15 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        "sessionwarden-test",
	})
}

func TestGenerateAccessToken_Validates(t *testing.T) {
	svc := testJWTService()

	token, jwtID, err := svc.GenerateAccessToken(42, "alice", "user")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotEmpty(t, jwtID)

	claims, err := svc.ValidateToken(token, constants.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, constants.TokenTypeAccess, claims.TokenType)
	assert.Equal(t, jwtID, claims.ID)
}

func TestValidateToken_RejectsWrongType(t *testing.T) {
	svc := testJWTService()

	refreshToken, _, err := svc.GenerateRefreshToken(42, "alice", "user")
	require.NoError(t, err)

	_, err = svc.ValidateToken(refreshToken, constants.TokenTypeAccess)
	assert.Error(t, err)
}

func TestValidateToken_RejectsWrongSecret(t *testing.T) {
	svc := testJWTService()
	token, _, err := svc.GenerateAccessToken(42, "alice", "user")
	require.NoError(t, err)

	other := NewJWTService(&config.JWTSettings{
		Secret:        "a-completely-different-secret",
		Expiry:        15 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        "sessionwarden-test",
	})

	_, err = other.ValidateToken(token, constants.TokenTypeAccess)
	assert.Error(t, err)
}

func TestValidateToken_RejectsExpired(t *testing.T) {
	svc := NewJWTService(&config.JWTSettings{
		Secret:        "test-secret-key-for-jwt-signing",
		Expiry:        -time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        "sessionwarden-test",
	})

	token, _, err := svc.GenerateAccessToken(42, "alice", "user")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token, constants.TokenTypeAccess)
	assert.ErrorIs(t, err, utils.ErrExpiredToken)
}

func TestValidateToken_RejectsGarbage(t *testing.T) {
	svc := testJWTService()

	_, err := svc.ValidateToken("not-a-jwt", constants.TokenTypeAccess)
	assert.Error(t, err)
}

func TestExchangeRefreshToken_IssuesNewPair(t *testing.T) {
	svc := testJWTService()

	refreshToken, _, err := svc.GenerateRefreshToken(42, "alice", "admin")
	require.NoError(t, err)

	newAccess, newRefresh, claims, err := svc.ExchangeRefreshToken(refreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, newAccess)
	assert.NotEmpty(t, newRefresh)
	assert.NotEqual(t, refreshToken, newRefresh)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "admin", claims.Role)

	// Both new tokens validate as their respective types
	accessClaims, err := svc.ValidateToken(newAccess, constants.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(42), accessClaims.UserID)

	_, err = svc.ValidateToken(newRefresh, constants.TokenTypeRefresh)
	assert.NoError(t, err)
}

func TestExchangeRefreshToken_RejectsAccessToken(t *testing.T) {
	svc := testJWTService()

	accessToken, _, err := svc.GenerateAccessToken(42, "alice", "user")
	require.NoError(t, err)

	_, _, _, err = svc.ExchangeRefreshToken(accessToken)
	assert.Error(t, err)
}

func TestParseTokenWithoutValidation_ExtractsID(t *testing.T) {
	svc := testJWTService()

	token, jwtID, err := svc.GenerateAccessToken(42, "alice", "user")
	require.NoError(t, err)

	parsedID, err := svc.ParseTokenWithoutValidation(token)
	require.NoError(t, err)
	assert.Equal(t, jwtID, parsedID)
}

func TestExtractUserIDFromToken(t *testing.T) {
	svc := testJWTService()

	token, _, err := svc.GenerateAccessToken(42, "alice", "user")
	require.NoError(t, err)

	userID, err := svc.ExtractUserIDFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

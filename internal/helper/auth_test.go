package helper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/trailpost/trailpost/internal/apperr"
	"github.com/trailpost/trailpost/internal/domain"
)

func testAuth() Auth {
	return SetupAuth("access-secret", "refresh-secret", 15*time.Minute, 168*time.Hour, bcrypt.MinCost)
}

func testAccount() *domain.Account {
	return &domain.Account{
		ID:             7,
		Email:          "mala@example.com",
		Role:           domain.RoleTraveller,
		SessionVersion: 3,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	auth := testAuth()
	acc := testAccount()

	access, err := auth.IssueAccessToken(acc)
	require.NoError(t, err)

	claims, err := auth.VerifyToken(access, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.AccountID)
	assert.Equal(t, domain.RoleTraveller, claims.Role)
	assert.Equal(t, uint(3), claims.SessionVersion)
	assert.Equal(t, TokenAccess, claims.Kind)
}

func TestAccessTokenCannotBeUsedAsRefresh(t *testing.T) {
	auth := testAuth()
	acc := testAccount()

	access, err := auth.IssueAccessToken(acc)
	require.NoError(t, err)

	// distinct secrets: the refresh verifier never sees a valid signature
	_, err = auth.VerifyToken(access, TokenRefresh)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)

	refresh, err := auth.IssueRefreshToken(acc)
	require.NoError(t, err)
	_, err = auth.VerifyToken(refresh, TokenAccess)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestExpiredTokenRejected(t *testing.T) {
	auth := SetupAuth("access-secret", "refresh-secret", -time.Minute, 168*time.Hour, bcrypt.MinCost)

	access, err := auth.IssueAccessToken(testAccount())
	require.NoError(t, err)

	_, err = auth.VerifyToken(access, TokenAccess)
	assert.ErrorIs(t, err, apperr.ErrTokenExpired)
}

func TestForeignSignatureRejected(t *testing.T) {
	auth := testAuth()
	other := SetupAuth("other-access", "other-refresh", 15*time.Minute, 168*time.Hour, bcrypt.MinCost)

	access, err := other.IssueAccessToken(testAccount())
	require.NoError(t, err)

	_, err = auth.VerifyToken(access, TokenAccess)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestVerifyTokenEmptyString(t *testing.T) {
	_, err := testAuth().VerifyToken("", TokenAccess)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestPasswordHashAndVerify(t *testing.T) {
	auth := testAuth()

	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, auth.VerifyPassword("correct horse", hash))
	assert.ErrorIs(t, auth.VerifyPassword("wrong", hash), apperr.ErrInvalidCredentials)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "mala@example.com", NormalizeEmail("  MaLa@Example.COM "))
}

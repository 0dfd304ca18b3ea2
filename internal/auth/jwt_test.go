package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/points-wallet/internal/model"
)

func testUser() *model.User {
	return &model.User{
		ID:    uuid.New(),
		Email: "user@user.com",
		Role:  model.RoleUser,
	}
}

func TestAccessToken_RoundTrip(t *testing.T) {
	m := NewTokenManager("access", "refresh", time.Hour, time.Hour)
	u := testUser()

	token, err := m.IssueAccessToken(u)
	require.NoError(t, err)

	claims, err := m.ParseAccessToken(token)
	require.NoError(t, err)

	id, err := claims.ID()
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
	assert.Equal(t, u.Email, claims.Email)
	assert.Equal(t, model.RoleUser, claims.Role)
}

func TestAccessToken_Expired(t *testing.T) {
	m := NewTokenManager("access", "refresh", time.Minute, time.Hour)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := m.IssueAccessToken(testUser())
	require.NoError(t, err)

	_, err = m.ParseAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestAccessToken_WrongSecret(t *testing.T) {
	issuer := NewTokenManager("one", "refresh", time.Hour, time.Hour)
	verifier := NewTokenManager("two", "refresh", time.Hour, time.Hour)

	token, err := issuer.IssueAccessToken(testUser())
	require.NoError(t, err)

	_, err = verifier.ParseAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshToken_NotAcceptedAsAccess(t *testing.T) {
	m := NewTokenManager("access", "refresh", time.Hour, time.Hour)
	u := testUser()

	refresh, err := m.IssueRefreshToken(u.ID)
	require.NoError(t, err)

	id, err := m.ParseRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	_, err = m.ParseAccessToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessToken_Garbage(t *testing.T) {
	m := NewTokenManager("", "", time.Hour, time.Hour)

	_, err := m.ParseAccessToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)

	assert.NoError(t, CheckPassword(hash, "secret1"))
	assert.Error(t, CheckPassword(hash, "secret2"))
}

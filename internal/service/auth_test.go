package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/points-wallet/internal/model"
	"github.com/mmeshcher/points-wallet/internal/repository"
)

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(repository.NewMemoryRepository())
	u := mustCreate(t, svc, "Alice", "alice@example.com", 0)

	session, err := svc.Authenticate(ctx, "ALICE@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, session.User.ID)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)

	claims, err := svc.tokens.ParseAccessToken(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims.UserID)
	assert.Equal(t, model.RoleUser, claims.Role)
}

func TestAuthenticate_InvalidCredentials(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(repository.NewMemoryRepository())
	u := mustCreate(t, svc, "Alice", "alice@example.com", 0)

	_, err := svc.Authenticate(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	status := model.UserStatusSuspended
	_, err = svc.UpdateUser(ctx, uuid.Nil, u.ID, UserChanges{Status: &status})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "alice@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(repository.NewMemoryRepository())
	u := mustCreate(t, svc, "Alice", "alice@example.com", 0)

	session, err := svc.Authenticate(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	access, err := svc.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, access)

	_, err = svc.Refresh(ctx, session.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = svc.DeleteUser(ctx, uuid.Nil, u.ID)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

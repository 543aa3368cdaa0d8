package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wwtech/onboarding-backend/internal/models"
)

func TestAuthService_Login(t *testing.T) {
	env := newTestEnv(t, WorkflowConfig{})
	ctx := context.Background()

	admin, err := env.auth.CreateAdmin(ctx, " HR@Example.com ", "s3cret!", "Priya HR")
	require.NoError(t, err)
	assert.Equal(t, "hr@example.com", admin.Email)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	t.Run("Success", func(t *testing.T) {
		resp, err := env.auth.Login(ctx, "hr@example.com", "s3cret!")
		require.NoError(t, err)
		assert.Equal(t, admin.ID, resp.ID)
		assert.Equal(t, models.RoleAdmin, resp.Role)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, int64(3600), resp.ExpiresIn)

		stored, err := env.store.Stores().Accounts.GetByID(ctx, admin.ID)
		require.NoError(t, err)
		assert.True(t, stored.LastLoginAt.Valid)
	})

	t.Run("Missing input", func(t *testing.T) {
		_, err := env.auth.Login(ctx, "", "x")
		assert.ErrorIs(t, err, ErrMissingFields)
	})

	t.Run("Wrong password and unknown email look the same", func(t *testing.T) {
		_, errWrong := env.auth.Login(ctx, "hr@example.com", "nope")
		_, errUnknown := env.auth.Login(ctx, "ghost@example.com", "s3cret!")
		assert.ErrorIs(t, errWrong, ErrInvalidCredentials)
		assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
		assert.Equal(t, errWrong.Error(), errUnknown.Error())
	})

	t.Run("Duplicate admin", func(t *testing.T) {
		_, err := env.auth.CreateAdmin(ctx, "hr@example.com", "other", "Someone")
		require.ErrorIs(t, err, ErrAccountExists)
		var svcErr *Error
		require.True(t, errors.As(err, &svcErr))
		assert.Equal(t, "User account already exists", svcErr.Message)
	})
}

func TestAuthService_InactiveAdmin(t *testing.T) {
	env := newTestEnv(t, WorkflowConfig{})
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret!"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, env.store.Stores().Accounts.Create(ctx, &models.UserAccount{
		ID:           uuid.New(),
		Email:        "former@example.com",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		IsActive:     false,
	}))

	_, err = env.auth.Login(ctx, "former@example.com", "s3cret!")
	assert.ErrorIs(t, err, ErrAccountInactive)
	assert.Equal(t, KindForbidden, KindOf(err))

	_, err = env.auth.Login(ctx, "former@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_GetProfile(t *testing.T) {
	env := newTestEnv(t, WorkflowConfig{})
	ctx := context.Background()

	admin, err := env.auth.CreateAdmin(ctx, "hr@example.com", "s3cret!", "Priya HR")
	require.NoError(t, err)

	profile, err := env.auth.GetProfile(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "Priya HR", profile.FullName)

	_, err = env.auth.GetProfile(ctx, env.adminID)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

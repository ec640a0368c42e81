package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/paperdeckapp/paperdeck-server/internal/errors"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, RegisterRequest{
		Email:       "ada@example.com",
		Password:    "correct-horse-battery",
		DisplayName: "Ada",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.User.ID)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	// Password hash never equals the raw password
	assert.NotEqual(t, "correct-horse-battery", resp.User.PasswordHash)

	login, err := env.auth.Login(ctx, LoginRequest{
		Email:    "ada@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)
	assert.NotEqual(t, resp.SessionID, login.SessionID)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	req := RegisterRequest{
		Email:       "ada@example.com",
		Password:    "correct-horse-battery",
		DisplayName: "Ada",
	}
	_, err := env.auth.Register(ctx, req)
	require.NoError(t, err)

	_, err = env.auth.Register(ctx, req)
	require.Error(t, err)

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeAlreadyExists, derr.Code)
}

func TestAuthService_Register_Validation(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.auth.Register(context.Background(), RegisterRequest{
		Email:       "not-an-email",
		Password:    "short",
		DisplayName: "",
	})
	require.Error(t, err)

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeValidation, derr.Code)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	createTestUser(t, env.store, "ada@example.com")

	_, err := env.auth.Login(ctx, LoginRequest{
		Email:    "ada@example.com",
		Password: "wrong-password",
	})
	require.Error(t, err)

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeInvalidCredentials, derr.Code)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.auth.Login(context.Background(), LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever-password",
	})
	require.Error(t, err)

	// Same error as a wrong password so the response doesn't leak
	// which emails exist
	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeInvalidCredentials, derr.Code)
}

func TestAuthService_RefreshTokens_Rotation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, RegisterRequest{
		Email:       "ada@example.com",
		Password:    "correct-horse-battery",
		DisplayName: "Ada",
	})
	require.NoError(t, err)

	refreshed, err := env.auth.RefreshTokens(ctx, RefreshRequest{RefreshToken: resp.RefreshToken})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, refreshed.User.ID)
	assert.NotEqual(t, resp.RefreshToken, refreshed.RefreshToken)

	// The old refresh token was rotated out
	_, err = env.auth.RefreshTokens(ctx, RefreshRequest{RefreshToken: resp.RefreshToken})
	require.Error(t, err)

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeTokenExpired, derr.Code)
}

func TestAuthService_Logout(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, RegisterRequest{
		Email:       "ada@example.com",
		Password:    "correct-horse-battery",
		DisplayName: "Ada",
	})
	require.NoError(t, err)

	require.NoError(t, env.auth.Logout(ctx, resp.SessionID))

	_, err = env.auth.RefreshTokens(ctx, RefreshRequest{RefreshToken: resp.RefreshToken})
	require.Error(t, err)
}

func TestAuthService_VerifyAccessToken(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, RegisterRequest{
		Email:       "ada@example.com",
		Password:    "correct-horse-battery",
		DisplayName: "Ada",
	})
	require.NoError(t, err)

	user, claims, err := env.auth.VerifyAccessToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)
	assert.Equal(t, resp.User.ID, claims.UserID)

	_, _, err = env.auth.VerifyAccessToken(ctx, "v4.local.garbage")
	require.Error(t, err)
}

package service

import (
	"context"
	"testing"

	"jobtracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuth(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(newTestStore(t).Users()).WithCost(bcrypt.MinCost)
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	svc := newAuth(t)

	user, err := svc.Register(ctx, RegisterInput{Username: " alice ", Password: "secret123", Email: "alice@example.com"})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "secret123", user.PasswordHash)
	require.NotNil(t, user.Email)

	_, err = svc.Register(ctx, RegisterInput{Username: "alice", Password: "secret123"})
	assert.True(t, models.IsCode(err, models.CodeConflict))
	assert.Contains(t, err.Error(), "Username already exists")

	_, err = svc.Register(ctx, RegisterInput{Username: "bob", Password: "secret123", Email: "alice@example.com"})
	assert.True(t, models.IsCode(err, models.CodeConflict))
	assert.Contains(t, err.Error(), "Email already registered")

	_, err = svc.Register(ctx, RegisterInput{Username: "carol", Password: "secret123"})
	assert.NoError(t, err, "email is optional")
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc := newAuth(t)
	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"missing username", RegisterInput{Password: "secret123"}},
		{"missing password", RegisterInput{Username: "alice"}},
		{"short password", RegisterInput{Username: "alice", Password: "short"}},
		{"bad username", RegisterInput{Username: "al ice", Password: "secret123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.in)
			assert.True(t, models.IsCode(err, models.CodeValidation), "got %v", err)
		})
	}
}

func TestAuthService_Verify(t *testing.T) {
	ctx := context.Background()
	svc := newAuth(t)
	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "secret123"})
	require.NoError(t, err)

	res, err := svc.Verify(ctx, "nobody", "secret123")
	require.NoError(t, err)
	assert.Equal(t, VerifyUsernameNotFound, res.Status)
	assert.Nil(t, res.User)

	res, err = svc.Verify(ctx, "alice", "wrong-password")
	require.NoError(t, err)
	assert.Equal(t, VerifyWrongPassword, res.Status)

	res, err = svc.Verify(ctx, "alice", "secret123")
	require.NoError(t, err)
	assert.Equal(t, VerifySuccess, res.Status)
	require.NotNil(t, res.User)
	assert.Equal(t, "alice", res.User.Username)
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	svc := newAuth(t)
	user, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "secret123"})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user.ID, "not-it", "newsecret1")
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))

	err = svc.ChangePassword(ctx, user.ID, "secret123", "short")
	assert.True(t, models.IsCode(err, models.CodeValidation))

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "secret123", "newsecret1"))

	res, err := svc.Verify(ctx, "alice", "newsecret1")
	require.NoError(t, err)
	assert.Equal(t, VerifySuccess, res.Status)
}

func TestAuthService_DeleteAccount(t *testing.T) {
	ctx := context.Background()
	svc := newAuth(t)
	user, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "secret123"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAccount(ctx, user.ID))

	err = svc.DeleteAccount(ctx, user.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	res, err := svc.Verify(ctx, "alice", "secret123")
	require.NoError(t, err)
	assert.Equal(t, VerifyUsernameNotFound, res.Status)
}

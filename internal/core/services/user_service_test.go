package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/pollsite/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/pollsite/internal/core/domain"
	"github.com/vncsmyrnk/pollsite/internal/core/ports"
	"golang.org/x/crypto/bcrypt"
)

func TestRegisterHashesPassword(t *testing.T) {
	repo := memory.NewUserRepository()
	svc := NewUserService(repo, bcrypt.MinCost)

	user, err := svc.Register(context.Background(), ports.SignupInput{
		Username: "alice", Password1: "correct-horse", Password2: "correct-horse",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct-horse")))

	got, err := svc.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
}

func TestRegisterValidation(t *testing.T) {
	cases := map[string]struct {
		input ports.SignupInput
		field string
	}{
		"missing username": {ports.SignupInput{Password1: "abcdefgh1", Password2: "abcdefgh1"}, "username"},
		"bad characters":   {ports.SignupInput{Username: "bob smith", Password1: "abcdefgh1", Password2: "abcdefgh1"}, "username"},
		"short password":   {ports.SignupInput{Username: "bob", Password1: "abc12", Password2: "abc12"}, "password1"},
		"numeric password": {ports.SignupInput{Username: "bob", Password1: "12345678", Password2: "12345678"}, "password1"},
		"same as username": {ports.SignupInput{Username: "bobbybobby", Password1: "BobbyBobby", Password2: "BobbyBobby"}, "password1"},
		"mismatch":         {ports.SignupInput{Username: "bob", Password1: "abcdefgh1", Password2: "abcdefgh2"}, "password2"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := NewUserService(memory.NewUserRepository(), bcrypt.MinCost)
			_, err := svc.Register(context.Background(), tc.input)

			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Contains(t, verr.Fields, tc.field)
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := NewUserService(memory.NewUserRepository(), bcrypt.MinCost)
	input := ports.SignupInput{Username: "carol", Password1: "s3cret-pass", Password2: "s3cret-pass"}

	_, err := svc.Register(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), input)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, domain.ErrUsernameTaken.Error(), verr.Fields["username"])
}

func TestGetByIDMissing(t *testing.T) {
	svc := NewUserService(memory.NewUserRepository(), bcrypt.MinCost)
	_, err := svc.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lawconnect/internal/models"
)

func TestUserService_UpdateProfile(t *testing.T) {
	s := NewUserService(stubUserRepository{})

	updated, err := s.UpdateProfile(context.Background(), models.Identity{ID: "u1", Username: "old"}, ProfileInput{
		Username:  "alice",
		FirstName: "Alice",
		ImageURL:  "https://img/a",
	})
	require.NoError(t, err)
	assert.Equal(t, models.Identity{ID: "u1", Username: "alice", FirstName: "Alice", ImageURL: "https://img/a"}, *updated)
}

func TestUserService_UpdateProfileErrors(t *testing.T) {
	_, err := NewUserService(stubUserRepository{}).UpdateProfile(context.Background(), models.Identity{ID: "u1"}, ProfileInput{Username: "  "})
	assert.ErrorIs(t, err, ErrInvalidPayload)

	dbErr := errors.New("db down")
	_, err = NewUserService(stubUserRepository{err: dbErr}).UpdateProfile(context.Background(), models.Identity{ID: "u1"}, ProfileInput{Username: "alice"})
	assert.ErrorIs(t, err, dbErr)
}

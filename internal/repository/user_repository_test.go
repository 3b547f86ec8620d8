package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lawconnect/internal/models"
	"lawconnect/internal/storage"
)

func newUserRepository(t *testing.T) UserRepository {
	t.Helper()

	db, err := storage.NewMemoryDatabase()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.AutoMigrate(&models.User{}))

	return NewUserRepository(db)
}

func TestUserRepository_UpsertAndFind(t *testing.T) {
	repo := newUserRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.User{ExternalID: "u1", Username: "alice"}))
	require.NoError(t, repo.Upsert(ctx, &models.User{ExternalID: "u1", Username: "alice2", FirstName: "Alice", ImageURL: "https://img/a"}))

	user, err := repo.FindByExternalID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice2", user.Username)
	assert.Equal(t, "Alice", user.FirstName)
	assert.Equal(t, "https://img/a", user.ImageURL)

	_, err = repo.FindByExternalID(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_FindByExternalIDs(t *testing.T) {
	repo := newUserRepository(t)
	ctx := context.Background()

	for _, id := range []string{"u1", "u2", "u3"} {
		require.NoError(t, repo.Upsert(ctx, &models.User{ExternalID: id, Username: "name-" + id}))
	}

	users, err := repo.FindByExternalIDs(ctx, []string{"u1", "u3", "missing"})
	require.NoError(t, err)
	assert.Len(t, users, 2)

	users, err = repo.FindByExternalIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}

package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/engineeye/internal/models"
)

func TestMongoUserCollection_Integration(t *testing.T) {
	database := testDatabase(t)
	ctx := context.Background()
	users := &MongoUserCollection{Collection: database.Collection(UsersCollection)}

	user := models.User{
		Username:     "ayse",
		Email:        "ayse@example.com",
		PasswordHash: "hashedpassword",
	}

	id, err := users.InsertUser(ctx, user)
	require.NoError(t, err)
	assert.False(t, id.IsZero())

	found, err := users.FindUserByID(ctx, id.Hex())
	require.NoError(t, err)
	assert.Equal(t, "ayse", found.Username)
	assert.NotZero(t, found.CreatedAt)
	assert.NotZero(t, found.UpdatedAt)

	found, err = users.FindUserByEmail(ctx, "ayse@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, found.ID)

	found, err = users.FindUserByUsername(ctx, "ayse")
	require.NoError(t, err)
	assert.Equal(t, id, found.ID)

	_, err = users.FindUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = users.FindUserByID(ctx, "bad-id")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestMongoUserCollection_UniqueIndexes(t *testing.T) {
	database := testDatabase(t)
	ctx := context.Background()
	users := &MongoUserCollection{Collection: database.Collection(UsersCollection)}

	_, err := users.InsertUser(ctx, models.User{Username: "ayse", Email: "ayse@example.com"})
	require.NoError(t, err)

	_, err = users.InsertUser(ctx, models.User{Username: "other", Email: "ayse@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	otherID, err := users.InsertUser(ctx, models.User{Username: "mehmet", Email: "mehmet@example.com"})
	require.NoError(t, err)

	err = users.UpdateUser(ctx, otherID.Hex(), models.User{Username: "ayse", Email: "mehmet@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestMongoUserCollection_UpdateAndLastLogin(t *testing.T) {
	database := testDatabase(t)
	ctx := context.Background()
	users := &MongoUserCollection{Collection: database.Collection(UsersCollection)}

	id, err := users.InsertUser(ctx, models.User{Username: "ayse", Email: "ayse@example.com"})
	require.NoError(t, err)

	user, err := users.FindUserByID(ctx, id.Hex())
	require.NoError(t, err)
	user.Bio = "Weekend mechanic"
	require.NoError(t, users.UpdateUser(ctx, id.Hex(), *user))

	require.NoError(t, users.UpdateLastLogin(ctx, id.Hex()))

	user, err = users.FindUserByID(ctx, id.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Weekend mechanic", user.Bio)
	assert.NotNil(t, user.LastLogin)

}

func TestMongoUserCollection_RefreshToken(t *testing.T) {
	database := testDatabase(t)
	ctx := context.Background()
	users := &MongoUserCollection{Collection: database.Collection(UsersCollection)}

	id, err := users.InsertUser(ctx, models.User{Username: "ayse", Email: "ayse@example.com"})
	require.NoError(t, err)
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Millisecond)

	require.NoError(t, users.SetRefreshToken(ctx, id.Hex(), "", "hash-1", &expires))
	user, err := users.FindUserByID(ctx, id.Hex())
	require.NoError(t, err)
	assert.Equal(t, "hash-1", user.RefreshTokenHash)
	require.NotNil(t, user.RefreshExpiresAt)
	assert.True(t, expires.Equal(*user.RefreshExpiresAt))

	require.NoError(t, users.SetRefreshToken(ctx, id.Hex(), "hash-1", "hash-2", &expires))
	err = users.SetRefreshToken(ctx, id.Hex(), "hash-1", "hash-3", &expires)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, users.SetRefreshToken(ctx, id.Hex(), "", "", nil))
	user, err = users.FindUserByID(ctx, id.Hex())
	require.NoError(t, err)
	assert.Empty(t, user.RefreshTokenHash)
	assert.Nil(t, user.RefreshExpiresAt)

	err = users.SetRefreshToken(ctx, "bad-id", "", "x", &expires)
	assert.ErrorIs(t, err, ErrInvalidID)
}

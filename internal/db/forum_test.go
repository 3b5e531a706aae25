package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/engineeye/internal/models"
)

func TestMongoForumCollection_Integration(t *testing.T) {
	database := testDatabase(t)
	ctx := context.Background()
	posts := &MongoForumCollection{Collection: database.Collection(PostsCollection)}

	id, err := posts.InsertPost(ctx, models.ForumPost{
		UserID:    "user-1",
		Username:  "ayse",
		Title:     "Winter tyres",
		Content:   "Which brand do you use?",
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	require.NoError(t, posts.AddToSet(ctx, id.Hex(), FieldLikes, "user-2"))
	require.NoError(t, posts.AddToSet(ctx, id.Hex(), FieldLikes, "user-2"))
	require.NoError(t, posts.AddToSet(ctx, id.Hex(), FieldSaves, "user-3"))

	require.NoError(t, posts.PushComment(ctx, id.Hex(), models.ForumComment{ID: "c1", UserID: "user-2", Content: "Michelin"}))
	require.NoError(t, posts.SetCommentLikes(ctx, id.Hex(), "c1", true, "user-1"))

	post, err := posts.FindPostByID(ctx, id.Hex())
	require.NoError(t, err)
	assert.Equal(t, []string{"user-2"}, post.Likes)
	assert.Equal(t, []string{"user-3"}, post.Saves)
	require.Len(t, post.Comments, 1)
	assert.Equal(t, []string{"user-1"}, post.Comments[0].Likes)

	require.NoError(t, posts.PullFromSet(ctx, id.Hex(), FieldLikes, "user-2"))
	require.NoError(t, posts.SetCommentLikes(ctx, id.Hex(), "c1", false, "user-1"))

	post, err = posts.FindPostByID(ctx, id.Hex())
	require.NoError(t, err)
	assert.Empty(t, post.Likes)
	assert.Empty(t, post.Comments[0].Likes)

	assert.ErrorIs(t, posts.SetCommentLikes(ctx, id.Hex(), "missing", true, "user-1"), ErrNotFound)
	assert.Error(t, posts.AddToSet(ctx, id.Hex(), "comments", "user-1"))

	list, err := posts.FindPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

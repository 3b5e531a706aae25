package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ukydev/engineeye/internal/models"
)

// MongoForumCollection implements ForumCollection for MongoDB. Set fields
// are changed with $addToSet and $pull so concurrent toggles by different
// users never overwrite each other.
type MongoForumCollection struct {
	Collection *mongo.Collection
}

// InsertPost inserts a forum post.
func (c *MongoForumCollection) InsertPost(ctx context.Context, post models.ForumPost) (primitive.ObjectID, error) {
	if c.Collection == nil {
		return primitive.NilObjectID, fmt.Errorf("mongo collection is nil")
	}
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	if post.Likes == nil {
		post.Likes = []string{}
	}
	if post.Saves == nil {
		post.Saves = []string{}
	}
	if post.Comments == nil {
		post.Comments = []models.ForumComment{}
	}
	if _, err := c.Collection.InsertOne(ctx, post); err != nil {
		return primitive.NilObjectID, err
	}
	return post.ID, nil
}

// FindPosts returns every post, newest first.
func (c *MongoForumCollection) FindPosts(ctx context.Context) ([]models.ForumPost, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := c.Collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.ForumPost{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// FindPostByID finds a post by its ID.
func (c *MongoForumCollection) FindPostByID(ctx context.Context, id string) (*models.ForumPost, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var post models.ForumPost
	if err := c.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&post); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

// PushComment appends a comment to a post.
func (c *MongoForumCollection) PushComment(ctx context.Context, postID string, comment models.ForumComment) error {
	if comment.Likes == nil {
		comment.Likes = []string{}
	}
	return c.updatePost(ctx, postID, nil, bson.M{"$push": bson.M{"comments": comment}})
}

// AddToSet adds userID to the likes or saves of a post.
func (c *MongoForumCollection) AddToSet(ctx context.Context, postID, field, userID string) error {
	if err := checkSetField(field); err != nil {
		return err
	}
	return c.updatePost(ctx, postID, nil, bson.M{"$addToSet": bson.M{field: userID}})
}

// PullFromSet removes userID from the likes or saves of a post.
func (c *MongoForumCollection) PullFromSet(ctx context.Context, postID, field, userID string) error {
	if err := checkSetField(field); err != nil {
		return err
	}
	return c.updatePost(ctx, postID, nil, bson.M{"$pull": bson.M{field: userID}})
}

// SetCommentLikes adds or removes userID in the likes of one comment.
func (c *MongoForumCollection) SetCommentLikes(ctx context.Context, postID, commentID string, add bool, userID string) error {
	op := "$pull"
	if add {
		op = "$addToSet"
	}
	return c.updatePost(ctx, postID, bson.M{"comments.id": commentID}, bson.M{op: bson.M{"comments.$.likes": userID}})
}

func (c *MongoForumCollection) updatePost(ctx context.Context, postID string, extra bson.M, update bson.M) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	oid, err := objectID(postID)
	if err != nil {
		return err
	}

	filter := bson.M{"_id": oid}
	for k, v := range extra {
		filter[k] = v
	}
	result, err := c.Collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func checkSetField(field string) error {
	if field != FieldLikes && field != FieldSaves {
		return fmt.Errorf("unsupported set field %q", field)
	}
	return nil
}

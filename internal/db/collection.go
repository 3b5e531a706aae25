package db

import (
	"context"
	"errors"
	"time"

	"github.com/ukydev/engineeye/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned when no document matches an id (and owner, where
// the operation is owner-scoped).
var ErrNotFound = errors.New("document not found")

// ErrInvalidID is returned for ids that are not valid ObjectID hex strings.
var ErrInvalidID = errors.New("invalid document id")

// ErrDuplicate is returned when an insert or update breaks a unique index.
var ErrDuplicate = errors.New("duplicate key")

// VehicleCollection defines the interface for vehicle data operations.
// Every method is scoped to the owning user.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle models.VehicleRecord) (primitive.ObjectID, error)
	FindVehicles(ctx context.Context, ownerUserID string) ([]models.VehicleRecord, error)
	FindVehicleByID(ctx context.Context, ownerUserID, id string) (*models.VehicleRecord, error)
	UpdateVehicle(ctx context.Context, ownerUserID, id string, update VehicleUpdate) error
	DeleteVehicle(ctx context.Context, ownerUserID, id string) error
}

// VehicleUpdate is a single atomic update of one vehicle document. Empty
// parts are left out of the update.
type VehicleUpdate struct {
	Set  bson.M
	Push bson.M
	Pull bson.M
}

// UserCollection defines the interface for user database operations
type UserCollection interface {
	InsertUser(ctx context.Context, user models.User) (primitive.ObjectID, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, user models.User) error
	SetRefreshToken(ctx context.Context, id, current, next string, expiresAt *time.Time) error
	UpdateLastLogin(ctx context.Context, id string) error
}

// Set fields of a forum post that hold user ids.
const (
	FieldLikes = "likes"
	FieldSaves = "saves"
)

// ForumCollection defines the interface for forum post operations.
type ForumCollection interface {
	InsertPost(ctx context.Context, post models.ForumPost) (primitive.ObjectID, error)
	FindPosts(ctx context.Context) ([]models.ForumPost, error)
	FindPostByID(ctx context.Context, id string) (*models.ForumPost, error)
	PushComment(ctx context.Context, postID string, comment models.ForumComment) error
	AddToSet(ctx context.Context, postID, field, userID string) error
	PullFromSet(ctx context.Context, postID, field, userID string) error
	SetCommentLikes(ctx context.Context, postID, commentID string, add bool, userID string) error
}

package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ukydev/engineeye/internal/models"
)

// Collection names.
const (
	VehiclesCollection = "vehicles"
	UsersCollection    = "users"
	PostsCollection    = "forum_posts"
)

// ConnectMongo connects to MongoDB at uri and verifies the connection.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is empty")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	// Ping to verify connection
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the indexes the stores rely on: unique user email
// and username, and the owner listing of vehicles.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	_, err := database.Collection(UsersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}

	_, err = database.Collection(VehiclesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner_user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create vehicle indexes: %w", err)
	}

	_, err = database.Collection(PostsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create forum indexes: %w", err)
	}

	log.WithField("database", database.Name()).Debug("MongoDB indexes ensured")
	return nil
}

// MongoVehicleCollection implements VehicleCollection for MongoDB.
type MongoVehicleCollection struct {
	Collection *mongo.Collection
}

// InsertVehicle inserts a vehicle record into the collection.
func (c *MongoVehicleCollection) InsertVehicle(ctx context.Context, vehicle models.VehicleRecord) (primitive.ObjectID, error) {
	if c.Collection == nil {
		return primitive.NilObjectID, fmt.Errorf("mongo collection is nil")
	}
	if vehicle.ID.IsZero() {
		vehicle.ID = primitive.NewObjectID()
	}
	if _, err := c.Collection.InsertOne(ctx, vehicle); err != nil {
		return primitive.NilObjectID, err
	}
	return vehicle.ID, nil
}

// FindVehicles returns the owner's vehicles, newest first.
func (c *MongoVehicleCollection) FindVehicles(ctx context.Context, ownerUserID string) ([]models.VehicleRecord, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := c.Collection.Find(ctx, bson.M{"owner_user_id": ownerUserID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	vehicles := []models.VehicleRecord{}
	if err := cursor.All(ctx, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// FindVehicleByID finds one of the owner's vehicles by its ID.
func (c *MongoVehicleCollection) FindVehicleByID(ctx context.Context, ownerUserID, id string) (*models.VehicleRecord, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	filter, err := ownedFilter(ownerUserID, id)
	if err != nil {
		return nil, err
	}

	var vehicle models.VehicleRecord
	err = c.Collection.FindOne(ctx, filter).Decode(&vehicle)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &vehicle, nil
}

// UpdateVehicle applies update to one of the owner's vehicles in a single
// write.
func (c *MongoVehicleCollection) UpdateVehicle(ctx context.Context, ownerUserID, id string, update VehicleUpdate) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	filter, err := ownedFilter(ownerUserID, id)
	if err != nil {
		return err
	}

	doc := update.Document()
	if len(doc) == 0 {
		return nil
	}
	result, err := c.Collection.UpdateOne(ctx, filter, doc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteVehicle deletes one of the owner's vehicles.
func (c *MongoVehicleCollection) DeleteVehicle(ctx context.Context, ownerUserID, id string) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	filter, err := ownedFilter(ownerUserID, id)
	if err != nil {
		return err
	}

	result, err := c.Collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Document renders the update as a MongoDB update document.
func (u VehicleUpdate) Document() bson.M {
	doc := bson.M{}
	if len(u.Set) > 0 {
		doc["$set"] = u.Set
	}
	if len(u.Push) > 0 {
		doc["$push"] = u.Push
	}
	if len(u.Pull) > 0 {
		doc["$pull"] = u.Pull
	}
	return doc
}

func ownedFilter(ownerUserID, id string) (bson.M, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return bson.M{"_id": oid, "owner_user_id": ownerUserID}, nil
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

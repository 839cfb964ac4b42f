package connectionRepo

import (
	"context"
	"fmt"
	"time"

	"circl/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "connections"

// MongoConnectionRepo implements ConnectionRepository using MongoDB.
type MongoConnectionRepo struct {
	coll *mongo.Collection
}

// NewMongoConnectionRepo creates a repository over db's connections collection.
func NewMongoConnectionRepo(db *mongo.Database) (*MongoConnectionRepo, error) {
	repo := &MongoConnectionRepo{coll: db.Collection(collectionName)}
	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

// newContext bounds parent with the given timeout.
func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}

// ensureIndexes creates indexes for fields frequently used in queries.
func (r *MongoConnectionRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "member_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "member_email", Value: 1}}},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoConnectionRepo) ListByOwner(ctx context.Context, ownerID int64) ([]models.Connection, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "member_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections for %d: %w", ownerID, err)
	}
	defer cursor.Close(ctx)

	conns := []models.Connection{}
	if err := cursor.All(ctx, &conns); err != nil {
		return nil, fmt.Errorf("failed to decode connections: %w", err)
	}
	return conns, nil
}

func (r *MongoConnectionRepo) Add(ctx context.Context, conn models.Connection) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if conn.MemberID <= 0 {
		return ErrInvalidConnection
	}
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = time.Now()
	}
	filter := bson.M{"owner_id": conn.OwnerID, "member_id": conn.MemberID}
	update := bson.M{
		"$set":         bson.M{"member_email": conn.Email},
		"$setOnInsert": bson.M{"created_at": conn.CreatedAt},
	}
	_, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to add connection %d -> %d: %w", conn.OwnerID, conn.MemberID, err)
	}
	return nil
}

func (r *MongoConnectionRepo) Remove(ctx context.Context, ownerID, memberID int64) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"owner_id": ownerID, "member_id": memberID})
	if err != nil {
		return fmt.Errorf("failed to remove connection %d -> %d: %w", ownerID, memberID, err)
	}
	if res.DeletedCount == 0 {
		return ErrConnectionNotFound
	}
	return nil
}

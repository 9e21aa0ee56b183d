package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nguyentranbao-ct/hds-chat/internal/models"
)

type localStateDoc struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (localStateDoc) CollectionName() string {
	return "local_state"
}

// LocalStateRepository implements localstore.Store on a MongoDB collection.
type LocalStateRepository struct {
	coll *mongo.Collection
}

func NewLocalStateRepository(db *DB) *LocalStateRepository {
	return &LocalStateRepository{
		coll: db.Database.Collection(localStateDoc{}.CollectionName()),
	}
}

func (r *LocalStateRepository) Get(ctx context.Context, key string) (string, error) {
	var doc localStateDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", models.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find local state: %w", err)
	}
	return doc.Value, nil
}

func (r *LocalStateRepository) Set(ctx context.Context, key, value string) error {
	update := bson.M{
		"$set": bson.M{
			"value":      value,
			"updated_at": time.Now(),
		},
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": key}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert local state: %w", err)
	}
	return nil
}

func (r *LocalStateRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("delete local state: %w", err)
	}
	return nil
}

package mongo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Abdurahmanit/GroupProject/announce-service/internal/port/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	markerCollectionName = "markers"
	differMarkerKey      = "subscription_differ_last_run"
)

// MarkerMongoRepository persists the differ's watermark as a single key-value
// row. The value is stored as a millisecond string; an unparsable value is
// surfaced as ErrMarkerCorrupt so the differ can self-heal.
type MarkerMongoRepository struct {
	db *mongo.Database
}

func NewMarkerMongoRepository(client *mongo.Client, dbName string) *MarkerMongoRepository {
	return &MarkerMongoRepository{db: client.Database(dbName)}
}

type markerDocument struct {
	Key   string `bson:"_id"`
	Value string `bson:"value"`
}

func (r *MarkerMongoRepository) Get(ctx context.Context) (time.Time, error) {
	var doc markerDocument
	err := r.db.Collection(markerCollectionName).FindOne(ctx, bson.M{"_id": differMarkerKey}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return time.Time{}, repository.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("failed to get marker from mongo: %w", err)
	}

	millis, err := strconv.ParseInt(doc.Value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("marker value %q: %w", doc.Value, repository.ErrMarkerCorrupt)
	}
	return time.UnixMilli(millis), nil
}

func (r *MarkerMongoRepository) Set(ctx context.Context, t time.Time) error {
	doc := markerDocument{Key: differMarkerKey, Value: strconv.FormatInt(t.UnixMilli(), 10)}
	opts := options.Replace().SetUpsert(true)
	_, err := r.db.Collection(markerCollectionName).ReplaceOne(ctx, bson.M{"_id": differMarkerKey}, doc, opts)
	if err != nil {
		return fmt.Errorf("failed to set marker in mongo: %w", err)
	}
	return nil
}

func (r *MarkerMongoRepository) Delete(ctx context.Context) error {
	_, err := r.db.Collection(markerCollectionName).DeleteOne(ctx, bson.M{"_id": differMarkerKey})
	if err != nil {
		return fmt.Errorf("failed to delete marker from mongo: %w", err)
	}
	return nil
}

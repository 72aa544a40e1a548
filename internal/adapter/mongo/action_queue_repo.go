package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/announce-service/internal/entity"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const actionCollectionName = "index_actions"

// ActionQueueMongoRepository persists pending index mutations. No uniqueness
// constraint: the synchronizer collapses duplicates when draining.
type ActionQueueMongoRepository struct {
	db *mongo.Database
}

func NewActionQueueMongoRepository(client *mongo.Client, dbName string) *ActionQueueMongoRepository {
	return &ActionQueueMongoRepository{db: client.Database(dbName)}
}

type actionDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	AnnounceID string             `bson:"announce_id"`
	Kind       string             `bson:"kind"`
	EnqueuedAt primitive.DateTime `bson:"enqueued_at"`
}

func (r *ActionQueueMongoRepository) Enqueue(ctx context.Context, announceID string, kind entity.ActionKind) error {
	doc := actionDocument{
		AnnounceID: announceID,
		Kind:       string(kind),
		EnqueuedAt: primitive.NewDateTimeFromTime(time.Now()),
	}
	if _, err := r.db.Collection(actionCollectionName).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to enqueue index action in mongo: %w", err)
	}
	return nil
}

func (r *ActionQueueMongoRepository) FindByKind(ctx context.Context, kind entity.ActionKind) ([]*entity.IndexAction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "enqueued_at", Value: 1}})
	cursor, err := r.db.Collection(actionCollectionName).Find(ctx, bson.M{"kind": string(kind)}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find index actions in mongo: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []actionDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode index actions from mongo: %w", err)
	}

	actions := make([]*entity.IndexAction, len(docs))
	for i, doc := range docs {
		actions[i] = &entity.IndexAction{
			ID:         doc.ID.Hex(),
			AnnounceID: doc.AnnounceID,
			Kind:       entity.ActionKind(doc.Kind),
			EnqueuedAt: doc.EnqueuedAt.Time(),
		}
	}
	return actions, nil
}

func (r *ActionQueueMongoRepository) Remove(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		objID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		objIDs = append(objIDs, objID)
	}
	_, err := r.db.Collection(actionCollectionName).DeleteMany(ctx, bson.M{"_id": bson.M{"$in": objIDs}})
	if err != nil {
		return fmt.Errorf("failed to remove index actions from mongo: %w", err)
	}
	return nil
}

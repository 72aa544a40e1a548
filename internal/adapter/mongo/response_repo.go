package mongo

import (
	"context"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/announce-service/internal/entity"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const responseCollectionName = "attribute_responses"

type ResponseMongoRepository struct {
	db *mongo.Database
}

func NewResponseMongoRepository(client *mongo.Client, dbName string) *ResponseMongoRepository {
	return &ResponseMongoRepository{db: client.Database(dbName)}
}

type responseDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	AnnounceID string             `bson:"announce_id"`
	Key        string             `bson:"key"`
	Value      string             `bson:"value"`
	FileURL    string             `bson:"file_url,omitempty"`
	Order      int                `bson:"order"`
}

func (r *ResponseMongoRepository) FindByAnnounce(ctx context.Context, announceID string) ([]*entity.AttributeResponse, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	cursor, err := r.db.Collection(responseCollectionName).Find(ctx, bson.M{"announce_id": announceID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find responses in mongo: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []responseDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode responses from mongo: %w", err)
	}

	responses := make([]*entity.AttributeResponse, len(docs))
	for i, doc := range docs {
		responses[i] = &entity.AttributeResponse{
			AnnounceID: doc.AnnounceID,
			Key:        doc.Key,
			Value:      doc.Value,
			FileURL:    doc.FileURL,
		}
	}
	return responses, nil
}

func (r *ResponseMongoRepository) DeleteByAnnounce(ctx context.Context, announceID string) error {
	_, err := r.db.Collection(responseCollectionName).DeleteMany(ctx, bson.M{"announce_id": announceID})
	if err != nil {
		return fmt.Errorf("failed to delete responses from mongo: %w", err)
	}
	return nil
}

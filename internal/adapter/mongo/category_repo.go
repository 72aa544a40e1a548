package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/announce-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/announce-service/internal/port/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	categoryCollectionName = "categories"
	sectorCollectionName   = "sectors"
)

type CategoryMongoRepository struct {
	db *mongo.Database
}

func NewCategoryMongoRepository(client *mongo.Client, dbName string) *CategoryMongoRepository {
	return &CategoryMongoRepository{db: client.Database(dbName)}
}

type categoryDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	SectorID   string             `bson:"sector_id"`
	Name       string             `bson:"name"`
	Moderation string             `bson:"moderation"`
}

type sectorDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Moderated bool               `bson:"moderated"`
}

func (r *CategoryMongoRepository) GetByID(ctx context.Context, id string) (*entity.Category, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	var doc categoryDocument
	err = r.db.Collection(categoryCollectionName).FindOne(ctx, bson.M{"_id": objID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get category by id from mongo: %w", err)
	}
	return &entity.Category{
		ID:         doc.ID.Hex(),
		SectorID:   doc.SectorID,
		Name:       doc.Name,
		Moderation: entity.ModerationPolicy(doc.Moderation),
	}, nil
}

func (r *CategoryMongoRepository) GetSector(ctx context.Context, id string) (*entity.Sector, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	var doc sectorDocument
	err = r.db.Collection(sectorCollectionName).FindOne(ctx, bson.M{"_id": objID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get sector by id from mongo: %w", err)
	}
	return &entity.Sector{
		ID:        doc.ID.Hex(),
		Name:      doc.Name,
		Moderated: doc.Moderated,
	}, nil
}

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

const subscriptionCollectionName = "subscriptions"

type SubscriptionMongoRepository struct {
	db *mongo.Database
}

func NewSubscriptionMongoRepository(client *mongo.Client, dbName string) *SubscriptionMongoRepository {
	return &SubscriptionMongoRepository{db: client.Database(dbName)}
}

type subscriptionDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	SubscriberID string             `bson:"subscriber_id"`
	Kind         string             `bson:"kind"`
	TargetID     string             `bson:"target_id"`
	CreatedAt    primitive.DateTime `bson:"created_at"`
}

func (r *SubscriptionMongoRepository) Create(ctx context.Context, sub *entity.Subscription) (string, error) {
	doc := subscriptionDocument{
		SubscriberID: sub.SubscriberID,
		Kind:         string(sub.Kind),
		TargetID:     sub.TargetID,
		CreatedAt:    primitive.NewDateTimeFromTime(sub.CreatedAt),
	}
	res, err := r.db.Collection(subscriptionCollectionName).InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to create subscription in mongo: %w", err)
	}
	insertedID, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("failed to convert inserted_id to ObjectID")
	}
	return insertedID.Hex(), nil
}

func (r *SubscriptionMongoRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}
	res, err := r.db.Collection(subscriptionCollectionName).DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("failed to delete subscription from mongo: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *SubscriptionMongoRepository) FindByKind(ctx context.Context, kind entity.SubscriptionKind) ([]*entity.Subscription, error) {
	cursor, err := r.db.Collection(subscriptionCollectionName).Find(ctx, bson.M{"kind": string(kind)})
	if err != nil {
		return nil, fmt.Errorf("failed to find subscriptions in mongo: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []subscriptionDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode subscriptions from mongo: %w", err)
	}

	subs := make([]*entity.Subscription, len(docs))
	for i, doc := range docs {
		subs[i] = &entity.Subscription{
			ID:           doc.ID.Hex(),
			SubscriberID: doc.SubscriberID,
			Kind:         entity.SubscriptionKind(doc.Kind),
			TargetID:     doc.TargetID,
			CreatedAt:    doc.CreatedAt.Time(),
		}
	}
	return subs, nil
}

func (r *SubscriptionMongoRepository) DeleteByTarget(ctx context.Context, kind entity.SubscriptionKind, targetID string) error {
	_, err := r.db.Collection(subscriptionCollectionName).DeleteMany(ctx, bson.M{
		"kind":      string(kind),
		"target_id": targetID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete subscriptions by target from mongo: %w", err)
	}
	return nil
}

const savedFilterCollectionName = "saved_filters"

type SavedFilterMongoRepository struct {
	db *mongo.Database
}

func NewSavedFilterMongoRepository(client *mongo.Client, dbName string) *SavedFilterMongoRepository {
	return &SavedFilterMongoRepository{db: client.Database(dbName)}
}

type savedFilterDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID    string             `bson:"owner_id"`
	CategoryID string             `bson:"category_id,omitempty"`
	SectorID   string             `bson:"sector_id,omitempty"`
	Keywords   string             `bson:"keywords,omitempty"`
	DateMin    primitive.DateTime `bson:"date_min,omitempty"`
	DateMax    primitive.DateTime `bson:"date_max,omitempty"`
	PriceMin   float64            `bson:"price_min,omitempty"`
	PriceMax   float64            `bson:"price_max,omitempty"`
}

func toSavedFilterDocument(f *entity.SavedFilter) (*savedFilterDocument, error) {
	doc := &savedFilterDocument{
		OwnerID:    f.OwnerID,
		CategoryID: f.CategoryID,
		SectorID:   f.SectorID,
		Keywords:   f.Keywords,
		PriceMin:   f.PriceMin,
		PriceMax:   f.PriceMax,
	}
	if !f.DateMin.IsZero() {
		doc.DateMin = primitive.NewDateTimeFromTime(f.DateMin)
	}
	if !f.DateMax.IsZero() {
		doc.DateMax = primitive.NewDateTimeFromTime(f.DateMax)
	}
	if f.ID != "" {
		objID, err := primitive.ObjectIDFromHex(f.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid saved filter ID format: %w", err)
		}
		doc.ID = objID
	}
	return doc, nil
}

func toSavedFilterEntity(doc *savedFilterDocument) *entity.SavedFilter {
	f := &entity.SavedFilter{
		ID:         doc.ID.Hex(),
		OwnerID:    doc.OwnerID,
		CategoryID: doc.CategoryID,
		SectorID:   doc.SectorID,
		Keywords:   doc.Keywords,
		PriceMin:   doc.PriceMin,
		PriceMax:   doc.PriceMax,
	}
	if doc.DateMin > 0 {
		f.DateMin = doc.DateMin.Time()
	}
	if doc.DateMax > 0 {
		f.DateMax = doc.DateMax.Time()
	}
	return f
}

func (r *SavedFilterMongoRepository) Create(ctx context.Context, filter *entity.SavedFilter) (string, error) {
	doc, err := toSavedFilterDocument(filter)
	if err != nil {
		return "", err
	}
	res, err := r.db.Collection(savedFilterCollectionName).InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to create saved filter in mongo: %w", err)
	}
	insertedID, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("failed to convert inserted_id to ObjectID")
	}
	return insertedID.Hex(), nil
}

func (r *SavedFilterMongoRepository) GetByID(ctx context.Context, id string) (*entity.SavedFilter, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	var doc savedFilterDocument
	err = r.db.Collection(savedFilterCollectionName).FindOne(ctx, bson.M{"_id": objID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get saved filter by id from mongo: %w", err)
	}
	return toSavedFilterEntity(&doc), nil
}

func (r *SavedFilterMongoRepository) Save(ctx context.Context, filter *entity.SavedFilter) error {
	doc, err := toSavedFilterDocument(filter)
	if err != nil {
		return err
	}
	if doc.ID.IsZero() {
		return fmt.Errorf("saved filter ID is required for save")
	}
	res, err := r.db.Collection(savedFilterCollectionName).ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return fmt.Errorf("failed to save saved filter in mongo: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *SavedFilterMongoRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}
	res, err := r.db.Collection(savedFilterCollectionName).DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("failed to delete saved filter from mongo: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/announce-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/announce-service/internal/port/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const announceCollectionName = "announces"

type AnnounceMongoRepository struct {
	db *mongo.Database
}

func NewAnnounceMongoRepository(client *mongo.Client, dbName string) *AnnounceMongoRepository {
	return &AnnounceMongoRepository{db: client.Database(dbName)}
}

type announceDocument struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty"`
	Title               string             `bson:"title"`
	Description         string             `bson:"description"`
	Price               float64            `bson:"price"`
	Tags                []string           `bson:"tags"`
	ContactPhone        string             `bson:"contact_phone,omitempty"`
	ContactEmail        string             `bson:"contact_email,omitempty"`
	AuthorID            string             `bson:"author_id"`
	CategoryID          string             `bson:"category_id"`
	Photos              []string           `bson:"photos"`
	CreatedAt           primitive.DateTime `bson:"created_at"`
	UpdatedAt           primitive.DateTime `bson:"updated_at"`
	PublishedAt         primitive.DateTime `bson:"published_at,omitempty"`
	Published           bool               `bson:"published"`
	SuspendedByOperator bool               `bson:"suspended_by_operator"`
	SuspendedByAuthor   bool               `bson:"suspended_by_author"`
	ExpiryNotified      bool               `bson:"expiry_notified"`
}

func toAnnounceDocument(a *entity.Announce) (*announceDocument, error) {
	doc := &announceDocument{
		Title:               a.Title,
		Description:         a.Description,
		Price:               a.Price,
		Tags:                a.Tags,
		ContactPhone:        a.ContactPhone,
		ContactEmail:        a.ContactEmail,
		AuthorID:            a.AuthorID,
		CategoryID:          a.CategoryID,
		Photos:              a.Photos,
		CreatedAt:           primitive.NewDateTimeFromTime(a.CreatedAt),
		UpdatedAt:           primitive.NewDateTimeFromTime(a.UpdatedAt),
		Published:           a.Published,
		SuspendedByOperator: a.SuspendedByOperator,
		SuspendedByAuthor:   a.SuspendedByAuthor,
		ExpiryNotified:      a.ExpiryNotified,
	}
	if !a.PublishedAt.IsZero() {
		doc.PublishedAt = primitive.NewDateTimeFromTime(a.PublishedAt)
	}
	if a.ID != "" {
		objID, err := primitive.ObjectIDFromHex(a.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid announce ID format: %w", err)
		}
		doc.ID = objID
	}
	return doc, nil
}

func toAnnounceEntity(doc *announceDocument) *entity.Announce {
	a := &entity.Announce{
		ID:                  doc.ID.Hex(),
		Title:               doc.Title,
		Description:         doc.Description,
		Price:               doc.Price,
		Tags:                doc.Tags,
		ContactPhone:        doc.ContactPhone,
		ContactEmail:        doc.ContactEmail,
		AuthorID:            doc.AuthorID,
		CategoryID:          doc.CategoryID,
		Photos:              doc.Photos,
		CreatedAt:           doc.CreatedAt.Time(),
		UpdatedAt:           doc.UpdatedAt.Time(),
		Published:           doc.Published,
		SuspendedByOperator: doc.SuspendedByOperator,
		SuspendedByAuthor:   doc.SuspendedByAuthor,
		ExpiryNotified:      doc.ExpiryNotified,
	}
	if doc.PublishedAt > 0 {
		a.PublishedAt = doc.PublishedAt.Time()
	}
	return a
}

func (r *AnnounceMongoRepository) Create(ctx context.Context, announce *entity.Announce) (string, error) {
	doc, err := toAnnounceDocument(announce)
	if err != nil {
		return "", err
	}
	res, err := r.db.Collection(announceCollectionName).InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to create announce in mongo: %w", err)
	}
	insertedID, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("failed to convert inserted_id to ObjectID")
	}
	return insertedID.Hex(), nil
}

func (r *AnnounceMongoRepository) Update(ctx context.Context, announce *entity.Announce) error {
	doc, err := toAnnounceDocument(announce)
	if err != nil {
		return err
	}
	if doc.ID.IsZero() {
		return fmt.Errorf("announce ID is required for update")
	}

	res, err := r.db.Collection(announceCollectionName).ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return fmt.Errorf("failed to update announce in mongo: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AnnounceMongoRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}
	res, err := r.db.Collection(announceCollectionName).DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("failed to delete announce from mongo: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AnnounceMongoRepository) GetByID(ctx context.Context, id string) (*entity.Announce, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	var doc announceDocument
	err = r.db.Collection(announceCollectionName).FindOne(ctx, bson.M{"_id": objID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get announce by id from mongo: %w", err)
	}
	return toAnnounceEntity(&doc), nil
}

func (r *AnnounceMongoRepository) FindVisible(ctx context.Context) ([]*entity.Announce, error) {
	filter := bson.M{
		"published":             true,
		"suspended_by_operator": false,
		"suspended_by_author":   false,
	}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})

	cursor, err := r.db.Collection(announceCollectionName).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find visible announces in mongo: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []announceDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode visible announces from mongo: %w", err)
	}

	announces := make([]*entity.Announce, len(docs))
	for i := range docs {
		announces[i] = toAnnounceEntity(&docs[i])
	}
	return announces, nil
}

// FindByIDs preserves the order of ids, which carries the index sort order
// back to the caller.
func (r *AnnounceMongoRepository) FindByIDs(ctx context.Context, ids []string) ([]*entity.Announce, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		objID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		objIDs = append(objIDs, objID)
	}

	cursor, err := r.db.Collection(announceCollectionName).Find(ctx, bson.M{"_id": bson.M{"$in": objIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to find announces by ids in mongo: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []announceDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode announces from mongo: %w", err)
	}

	byID := make(map[string]*entity.Announce, len(docs))
	for i := range docs {
		a := toAnnounceEntity(&docs[i])
		byID[a.ID] = a
	}
	announces := make([]*entity.Announce, 0, len(docs))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			announces = append(announces, a)
		}
	}
	return announces, nil
}

func (r *AnnounceMongoRepository) FindIDsPublishedAfter(ctx context.Context, t time.Time) ([]string, error) {
	filter := bson.M{"published_at": bson.M{"$gt": primitive.NewDateTimeFromTime(t)}}
	opts := options.Find().SetProjection(bson.M{"_id": 1})

	cursor, err := r.db.Collection(announceCollectionName).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find recently published announces in mongo: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode announce ids from mongo: %w", err)
	}

	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID.Hex()
	}
	return ids, nil
}

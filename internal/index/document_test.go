package index

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdurahmanit/GroupProject/announce-service/internal/entity"
)

func testCategories() *fakeCategoryRepo {
	return &fakeCategoryRepo{
		categories: map[string]*entity.Category{
			"cat-cars": {ID: "cat-cars", SectorID: "sec-auto", Name: "Cars"},
		},
		sectors: map[string]*entity.Sector{
			"sec-auto": {ID: "sec-auto", Name: "Automotive"},
		},
	}
}

func TestBuilderContentOrder(t *testing.T) {
	builder := NewBuilder(testCategories())

	announce := &entity.Announce{
		ID:          "a1",
		Title:       "Old roadster",
		Description: "runs fine",
		Tags:        []string{"vintage", "red"},
		CategoryID:  "cat-cars",
	}
	responses := []*entity.AttributeResponse{
		{AnnounceID: "a1", Key: "mileage", Value: "  120000 km "},
		{AnnounceID: "a1", Key: "notes", Value: "   "},
		{AnnounceID: "a1", Key: "color", Value: "crimson"},
	}

	doc, err := builder.Build(context.Background(), announce, responses)
	require.NoError(t, err)

	assert.Equal(t, "Old roadster runs fine vintage red 120000 km crimson", doc.Content)
	assert.Equal(t, "cat-cars", doc.CategoryID)
	assert.Equal(t, "sec-auto", doc.SectorID)
	assert.Equal(t, "/announces/a1", doc.URL)
}

func TestBuilderDateFallsBackToCreation(t *testing.T) {
	builder := NewBuilder(testCategories())
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	published := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

	draft := &entity.Announce{ID: "a1", CategoryID: "cat-cars", CreatedAt: created}
	doc, err := builder.Build(context.Background(), draft, nil)
	require.NoError(t, err)
	assert.Equal(t, created, doc.Date)

	live := &entity.Announce{ID: "a2", CategoryID: "cat-cars", CreatedAt: created, PublishedAt: published}
	doc, err = builder.Build(context.Background(), live, nil)
	require.NoError(t, err)
	assert.Equal(t, published, doc.Date)
}

func TestBuilderMissingCategoryIsIntegrityError(t *testing.T) {
	builder := NewBuilder(testCategories())

	_, err := builder.Build(context.Background(), &entity.Announce{ID: "a1", CategoryID: "gone"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestDocumentFieldsOmitsZeroPrice(t *testing.T) {
	free := &Document{AnnounceID: "a1", Price: 0}
	_, ok := free.Fields()[FieldPrice]
	assert.False(t, ok)

	priced := &Document{AnnounceID: "a2", Price: 149.5}
	got, ok := priced.Fields()[FieldPrice]
	require.True(t, ok)
	assert.Equal(t, 149.5, got)
}

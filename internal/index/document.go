package index

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/announce-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/announce-service/internal/port/repository"
)

// Document is the flat, searchable projection of an announce. It is written
// only by the synchronizer; the query planner reads it for filtering and
// pagination but never treats it as the system of record.
type Document struct {
	AnnounceID string
	CategoryID string
	SectorID   string
	Tags       []string
	URL        string
	Content    string
	Price      float64
	Date       time.Time
	Title      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	PublishedAt time.Time
}

// Fields returns the bleve document. A zero price is omitted so unpriced
// announces never match a price-bounded search.
func (d *Document) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		FieldType:        DocType,
		FieldCategoryID:  d.CategoryID,
		FieldSectorID:    d.SectorID,
		FieldTags:        d.Tags,
		FieldURL:         d.URL,
		FieldContent:     d.Content,
		FieldDate:        d.Date,
		FieldTitle:       d.Title,
		FieldCreatedAt:   d.CreatedAt,
		FieldPublishedAt: d.PublishedAt,
		FieldUpdatedAt:   d.UpdatedAt,
	}
	if d.Price > 0 {
		fields[FieldPrice] = d.Price
	}
	return fields
}

// Builder maps announces and their attribute responses into documents.
type Builder struct {
	categories repository.CategoryRepository
}

func NewBuilder(categories repository.CategoryRepository) *Builder {
	return &Builder{categories: categories}
}

// Build assembles the document for an announce. The content field is the only
// tokenized one: title, description, tags, then every non-blank response value
// in entry order, whitespace-joined. The date field is the publication time if
// the announce has ever been published, else the creation time, so unmoderated
// drafts still index under a usable date.
func (b *Builder) Build(ctx context.Context, announce *entity.Announce, responses []*entity.AttributeResponse) (*Document, error) {
	category, err := b.categories.GetByID(ctx, announce.CategoryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("Builder.Build: announce %s has no category %s: %w",
				announce.ID, announce.CategoryID, ErrIntegrity)
		}
		return nil, fmt.Errorf("Builder.Build: failed to load category %s: %w", announce.CategoryID, err)
	}

	parts := make([]string, 0, 3+len(responses))
	parts = append(parts, announce.Title, announce.Description)
	if len(announce.Tags) > 0 {
		parts = append(parts, strings.Join(announce.Tags, " "))
	}
	for _, r := range responses {
		if v := strings.TrimSpace(r.Value); v != "" {
			parts = append(parts, v)
		}
	}

	date := announce.CreatedAt
	if !announce.PublishedAt.IsZero() {
		date = announce.PublishedAt
	}

	return &Document{
		AnnounceID:  announce.ID,
		CategoryID:  category.ID,
		SectorID:    category.SectorID,
		Tags:        announce.Tags,
		URL:         announce.URL(),
		Content:     strings.Join(parts, " "),
		Price:       announce.Price,
		Date:        date,
		Title:       announce.Title,
		CreatedAt:   announce.CreatedAt,
		UpdatedAt:   announce.UpdatedAt,
		PublishedAt: announce.PublishedAt,
	}, nil
}

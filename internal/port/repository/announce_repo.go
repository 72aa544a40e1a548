package repository

import (
	"context"
	"time"

	"github.com/Abdurahmanit/GroupProject/announce-service/internal/entity"
)

type AnnounceRepository interface {
	Create(ctx context.Context, announce *entity.Announce) (string, error)
	Update(ctx context.Context, announce *entity.Announce) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*entity.Announce, error)
	// FindVisible returns every published, non-suspended announce ordered by
	// update time descending. Used for full index rebuilds.
	FindVisible(ctx context.Context) ([]*entity.Announce, error)
	// FindByIDs preserves the order of the given ids in its result; ids with
	// no matching announce are silently dropped.
	FindByIDs(ctx context.Context, ids []string) ([]*entity.Announce, error)
	// FindIDsPublishedAfter returns ids of announces whose publication time is
	// strictly after t, regardless of their current visibility.
	FindIDsPublishedAfter(ctx context.Context, t time.Time) ([]string, error)
}

type ResponseRepository interface {
	FindByAnnounce(ctx context.Context, announceID string) ([]*entity.AttributeResponse, error)
	DeleteByAnnounce(ctx context.Context, announceID string) error
}

type CategoryRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Category, error)
	GetSector(ctx context.Context, id string) (*entity.Sector, error)
}

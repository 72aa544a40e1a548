package repository

import (
	"context"
	"time"

	"github.com/Abdurahmanit/GroupProject/announce-service/internal/entity"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *entity.Subscription) (string, error)
	Delete(ctx context.Context, id string) error
	FindByKind(ctx context.Context, kind entity.SubscriptionKind) ([]*entity.Subscription, error)
	// DeleteByTarget removes every subscription of the given kind pointing at
	// targetID. Used to cascade saved-filter deletion.
	DeleteByTarget(ctx context.Context, kind entity.SubscriptionKind, targetID string) error
}

type SavedFilterRepository interface {
	Create(ctx context.Context, filter *entity.SavedFilter) (string, error)
	GetByID(ctx context.Context, id string) (*entity.SavedFilter, error)
	Save(ctx context.Context, filter *entity.SavedFilter) error
	Delete(ctx context.Context, id string) error
}

// MarkerRepository persists the notification differ's watermark. Get returns
// ErrNotFound on first run and ErrMarkerCorrupt when the stored value does not
// parse.
type MarkerRepository interface {
	Get(ctx context.Context) (time.Time, error)
	Set(ctx context.Context, t time.Time) error
	Delete(ctx context.Context) error
}

// UserDirectory resolves subscriber ids to profiles. May return ErrNotFound;
// callers fall back to the raw id as a mail address.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}

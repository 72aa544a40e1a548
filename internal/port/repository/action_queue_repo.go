package repository

import (
	"context"

	"github.com/Abdurahmanit/GroupProject/announce-service/internal/entity"
)

// ActionQueueRepository is the durable log of pending index mutations. Entries
// are removed only after their effect has been committed to the index, so a
// crash mid-drain loses no work.
type ActionQueueRepository interface {
	Enqueue(ctx context.Context, announceID string, kind entity.ActionKind) error
	// FindByKind returns all queued actions of one kind ordered by enqueue
	// time. It does not remove them.
	FindByKind(ctx context.Context, kind entity.ActionKind) ([]*entity.IndexAction, error)
	Remove(ctx context.Context, ids []string) error
}

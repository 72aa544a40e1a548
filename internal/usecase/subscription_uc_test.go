package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Abdurahmanit/GroupProject/announce-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/announce-service/internal/port/repository"
)

type memSubscriptionRepo struct {
	subs   map[string]*entity.Subscription
	nextID int
}

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{subs: map[string]*entity.Subscription{}}
}

func (m *memSubscriptionRepo) Create(_ context.Context, sub *entity.Subscription) (string, error) {
	m.nextID++
	id := fmt.Sprintf("sub-%d", m.nextID)
	copied := *sub
	copied.ID = id
	m.subs[id] = &copied
	return id, nil
}

func (m *memSubscriptionRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.subs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.subs, id)
	return nil
}

func (m *memSubscriptionRepo) FindByKind(_ context.Context, kind entity.SubscriptionKind) ([]*entity.Subscription, error) {
	var out []*entity.Subscription
	for _, s := range m.subs {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSubscriptionRepo) DeleteByTarget(_ context.Context, kind entity.SubscriptionKind, targetID string) error {
	for id, s := range m.subs {
		if s.Kind == kind && s.TargetID == targetID {
			delete(m.subs, id)
		}
	}
	return nil
}

type memFilterRepo struct {
	filters map[string]*entity.SavedFilter
	nextID  int
}

func newMemFilterRepo() *memFilterRepo {
	return &memFilterRepo{filters: map[string]*entity.SavedFilter{}}
}

func (m *memFilterRepo) Create(_ context.Context, filter *entity.SavedFilter) (string, error) {
	m.nextID++
	id := fmt.Sprintf("flt-%d", m.nextID)
	copied := *filter
	copied.ID = id
	m.filters[id] = &copied
	return id, nil
}

func (m *memFilterRepo) GetByID(_ context.Context, id string) (*entity.SavedFilter, error) {
	if f, ok := m.filters[id]; ok {
		copied := *f
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memFilterRepo) Save(_ context.Context, filter *entity.SavedFilter) error {
	if _, ok := m.filters[filter.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *filter
	m.filters[filter.ID] = &copied
	return nil
}

func (m *memFilterRepo) Delete(_ context.Context, id string) error {
	delete(m.filters, id)
	return nil
}

func newSubscriptionUC() (*SubscriptionUseCase, *memSubscriptionRepo, *memFilterRepo) {
	subs := newMemSubscriptionRepo()
	filters := newMemFilterRepo()
	return NewSubscriptionUseCase(subs, filters, zap.NewNop()), subs, filters
}

func TestSubscribeToCategory(t *testing.T) {
	uc, subs, _ := newSubscriptionUC()

	sub, err := uc.Subscribe(context.Background(), "alice", entity.SubscribeToCategory, "cat-1")
	require.NoError(t, err)

	assert.NotEmpty(t, sub.ID)
	assert.False(t, sub.CreatedAt.IsZero())
	assert.Len(t, subs.subs, 1)
}

func TestSubscribeToFilterValidatesFilterExists(t *testing.T) {
	uc, subs, _ := newSubscriptionUC()

	_, err := uc.Subscribe(context.Background(), "alice", entity.SubscribeToFilter, "flt-missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Empty(t, subs.subs)

	created, err := uc.CreateSavedFilter(context.Background(), &entity.SavedFilter{OwnerID: "alice", Keywords: "bicycle"})
	require.NoError(t, err)

	sub, err := uc.Subscribe(context.Background(), "alice", entity.SubscribeToFilter, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, sub.TargetID)
}

func TestUnsubscribe(t *testing.T) {
	uc, subs, _ := newSubscriptionUC()
	sub, err := uc.Subscribe(context.Background(), "alice", entity.SubscribeToUser, "seller-1")
	require.NoError(t, err)

	require.NoError(t, uc.Unsubscribe(context.Background(), sub.ID))
	assert.Empty(t, subs.subs)

	assert.Error(t, uc.Unsubscribe(context.Background(), sub.ID))
}

func TestDeleteSavedFilterCascades(t *testing.T) {
	uc, subs, filters := newSubscriptionUC()

	created, err := uc.CreateSavedFilter(context.Background(), &entity.SavedFilter{OwnerID: "alice"})
	require.NoError(t, err)
	_, err = uc.Subscribe(context.Background(), "alice", entity.SubscribeToFilter, created.ID)
	require.NoError(t, err)
	_, err = uc.Subscribe(context.Background(), "bob", entity.SubscribeToFilter, created.ID)
	require.NoError(t, err)
	other, err := uc.Subscribe(context.Background(), "bob", entity.SubscribeToCategory, "cat-1")
	require.NoError(t, err)

	require.NoError(t, uc.DeleteSavedFilter(context.Background(), created.ID))

	assert.Empty(t, filters.filters)
	require.Len(t, subs.subs, 1)
	_, stillThere := subs.subs[other.ID]
	assert.True(t, stillThere, "unrelated subscriptions must survive the cascade")
}

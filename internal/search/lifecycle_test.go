package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Abdurahmanit/GroupProject/announce-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/announce-service/internal/index"
	"github.com/Abdurahmanit/GroupProject/announce-service/internal/port/repository"
)

type stubCategories struct{}

func (stubCategories) GetByID(_ context.Context, id string) (*entity.Category, error) {
	return &entity.Category{ID: id, SectorID: "sec-1", Name: "Bikes"}, nil
}

func (stubCategories) GetSector(_ context.Context, id string) (*entity.Sector, error) {
	return &entity.Sector{ID: id, Name: "Sports"}, nil
}

type stubAnnounces struct {
	byID map[string]*entity.Announce
}

func (s *stubAnnounces) Create(_ context.Context, a *entity.Announce) (string, error) {
	s.byID[a.ID] = a
	return a.ID, nil
}
func (s *stubAnnounces) Update(_ context.Context, a *entity.Announce) error {
	s.byID[a.ID] = a
	return nil
}
func (s *stubAnnounces) Delete(_ context.Context, id string) error {
	delete(s.byID, id)
	return nil
}
func (s *stubAnnounces) GetByID(_ context.Context, id string) (*entity.Announce, error) {
	if a, ok := s.byID[id]; ok {
		return a, nil
	}
	return nil, repository.ErrNotFound
}
func (s *stubAnnounces) FindVisible(context.Context) ([]*entity.Announce, error) {
	var out []*entity.Announce
	for _, a := range s.byID {
		if a.Visible() {
			out = append(out, a)
		}
	}
	return out, nil
}
func (s *stubAnnounces) FindByIDs(_ context.Context, ids []string) ([]*entity.Announce, error) {
	var out []*entity.Announce
	for _, id := range ids {
		if a, ok := s.byID[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}
func (s *stubAnnounces) FindIDsPublishedAfter(_ context.Context, t time.Time) ([]string, error) {
	var ids []string
	for _, a := range s.byID {
		if a.PublishedAt.After(t) {
			ids = append(ids, a.ID)
		}
	}
	return ids, nil
}

type stubResponses struct{}

func (stubResponses) FindByAnnounce(context.Context, string) ([]*entity.AttributeResponse, error) {
	return nil, nil
}
func (stubResponses) DeleteByAnnounce(context.Context, string) error { return nil }

type stubQueue struct {
	actions []*entity.IndexAction
}

func (s *stubQueue) Enqueue(_ context.Context, announceID string, kind entity.ActionKind) error {
	s.actions = append(s.actions, &entity.IndexAction{
		ID:         announceID + ":" + string(kind),
		AnnounceID: announceID,
		Kind:       kind,
		EnqueuedAt: time.Now(),
	})
	return nil
}
func (s *stubQueue) FindByKind(_ context.Context, kind entity.ActionKind) ([]*entity.IndexAction, error) {
	var out []*entity.IndexAction
	for _, a := range s.actions {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out, nil
}
func (s *stubQueue) Remove(_ context.Context, ids []string) error {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := s.actions[:0]
	for _, a := range s.actions {
		if !drop[a.ID] {
			kept = append(kept, a)
		}
	}
	s.actions = kept
	return nil
}

// Publish, sync, find, suspend, sync again, gone.
func TestAnnounceLifecycleThroughIndex(t *testing.T) {
	ctx := context.Background()

	store, err := index.OpenMem()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	announces := &stubAnnounces{byID: map[string]*entity.Announce{}}
	queue := &stubQueue{}
	sync := index.NewSynchronizer(
		store, index.NewBuilder(stubCategories{}),
		announces, stubResponses{}, queue,
		index.DefaultMaxSkipThreshold, zap.NewNop(),
	)
	planner := NewPlanner(store)

	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	bike := &entity.Announce{
		ID:          "bike-1",
		Title:       "Bike",
		Description: "city bike, barely used",
		Price:       100,
		CategoryID:  "cat-5",
		Published:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
		PublishedAt: now,
	}
	announces.byID[bike.ID] = bike
	require.NoError(t, queue.Enqueue(ctx, bike.ID, entity.ActionCreate))

	require.NoError(t, sync.RunIncremental(ctx))

	total, ids, err := planner.Search(ctx, Filter{CategoryID: "cat-5"}, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, []string{"bike-1"}, ids)

	// The author withdraws it: a modify action, since the record still exists.
	bike.SuspendedByAuthor = true
	require.NoError(t, queue.Enqueue(ctx, bike.ID, entity.ActionModify))
	require.NoError(t, sync.RunIncremental(ctx))

	total, ids, err = planner.Search(ctx, Filter{CategoryID: "cat-5"}, "", 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, ids)
	assert.Empty(t, queue.actions)
}

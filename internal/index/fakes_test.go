package index

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Abdurahmanit/GroupProject/announce-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/announce-service/internal/port/repository"
)

type fakeCategoryRepo struct {
	categories map[string]*entity.Category
	sectors    map[string]*entity.Sector
}

func (f *fakeCategoryRepo) GetByID(_ context.Context, id string) (*entity.Category, error) {
	if c, ok := f.categories[id]; ok {
		return c, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCategoryRepo) GetSector(_ context.Context, id string) (*entity.Sector, error) {
	if s, ok := f.sectors[id]; ok {
		return s, nil
	}
	return nil, repository.ErrNotFound
}

type fakeAnnounceRepo struct {
	announces map[string]*entity.Announce
}

func (f *fakeAnnounceRepo) Create(_ context.Context, a *entity.Announce) (string, error) {
	f.announces[a.ID] = a
	return a.ID, nil
}

func (f *fakeAnnounceRepo) Update(_ context.Context, a *entity.Announce) error {
	f.announces[a.ID] = a
	return nil
}

func (f *fakeAnnounceRepo) Delete(_ context.Context, id string) error {
	delete(f.announces, id)
	return nil
}

func (f *fakeAnnounceRepo) GetByID(_ context.Context, id string) (*entity.Announce, error) {
	if a, ok := f.announces[id]; ok {
		return a, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAnnounceRepo) FindVisible(_ context.Context) ([]*entity.Announce, error) {
	var visible []*entity.Announce
	for _, a := range f.announces {
		if a.Visible() {
			visible = append(visible, a)
		}
	}
	sort.Slice(visible, func(i, j int) bool {
		return visible[i].UpdatedAt.After(visible[j].UpdatedAt)
	})
	return visible, nil
}

func (f *fakeAnnounceRepo) FindByIDs(_ context.Context, ids []string) ([]*entity.Announce, error) {
	var out []*entity.Announce
	for _, id := range ids {
		if a, ok := f.announces[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAnnounceRepo) FindIDsPublishedAfter(_ context.Context, t time.Time) ([]string, error) {
	var ids []string
	for _, a := range f.announces {
		if !a.PublishedAt.IsZero() && a.PublishedAt.After(t) {
			ids = append(ids, a.ID)
		}
	}
	return ids, nil
}

type fakeResponseRepo struct {
	byAnnounce map[string][]*entity.AttributeResponse
}

func (f *fakeResponseRepo) FindByAnnounce(_ context.Context, id string) ([]*entity.AttributeResponse, error) {
	return f.byAnnounce[id], nil
}

func (f *fakeResponseRepo) DeleteByAnnounce(_ context.Context, id string) error {
	delete(f.byAnnounce, id)
	return nil
}

type fakeQueue struct {
	actions []*entity.IndexAction
	nextID  int
}

func (f *fakeQueue) Enqueue(_ context.Context, announceID string, kind entity.ActionKind) error {
	f.nextID++
	f.actions = append(f.actions, &entity.IndexAction{
		ID:         fmt.Sprintf("action-%d", f.nextID),
		AnnounceID: announceID,
		Kind:       kind,
		EnqueuedAt: time.Now(),
	})
	return nil
}

func (f *fakeQueue) FindByKind(_ context.Context, kind entity.ActionKind) ([]*entity.IndexAction, error) {
	var out []*entity.IndexAction
	for _, a := range f.actions {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeQueue) Remove(_ context.Context, ids []string) error {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := f.actions[:0]
	for _, a := range f.actions {
		if !drop[a.ID] {
			kept = append(kept, a)
		}
	}
	f.actions = kept
	return nil
}

func (f *fakeQueue) size() int {
	return len(f.actions)
}

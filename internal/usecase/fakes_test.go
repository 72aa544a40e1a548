package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/announce-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/announce-service/internal/port/cache"
	"github.com/Abdurahmanit/GroupProject/announce-service/internal/port/repository"
	"github.com/Abdurahmanit/GroupProject/announce-service/internal/search"
)

type memAnnounceRepo struct {
	announces map[string]*entity.Announce
	nextID    int
}

func newMemAnnounceRepo() *memAnnounceRepo {
	return &memAnnounceRepo{announces: map[string]*entity.Announce{}}
}

func (m *memAnnounceRepo) Create(_ context.Context, a *entity.Announce) (string, error) {
	m.nextID++
	id := fmt.Sprintf("ann-%d", m.nextID)
	copied := *a
	copied.ID = id
	m.announces[id] = &copied
	return id, nil
}

func (m *memAnnounceRepo) Update(_ context.Context, a *entity.Announce) error {
	if _, ok := m.announces[a.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *a
	m.announces[a.ID] = &copied
	return nil
}

func (m *memAnnounceRepo) Delete(_ context.Context, id string) error {
	delete(m.announces, id)
	return nil
}

func (m *memAnnounceRepo) GetByID(_ context.Context, id string) (*entity.Announce, error) {
	if a, ok := m.announces[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memAnnounceRepo) FindVisible(context.Context) ([]*entity.Announce, error) {
	var out []*entity.Announce
	for _, a := range m.announces {
		if a.Visible() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAnnounceRepo) FindByIDs(_ context.Context, ids []string) ([]*entity.Announce, error) {
	var out []*entity.Announce
	for _, id := range ids {
		if a, ok := m.announces[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAnnounceRepo) FindIDsPublishedAfter(_ context.Context, t time.Time) ([]string, error) {
	var ids []string
	for _, a := range m.announces {
		if !a.PublishedAt.IsZero() && a.PublishedAt.After(t) {
			ids = append(ids, a.ID)
		}
	}
	return ids, nil
}

type memResponseRepo struct {
	byAnnounce map[string][]*entity.AttributeResponse
	deleted    []string
}

func newMemResponseRepo() *memResponseRepo {
	return &memResponseRepo{byAnnounce: map[string][]*entity.AttributeResponse{}}
}

func (m *memResponseRepo) FindByAnnounce(_ context.Context, id string) ([]*entity.AttributeResponse, error) {
	return m.byAnnounce[id], nil
}

func (m *memResponseRepo) DeleteByAnnounce(_ context.Context, id string) error {
	delete(m.byAnnounce, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type memCategoryRepo struct {
	categories map[string]*entity.Category
	sectors    map[string]*entity.Sector
}

func (m *memCategoryRepo) GetByID(_ context.Context, id string) (*entity.Category, error) {
	if c, ok := m.categories[id]; ok {
		return c, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memCategoryRepo) GetSector(_ context.Context, id string) (*entity.Sector, error) {
	if s, ok := m.sectors[id]; ok {
		return s, nil
	}
	return nil, repository.ErrNotFound
}

type queuedAction struct {
	announceID string
	kind       entity.ActionKind
}

type memQueue struct {
	enqueued   []queuedAction
	enqueueErr error
}

func (m *memQueue) Enqueue(_ context.Context, announceID string, kind entity.ActionKind) error {
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	m.enqueued = append(m.enqueued, queuedAction{announceID: announceID, kind: kind})
	return nil
}

func (m *memQueue) FindByKind(_ context.Context, kind entity.ActionKind) ([]*entity.IndexAction, error) {
	return nil, nil
}

func (m *memQueue) Remove(context.Context, []string) error { return nil }

func (m *memQueue) kinds() []entity.ActionKind {
	out := make([]entity.ActionKind, 0, len(m.enqueued))
	for _, a := range m.enqueued {
		out = append(out, a.kind)
	}
	return out
}

type memCache struct {
	entries map[string][]byte
	deletes []string
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}}
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, error) {
	if v, ok := m.entries[key]; ok {
		return v, nil
	}
	return nil, cache.ErrNotFound
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.entries[key] = value
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	delete(m.entries, key)
	m.deletes = append(m.deletes, key)
	return nil
}

type publishedEvent struct {
	kind       string
	announceID string
}

type memPublisher struct {
	events []publishedEvent
	err    error
}

func (m *memPublisher) PublishAnnounceCreated(_ context.Context, a *entity.Announce) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, publishedEvent{kind: "created", announceID: a.ID})
	return nil
}

func (m *memPublisher) PublishAnnouncePublished(_ context.Context, a *entity.Announce) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, publishedEvent{kind: "published", announceID: a.ID})
	return nil
}

func (m *memPublisher) PublishAnnounceSuspended(_ context.Context, a *entity.Announce) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, publishedEvent{kind: "suspended", announceID: a.ID})
	return nil
}

func (m *memPublisher) PublishAnnounceDeleted(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, publishedEvent{kind: "deleted", announceID: id})
	return nil
}

type memPhotoStorage struct {
	uploads []string
	err     error
}

func (m *memPhotoStorage) Upload(_ context.Context, fileName string, _ []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	url := "https://cdn.example.com/photos/" + fileName
	m.uploads = append(m.uploads, url)
	return url, nil
}

func (m *memPhotoStorage) Delete(context.Context, string) error { return nil }

type memSearcher struct {
	total int64
	ids   []string
	err   error

	lastFilter search.Filter
	lastSort   search.Sort
	lastPage   int
	lastSize   int
}

func (m *memSearcher) Search(_ context.Context, filter search.Filter, sort search.Sort, page, pageSize int) (int64, []string, error) {
	m.lastFilter = filter
	m.lastSort = sort
	m.lastPage = page
	m.lastSize = pageSize
	if m.err != nil {
		return 0, nil, m.err
	}
	return m.total, m.ids, nil
}

package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/announce-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/announce-service/internal/port/cache"
	"github.com/Abdurahmanit/GroupProject/announce-service/internal/port/repository"
	"github.com/Abdurahmanit/GroupProject/announce-service/internal/port/storage"
	"github.com/Abdurahmanit/GroupProject/announce-service/internal/search"
	"go.uber.org/zap"
)

var (
	ErrAnnounceNotFound = errors.New("announce not found")
	ErrForbidden        = errors.New("user not authorized to perform this action")
)

// EventPublisher mirrors the NATS adapter; events are best effort and never
// fail the mutation that produced them.
type EventPublisher interface {
	PublishAnnounceCreated(ctx context.Context, announce *entity.Announce) error
	PublishAnnouncePublished(ctx context.Context, announce *entity.Announce) error
	PublishAnnounceSuspended(ctx context.Context, announce *entity.Announce) error
	PublishAnnounceDeleted(ctx context.Context, announceID string) error
}

// Searcher is the planner slice used to answer structured searches.
type Searcher interface {
	Search(ctx context.Context, filter search.Filter, sort search.Sort, page, pageSize int) (int64, []string, error)
}

func announceCacheKey(id string) string {
	return fmt.Sprintf("announce:%s", id)
}

const announceCacheTTL = 5 * time.Minute

type AnnounceUseCase struct {
	announces  repository.AnnounceRepository
	responses  repository.ResponseRepository
	categories repository.CategoryRepository
	queue      repository.ActionQueueRepository
	cacheRepo  cache.CacheRepository
	publisher  EventPublisher
	photos     storage.PhotoStorage
	searcher   Searcher
	logger     *zap.Logger
}

func NewAnnounceUseCase(
	announces repository.AnnounceRepository,
	responses repository.ResponseRepository,
	categories repository.CategoryRepository,
	queue repository.ActionQueueRepository,
	cacheRepo cache.CacheRepository,
	publisher EventPublisher,
	photos storage.PhotoStorage,
	searcher Searcher,
	logger *zap.Logger,
) *AnnounceUseCase {
	return &AnnounceUseCase{
		announces:  announces,
		responses:  responses,
		categories: categories,
		queue:      queue,
		cacheRepo:  cacheRepo,
		publisher:  publisher,
		photos:     photos,
		searcher:   searcher,
		logger:     logger,
	}
}

type CreateAnnounceInput struct {
	Title        string
	Description  string
	Price        float64
	Tags         []string
	ContactPhone string
	ContactEmail string
	AuthorID     string
	CategoryID   string
}

// CreateAnnounce stores a new announce. The category's moderation policy
// decides whether it starts visible: unmoderated categories publish
// immediately, moderated ones wait for an operator Publish call.
func (uc *AnnounceUseCase) CreateAnnounce(ctx context.Context, input CreateAnnounceInput) (*entity.Announce, error) {
	category, err := uc.categories.GetByID(ctx, input.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("AnnounceUseCase.CreateAnnounce: failed to load category: %w", err)
	}
	sector, err := uc.categories.GetSector(ctx, category.SectorID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("AnnounceUseCase.CreateAnnounce: failed to load sector: %w", err)
	}

	now := time.Now()
	announce := &entity.Announce{
		Title:        input.Title,
		Description:  input.Description,
		Price:        input.Price,
		Tags:         input.Tags,
		ContactPhone: input.ContactPhone,
		ContactEmail: input.ContactEmail,
		AuthorID:     input.AuthorID,
		CategoryID:   input.CategoryID,
		Photos:       []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if !category.Moderated(sector) {
		announce.Published = true
		announce.PublishedAt = now
	}

	id, err := uc.announces.Create(ctx, announce)
	if err != nil {
		uc.logger.Error("Failed to create announce", zap.Error(err), zap.String("author_id", input.AuthorID))
		return nil, fmt.Errorf("AnnounceUseCase.CreateAnnounce: failed to create announce: %w", err)
	}
	announce.ID = id

	uc.enqueue(ctx, announce.ID, entity.ActionCreate)

	if uc.publisher != nil {
		if errPub := uc.publisher.PublishAnnounceCreated(ctx, announce); errPub != nil {
			uc.logger.Warn("Failed to publish announce created event",
				zap.Error(errPub), zap.String("announce_id", announce.ID))
		}
	}
	return announce, nil
}

type UpdateAnnounceInput struct {
	ID          string
	AuthorID    string
	Title       *string
	Description *string
	Price       *float64
	Tags        []string
}

func (uc *AnnounceUseCase) UpdateAnnounce(ctx context.Context, input UpdateAnnounceInput) (*entity.Announce, error) {
	announce, err := uc.getForUpdate(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if announce.AuthorID != input.AuthorID {
		return nil, ErrForbidden
	}

	if input.Title != nil {
		announce.Title = *input.Title
	}
	if input.Description != nil {
		announce.Description = *input.Description
	}
	if input.Price != nil {
		announce.Price = *input.Price
	}
	if input.Tags != nil {
		announce.Tags = input.Tags
	}
	announce.UpdatedAt = time.Now()

	if err := uc.saveAndReindex(ctx, announce); err != nil {
		return nil, fmt.Errorf("AnnounceUseCase.UpdateAnnounce: %w", err)
	}
	return announce, nil
}

// Publish marks a moderated announce visible. The publication time is
// refreshed every time the announce transitions to visible.
func (uc *AnnounceUseCase) Publish(ctx context.Context, id string) (*entity.Announce, error) {
	return uc.transition(ctx, id, func(a *entity.Announce) {
		a.Published = true
	}, func(a *entity.Announce) error {
		if uc.publisher == nil {
			return nil
		}
		return uc.publisher.PublishAnnouncePublished(ctx, a)
	})
}

// SuspendByOperator hides the announce without unpublishing it.
func (uc *AnnounceUseCase) SuspendByOperator(ctx context.Context, id string) (*entity.Announce, error) {
	return uc.transition(ctx, id, func(a *entity.Announce) {
		a.SuspendedByOperator = true
	}, func(a *entity.Announce) error {
		if uc.publisher == nil {
			return nil
		}
		return uc.publisher.PublishAnnounceSuspended(ctx, a)
	})
}

// SuspendByAuthor lets the author temporarily withdraw their own announce.
func (uc *AnnounceUseCase) SuspendByAuthor(ctx context.Context, id, authorID string) (*entity.Announce, error) {
	announce, err := uc.getForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if announce.AuthorID != authorID {
		return nil, ErrForbidden
	}
	return uc.transition(ctx, id, func(a *entity.Announce) {
		a.SuspendedByAuthor = true
	}, func(a *entity.Announce) error {
		if uc.publisher == nil {
			return nil
		}
		return uc.publisher.PublishAnnounceSuspended(ctx, a)
	})
}

// ResumeByOperator lifts an operator suspension.
func (uc *AnnounceUseCase) ResumeByOperator(ctx context.Context, id string) (*entity.Announce, error) {
	return uc.transition(ctx, id, func(a *entity.Announce) {
		a.SuspendedByOperator = false
	}, nil)
}

// ResumeByAuthor lifts an author suspension.
func (uc *AnnounceUseCase) ResumeByAuthor(ctx context.Context, id, authorID string) (*entity.Announce, error) {
	announce, err := uc.getForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if announce.AuthorID != authorID {
		return nil, ErrForbidden
	}
	return uc.transition(ctx, id, func(a *entity.Announce) {
		a.SuspendedByAuthor = false
	}, nil)
}

// transition applies a visibility mutation, refreshing PublishedAt when the
// announce becomes visible, and enqueues a modify action.
func (uc *AnnounceUseCase) transition(ctx context.Context, id string, mutate func(*entity.Announce), event func(*entity.Announce) error) (*entity.Announce, error) {
	announce, err := uc.getForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	wasVisible := announce.Visible()
	mutate(announce)
	if !wasVisible && announce.Visible() {
		announce.PublishedAt = time.Now()
	}
	announce.UpdatedAt = time.Now()

	if err := uc.saveAndReindex(ctx, announce); err != nil {
		return nil, fmt.Errorf("AnnounceUseCase.transition: %w", err)
	}

	if event != nil {
		if errPub := event(announce); errPub != nil {
			uc.logger.Warn("Failed to publish announce event",
				zap.Error(errPub), zap.String("announce_id", announce.ID))
		}
	}
	return announce, nil
}

// DeleteAnnounce runs the ordered cleanup pipeline: attribute responses, then
// the announce row, then cache and the index (via a delete action). Each step
// failing after the row is gone is logged, not fatal, so a retry converges.
func (uc *AnnounceUseCase) DeleteAnnounce(ctx context.Context, id, authorID string) error {
	announce, err := uc.getForUpdate(ctx, id)
	if err != nil {
		return err
	}
	if announce.AuthorID != authorID {
		return ErrForbidden
	}

	if err := uc.responses.DeleteByAnnounce(ctx, id); err != nil {
		return fmt.Errorf("AnnounceUseCase.DeleteAnnounce: failed to delete responses: %w", err)
	}
	if err := uc.announces.Delete(ctx, id); err != nil {
		return fmt.Errorf("AnnounceUseCase.DeleteAnnounce: failed to delete announce: %w", err)
	}

	uc.evict(ctx, id)
	uc.enqueue(ctx, id, entity.ActionDelete)

	if uc.publisher != nil {
		if errPub := uc.publisher.PublishAnnounceDeleted(ctx, id); errPub != nil {
			uc.logger.Warn("Failed to publish announce deleted event",
				zap.Error(errPub), zap.String("announce_id", id))
		}
	}
	return nil
}

// GetAnnounceByID serves reads through the redis cache.
func (uc *AnnounceUseCase) GetAnnounceByID(ctx context.Context, id string) (*entity.Announce, error) {
	if uc.cacheRepo != nil {
		key := announceCacheKey(id)
		cached, err := uc.cacheRepo.Get(ctx, key)
		if err == nil {
			var announce entity.Announce
			if unmarshalErr := json.Unmarshal(cached, &announce); unmarshalErr == nil {
				return &announce, nil
			}
			if delErr := uc.cacheRepo.Delete(ctx, key); delErr != nil {
				uc.logger.Warn("Failed to delete corrupted cache entry", zap.String("key", key), zap.Error(delErr))
			}
		} else if !errors.Is(err, cache.ErrNotFound) {
			uc.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	announce, err := uc.announces.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAnnounceNotFound
		}
		return nil, fmt.Errorf("AnnounceUseCase.GetAnnounceByID: %w", err)
	}

	if uc.cacheRepo != nil {
		if data, marshalErr := json.Marshal(announce); marshalErr == nil {
			if setErr := uc.cacheRepo.Set(ctx, announceCacheKey(id), data, announceCacheTTL); setErr != nil {
				uc.logger.Warn("Failed to cache announce", zap.String("announce_id", id), zap.Error(setErr))
			}
		}
	}
	return announce, nil
}

type SearchAnnouncesOutput struct {
	Announces  []*entity.Announce
	TotalCount int64
}

// SearchAnnounces plans the query against the index and resolves the page of
// ids back to full records from the store.
func (uc *AnnounceUseCase) SearchAnnounces(ctx context.Context, filter search.Filter, sort search.Sort, page, pageSize int) (*SearchAnnouncesOutput, error) {
	total, ids, err := uc.searcher.Search(ctx, filter, sort, page, pageSize)
	if err != nil {
		uc.logger.Error("Search failed", zap.Error(err))
		return nil, fmt.Errorf("AnnounceUseCase.SearchAnnounces: %w", err)
	}

	announces, err := uc.announces.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("AnnounceUseCase.SearchAnnounces: failed to resolve announces: %w", err)
	}
	return &SearchAnnouncesOutput{Announces: announces, TotalCount: total}, nil
}

// UploadPhoto stores the file and appends its URL to the announce.
func (uc *AnnounceUseCase) UploadPhoto(ctx context.Context, announceID, authorID, fileName string, data []byte) (string, error) {
	announce, err := uc.getForUpdate(ctx, announceID)
	if err != nil {
		return "", err
	}
	if announce.AuthorID != authorID {
		return "", ErrForbidden
	}

	url, err := uc.photos.Upload(ctx, fileName, data)
	if err != nil {
		return "", fmt.Errorf("AnnounceUseCase.UploadPhoto: %w", err)
	}

	announce.Photos = append(announce.Photos, url)
	announce.UpdatedAt = time.Now()
	if err := uc.saveAndReindex(ctx, announce); err != nil {
		return "", fmt.Errorf("AnnounceUseCase.UploadPhoto: %w", err)
	}
	return url, nil
}

func (uc *AnnounceUseCase) getForUpdate(ctx context.Context, id string) (*entity.Announce, error) {
	announce, err := uc.announces.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAnnounceNotFound
		}
		return nil, fmt.Errorf("AnnounceUseCase: failed to load announce %s: %w", id, err)
	}
	return announce, nil
}

func (uc *AnnounceUseCase) saveAndReindex(ctx context.Context, announce *entity.Announce) error {
	if err := uc.announces.Update(ctx, announce); err != nil {
		return fmt.Errorf("failed to update announce: %w", err)
	}
	uc.evict(ctx, announce.ID)
	uc.enqueue(ctx, announce.ID, entity.ActionModify)
	return nil
}

func (uc *AnnounceUseCase) evict(ctx context.Context, id string) {
	if uc.cacheRepo == nil {
		return
	}
	if err := uc.cacheRepo.Delete(ctx, announceCacheKey(id)); err != nil {
		uc.logger.Warn("Failed to evict announce from cache",
			zap.String("announce_id", id), zap.Error(err))
	}
}

// enqueue records the index mutation. A failed enqueue is surfaced in the
// logs only: the next full rebuild reconverges the index.
func (uc *AnnounceUseCase) enqueue(ctx context.Context, id string, kind entity.ActionKind) {
	if err := uc.queue.Enqueue(ctx, id, kind); err != nil {
		uc.logger.Error("Failed to enqueue index action",
			zap.String("announce_id", id), zap.String("kind", string(kind)), zap.Error(err))
	}
}

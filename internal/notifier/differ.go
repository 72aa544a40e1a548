package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/announce-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/announce-service/internal/port/repository"
	"github.com/Abdurahmanit/GroupProject/announce-service/internal/search"
	"go.uber.org/zap"
)

// Searcher is the slice of the query planner the differ needs for
// saved-filter matching.
type Searcher interface {
	Search(ctx context.Context, filter search.Filter, sort search.Sort, page, pageSize int) (int64, []string, error)
}

// Dispatcher sends one digest to one subscriber.
type Dispatcher interface {
	Notify(ctx context.Context, subscriberID string, announces []*entity.Announce) error
}

// filterSearchPageSize bounds how many index hits one saved filter can
// contribute per run.
const filterSearchPageSize = 1000

// Differ correlates announces published since the last run against the three
// subscription kinds and hands each subscriber at most one deduplicated set.
type Differ struct {
	marker        repository.MarkerRepository
	announces     repository.AnnounceRepository
	subscriptions repository.SubscriptionRepository
	filters       repository.SavedFilterRepository
	searcher      Searcher
	dispatcher    Dispatcher
	logger        *zap.Logger

	now func() time.Time
}

func NewDiffer(
	marker repository.MarkerRepository,
	announces repository.AnnounceRepository,
	subscriptions repository.SubscriptionRepository,
	filters repository.SavedFilterRepository,
	searcher Searcher,
	dispatcher Dispatcher,
	logger *zap.Logger,
) *Differ {
	return &Differ{
		marker:        marker,
		announces:     announces,
		subscriptions: subscriptions,
		filters:       filters,
		searcher:      searcher,
		dispatcher:    dispatcher,
		logger:        logger,
		now:           time.Now,
	}
}

// RunOnce performs one notification pass. The marker is advanced before any
// subscriber is processed: a crash mid-run can under-notify for exactly one
// window but never double-notifies on retry.
func (d *Differ) RunOnce(ctx context.Context) error {
	since, err := d.readMarker(ctx)
	if err != nil {
		return err
	}

	newIDs, err := d.announces.FindIDsPublishedAfter(ctx, since)
	if err != nil {
		return fmt.Errorf("Differ.RunOnce: failed to find newly published announces: %w", err)
	}
	if err := d.marker.Set(ctx, d.now()); err != nil {
		return fmt.Errorf("Differ.RunOnce: failed to advance marker: %w", err)
	}
	if len(newIDs) == 0 {
		d.logger.Info("Notification run completed", zap.Int("announces", 0))
		return nil
	}

	announces, err := d.announces.FindByIDs(ctx, newIDs)
	if err != nil {
		return fmt.Errorf("Differ.RunOnce: failed to load announces: %w", err)
	}

	byID := make(map[string]*entity.Announce, len(announces))
	byCategory := make(map[string][]*entity.Announce)
	byAuthor := make(map[string][]*entity.Announce)
	for _, a := range announces {
		byID[a.ID] = a
		byCategory[a.CategoryID] = append(byCategory[a.CategoryID], a)
		byAuthor[a.AuthorID] = append(byAuthor[a.AuthorID], a)
	}

	// pending maps subscriber id to announce id to announce: a user holding
	// several overlapping subscriptions still gets one digest.
	pending := make(map[string]map[string]*entity.Announce)
	add := func(subscriberID string, matches []*entity.Announce) {
		if len(matches) == 0 {
			return
		}
		set, ok := pending[subscriberID]
		if !ok {
			set = make(map[string]*entity.Announce)
			pending[subscriberID] = set
		}
		for _, a := range matches {
			set[a.ID] = a
		}
	}

	d.diffUserSubscriptions(ctx, byAuthor, add)
	d.diffCategorySubscriptions(ctx, byCategory, add)
	d.diffFilterSubscriptions(ctx, since, byID, add)

	notified := 0
	for subscriberID, set := range pending {
		digest := make([]*entity.Announce, 0, len(set))
		for _, a := range set {
			digest = append(digest, a)
		}
		if err := d.dispatcher.Notify(ctx, subscriberID, digest); err != nil {
			d.logger.Error("Failed to notify subscriber",
				zap.String("subscriber_id", subscriberID), zap.Error(err))
			continue
		}
		notified++
	}

	d.logger.Info("Notification run completed",
		zap.Int("announces", len(announces)),
		zap.Int("subscribers", notified),
	)
	return nil
}

// readMarker loads the watermark, self-healing a corrupt row down to epoch
// zero.
func (d *Differ) readMarker(ctx context.Context) (time.Time, error) {
	since, err := d.marker.Get(ctx)
	switch {
	case err == nil:
		return since, nil
	case errors.Is(err, repository.ErrNotFound):
		return time.Unix(0, 0), nil
	case errors.Is(err, repository.ErrMarkerCorrupt):
		d.logger.Warn("Last-run marker is corrupt, resetting to epoch")
		if delErr := d.marker.Delete(ctx); delErr != nil {
			d.logger.Error("Failed to delete corrupt marker", zap.Error(delErr))
		}
		return time.Unix(0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("Differ.RunOnce: failed to read marker: %w", err)
	}
}

func (d *Differ) diffUserSubscriptions(ctx context.Context, byAuthor map[string][]*entity.Announce, add func(string, []*entity.Announce)) {
	subs, err := d.subscriptions.FindByKind(ctx, entity.SubscribeToUser)
	if err != nil {
		d.logger.Error("Failed to load user subscriptions", zap.Error(err))
		return
	}
	for _, sub := range subs {
		add(sub.SubscriberID, byAuthor[sub.TargetID])
	}
}

func (d *Differ) diffCategorySubscriptions(ctx context.Context, byCategory map[string][]*entity.Announce, add func(string, []*entity.Announce)) {
	subs, err := d.subscriptions.FindByKind(ctx, entity.SubscribeToCategory)
	if err != nil {
		d.logger.Error("Failed to load category subscriptions", zap.Error(err))
		return
	}
	for _, sub := range subs {
		add(sub.SubscriberID, byCategory[sub.TargetID])
	}
}

// diffFilterSubscriptions matches saved filters through the search index. The
// index may hold older announces that match the filter, so hits are
// intersected with the newly published set. A failing filter contributes zero
// matches instead of aborting the run.
func (d *Differ) diffFilterSubscriptions(ctx context.Context, since time.Time, byID map[string]*entity.Announce, add func(string, []*entity.Announce)) {
	subs, err := d.subscriptions.FindByKind(ctx, entity.SubscribeToFilter)
	if err != nil {
		d.logger.Error("Failed to load filter subscriptions", zap.Error(err))
		return
	}
	for _, sub := range subs {
		filter, err := d.filters.GetByID(ctx, sub.TargetID)
		if err != nil {
			d.logger.Warn("Failed to load saved filter",
				zap.String("filter_id", sub.TargetID), zap.Error(err))
			continue
		}

		if filter.DateMin.IsZero() || filter.DateMin.Before(since) {
			filter.DateMin = since
			if err := d.filters.Save(ctx, filter); err != nil {
				d.logger.Warn("Failed to advance saved filter boundary",
					zap.String("filter_id", filter.ID), zap.Error(err))
			}
		}

		_, ids, err := d.searcher.Search(ctx, search.Filter{
			CategoryID: filter.CategoryID,
			SectorID:   filter.SectorID,
			Keywords:   filter.Keywords,
			DateMin:    filter.DateMin,
			DateMax:    filter.DateMax,
			PriceMin:   filter.PriceMin,
			PriceMax:   filter.PriceMax,
		}, search.SortPublishedDesc, 1, filterSearchPageSize)
		if err != nil {
			d.logger.Warn("Saved filter search failed",
				zap.String("filter_id", filter.ID), zap.Error(err))
			continue
		}

		matches := make([]*entity.Announce, 0, len(ids))
		for _, id := range ids {
			if a, ok := byID[id]; ok {
				matches = append(matches, a)
			}
		}
		add(sub.SubscriberID, matches)
	}
}

package index

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Abdurahmanit/GroupProject/announce-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/announce-service/internal/port/repository"
	"github.com/blevesearch/bleve/v2"
	"go.uber.org/zap"
)

const DefaultMaxSkipThreshold = 10

// Synchronizer drains the action queue into the index (incremental mode) or
// rebuilds the index from the announce store (full mode). Runs are scheduled
// serially; the writer lock below is a defensive guard against the
// administrative "reindex now" action firing during a periodic run, not a
// correctness mechanism.
type Synchronizer struct {
	store     *Store
	builder   *Builder
	announces repository.AnnounceRepository
	responses repository.ResponseRepository
	queue     repository.ActionQueueRepository
	logger    *zap.Logger

	maxSkipThreshold int

	mu        sync.Mutex
	held      bool
	skipCount int
}

func NewSynchronizer(
	store *Store,
	builder *Builder,
	announces repository.AnnounceRepository,
	responses repository.ResponseRepository,
	queue repository.ActionQueueRepository,
	maxSkipThreshold int,
	logger *zap.Logger,
) *Synchronizer {
	if maxSkipThreshold <= 0 {
		maxSkipThreshold = DefaultMaxSkipThreshold
	}
	return &Synchronizer{
		store:            store,
		builder:          builder,
		announces:        announces,
		responses:        responses,
		queue:            queue,
		maxSkipThreshold: maxSkipThreshold,
		logger:           logger,
	}
}

// acquire takes the writer lock. A contended incremental run is skipped and
// counted; once the skip count reaches the threshold (or for a full rebuild)
// the lock is forcibly taken over. The counter resets on every successful
// acquisition, forced or not.
func (s *Synchronizer) acquire(force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.held {
		s.held = true
		s.skipCount = 0
		return nil
	}

	s.skipCount++
	if force || s.skipCount >= s.maxSkipThreshold {
		s.logger.Warn("Index writer lock forcibly acquired",
			zap.Int("skip_count", s.skipCount),
			zap.Bool("full_mode", force),
		)
		s.skipCount = 0
		return nil
	}
	return fmt.Errorf("Synchronizer.acquire: skipped run %d of %d: %w",
		s.skipCount, s.maxSkipThreshold, ErrLocked)
}

func (s *Synchronizer) release() {
	s.mu.Lock()
	s.held = false
	s.mu.Unlock()
}

// RunIncremental drains the action queue in strict kind order: deletes, then
// modifies (remove + rebuild), then creates. Actions are removed from the
// queue only after the batch holding their effect has been committed, so a
// crash mid-run replays them on the next tick.
func (s *Synchronizer) RunIncremental(ctx context.Context) error {
	if err := s.acquire(false); err != nil {
		return err
	}
	defer s.release()

	idx := s.store.Index()

	deleted, err := s.applyDeletes(ctx)
	if err != nil {
		return err
	}
	inserted, err := s.applyModifies(ctx, deleted)
	if err != nil {
		return err
	}
	if err := s.applyCreates(ctx, deleted, inserted); err != nil {
		return err
	}

	count, _ := idx.DocCount()
	s.logger.Info("Incremental index run completed", zap.Uint64("doc_count", count))
	return nil
}

func (s *Synchronizer) applyDeletes(ctx context.Context) (map[string]bool, error) {
	actions, err := s.queue.FindByKind(ctx, entity.ActionDelete)
	if err != nil {
		return nil, fmt.Errorf("Synchronizer.RunIncremental: failed to read delete actions: %w", err)
	}
	deleted := make(map[string]bool, len(actions))
	if len(actions) == 0 {
		return deleted, nil
	}

	batch := s.store.Index().NewBatch()
	ids := make([]string, 0, len(actions))
	for _, a := range actions {
		batch.Delete(a.AnnounceID)
		deleted[a.AnnounceID] = true
		ids = append(ids, a.ID)
	}
	if err := s.store.Index().Batch(batch); err != nil {
		return nil, fmt.Errorf("Synchronizer.RunIncremental: failed to commit deletes: %w", err)
	}
	if err := s.queue.Remove(ctx, ids); err != nil {
		return nil, fmt.Errorf("Synchronizer.RunIncremental: failed to dequeue delete actions: %w", err)
	}
	return deleted, nil
}

func (s *Synchronizer) applyModifies(ctx context.Context, deleted map[string]bool) (map[string]bool, error) {
	actions, err := s.queue.FindByKind(ctx, entity.ActionModify)
	if err != nil {
		return nil, fmt.Errorf("Synchronizer.RunIncremental: failed to read modify actions: %w", err)
	}
	inserted := make(map[string]bool)
	if len(actions) == 0 {
		return inserted, nil
	}

	// Remove stale documents first, collecting the announce ids to rebuild.
	// An id also covered by a delete action this run stays removed.
	rebuild := make([]string, 0, len(actions))
	seen := make(map[string]bool, len(actions))
	batch := s.store.Index().NewBatch()
	ids := make([]string, 0, len(actions))
	for _, a := range actions {
		ids = append(ids, a.ID)
		if seen[a.AnnounceID] {
			continue
		}
		seen[a.AnnounceID] = true
		batch.Delete(a.AnnounceID)
		if !deleted[a.AnnounceID] {
			rebuild = append(rebuild, a.AnnounceID)
		}
	}

	for _, announceID := range rebuild {
		if s.indexAnnounce(ctx, batch, announceID) {
			inserted[announceID] = true
		}
	}
	if err := s.store.Index().Batch(batch); err != nil {
		return nil, fmt.Errorf("Synchronizer.RunIncremental: failed to commit modifies: %w", err)
	}
	if err := s.queue.Remove(ctx, ids); err != nil {
		return nil, fmt.Errorf("Synchronizer.RunIncremental: failed to dequeue modify actions: %w", err)
	}
	return inserted, nil
}

func (s *Synchronizer) applyCreates(ctx context.Context, deleted, inserted map[string]bool) error {
	actions, err := s.queue.FindByKind(ctx, entity.ActionCreate)
	if err != nil {
		return fmt.Errorf("Synchronizer.RunIncremental: failed to read create actions: %w", err)
	}
	if len(actions) == 0 {
		return nil
	}

	batch := s.store.Index().NewBatch()
	ids := make([]string, 0, len(actions))
	for _, a := range actions {
		ids = append(ids, a.ID)
		if deleted[a.AnnounceID] || inserted[a.AnnounceID] {
			continue
		}
		if s.indexAnnounce(ctx, batch, a.AnnounceID) {
			inserted[a.AnnounceID] = true
		}
	}
	if err := s.store.Index().Batch(batch); err != nil {
		return fmt.Errorf("Synchronizer.RunIncremental: failed to commit creates: %w", err)
	}
	if err := s.queue.Remove(ctx, ids); err != nil {
		return fmt.Errorf("Synchronizer.RunIncremental: failed to dequeue create actions: %w", err)
	}
	return nil
}

// indexAnnounce buffers a document for one announce into the batch. Announces
// that vanished, are no longer visible, or fail to build are skipped; their
// queue entries are still removed by the caller.
func (s *Synchronizer) indexAnnounce(ctx context.Context, batch *bleve.Batch, announceID string) bool {
	announce, err := s.announces.GetByID(ctx, announceID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("Failed to load announce for indexing",
				zap.String("announce_id", announceID), zap.Error(err))
		}
		return false
	}
	if !announce.Visible() {
		return false
	}

	responses, err := s.responses.FindByAnnounce(ctx, announceID)
	if err != nil {
		s.logger.Error("Failed to load responses for indexing",
			zap.String("announce_id", announceID), zap.Error(err))
		return false
	}

	doc, err := s.builder.Build(ctx, announce, responses)
	if err != nil {
		s.logger.Warn("Skipping unindexable announce",
			zap.String("announce_id", announceID), zap.Error(err))
		return false
	}
	if err := batch.Index(announce.ID, doc.Fields()); err != nil {
		s.logger.Error("Failed to buffer document",
			zap.String("announce_id", announceID), zap.Error(err))
		return false
	}
	return true
}

// RunFull recreates the index from scratch out of every currently visible
// announce. The action queue is not touched: entries queued while the rebuild
// ran are applied by the next incremental pass.
func (s *Synchronizer) RunFull(ctx context.Context) error {
	if err := s.acquire(true); err != nil {
		return err
	}
	defer s.release()

	if err := s.store.Reset(); err != nil {
		return fmt.Errorf("Synchronizer.RunFull: %w", err)
	}

	announces, err := s.announces.FindVisible(ctx)
	if err != nil {
		return fmt.Errorf("Synchronizer.RunFull: failed to enumerate visible announces: %w", err)
	}

	batch := s.store.Index().NewBatch()
	indexed := 0
	for _, announce := range announces {
		responses, err := s.responses.FindByAnnounce(ctx, announce.ID)
		if err != nil {
			s.logger.Error("Failed to load responses during full rebuild",
				zap.String("announce_id", announce.ID), zap.Error(err))
			continue
		}
		doc, err := s.builder.Build(ctx, announce, responses)
		if err != nil {
			s.logger.Warn("Skipping unindexable announce during full rebuild",
				zap.String("announce_id", announce.ID), zap.Error(err))
			continue
		}
		if err := batch.Index(announce.ID, doc.Fields()); err != nil {
			s.logger.Error("Failed to buffer document during full rebuild",
				zap.String("announce_id", announce.ID), zap.Error(err))
			continue
		}
		indexed++
	}
	if err := s.store.Index().Batch(batch); err != nil {
		return fmt.Errorf("Synchronizer.RunFull: failed to commit rebuild: %w", err)
	}

	s.logger.Info("Full index rebuild completed",
		zap.Int("announces", len(announces)), zap.Int("indexed", indexed))
	return nil
}

package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/announce-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/announce-service/internal/port/repository"
	"go.uber.org/zap"
)

type SubscriptionUseCase struct {
	subscriptions repository.SubscriptionRepository
	filters       repository.SavedFilterRepository
	logger        *zap.Logger
}

func NewSubscriptionUseCase(
	subscriptions repository.SubscriptionRepository,
	filters repository.SavedFilterRepository,
	logger *zap.Logger,
) *SubscriptionUseCase {
	return &SubscriptionUseCase{
		subscriptions: subscriptions,
		filters:       filters,
		logger:        logger,
	}
}

func (uc *SubscriptionUseCase) Subscribe(ctx context.Context, subscriberID string, kind entity.SubscriptionKind, targetID string) (*entity.Subscription, error) {
	if kind == entity.SubscribeToFilter {
		if _, err := uc.filters.GetByID(ctx, targetID); err != nil {
			return nil, fmt.Errorf("SubscriptionUseCase.Subscribe: saved filter %s: %w", targetID, err)
		}
	}

	sub := &entity.Subscription{
		SubscriberID: subscriberID,
		Kind:         kind,
		TargetID:     targetID,
		CreatedAt:    time.Now(),
	}
	id, err := uc.subscriptions.Create(ctx, sub)
	if err != nil {
		uc.logger.Error("Failed to create subscription",
			zap.Error(err), zap.String("subscriber_id", subscriberID), zap.String("kind", string(kind)))
		return nil, fmt.Errorf("SubscriptionUseCase.Subscribe: %w", err)
	}
	sub.ID = id
	return sub, nil
}

func (uc *SubscriptionUseCase) Unsubscribe(ctx context.Context, id string) error {
	if err := uc.subscriptions.Delete(ctx, id); err != nil {
		return fmt.Errorf("SubscriptionUseCase.Unsubscribe: %w", err)
	}
	return nil
}

func (uc *SubscriptionUseCase) CreateSavedFilter(ctx context.Context, filter *entity.SavedFilter) (*entity.SavedFilter, error) {
	id, err := uc.filters.Create(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("SubscriptionUseCase.CreateSavedFilter: %w", err)
	}
	filter.ID = id
	return filter, nil
}

// DeleteSavedFilter removes the filter and cascades to every subscription
// pointing at it.
func (uc *SubscriptionUseCase) DeleteSavedFilter(ctx context.Context, id string) error {
	if err := uc.filters.Delete(ctx, id); err != nil {
		return fmt.Errorf("SubscriptionUseCase.DeleteSavedFilter: %w", err)
	}
	if err := uc.subscriptions.DeleteByTarget(ctx, entity.SubscribeToFilter, id); err != nil {
		uc.logger.Error("Failed to cascade filter deletion to subscriptions",
			zap.String("filter_id", id), zap.Error(err))
		return fmt.Errorf("SubscriptionUseCase.DeleteSavedFilter: cascade failed: %w", err)
	}
	return nil
}

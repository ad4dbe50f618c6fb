package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zerovacancy/payments/internal/domain/model"
	"github.com/zerovacancy/payments/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type subscriptionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewSubscriptionRepository(db *gorm.DB, logger *zap.Logger) repository.SubscriptionRepository {
	return &subscriptionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *subscriptionRepository) Create(ctx context.Context, subscription *model.Subscription) error {
	if err := r.db.WithContext(ctx).Create(subscription).Error; err != nil {
		if isDuplicateKeyError(err) {
			return repository.ErrAlreadyExists
		}
		r.logger.Error("Failed to create subscription",
			zap.String("user_id", subscription.UserID),
			zap.String("subscription_id", subscription.ProcessorSubscriptionID),
			zap.Error(err))
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

func (r *subscriptionRepository) GetByProcessorID(ctx context.Context, processorSubscriptionID string) (*model.Subscription, error) {
	return r.first(ctx, r.db.WithContext(ctx).
		Where("processor_subscription_id = ?", processorSubscriptionID))
}

func (r *subscriptionRepository) GetForUser(ctx context.Context, userID, processorSubscriptionID string) (*model.Subscription, error) {
	return r.first(ctx, r.db.WithContext(ctx).
		Where("user_id = ? AND processor_subscription_id = ?", userID, processorSubscriptionID))
}

func (r *subscriptionRepository) GetLatestForUser(ctx context.Context, userID string) (*model.Subscription, error) {
	return r.first(ctx, r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC"))
}

func (r *subscriptionRepository) first(_ context.Context, query *gorm.DB) (*model.Subscription, error) {
	var subscription model.Subscription
	if err := query.First(&subscription).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &subscription, nil
}

func (r *subscriptionRepository) MarkCanceling(ctx context.Context, processorSubscriptionID string, cancelAt *time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("processor_subscription_id = ? AND status <> ?", processorSubscriptionID, model.SubscriptionStatusCanceled).
		Updates(map[string]interface{}{
			"status":     model.SubscriptionStatusCanceling,
			"cancel_at":  cancelAt,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		r.logger.Error("Failed to mark subscription canceling",
			zap.String("subscription_id", processorSubscriptionID),
			zap.Error(err))
		return fmt.Errorf("failed to mark subscription canceling: %w", err)
	}
	return nil
}

// UpsertFromEvent is a single INSERT ... ON CONFLICT DO UPDATE whose update
// only fires when the incoming event is not older than the stored one.
func (r *subscriptionRepository) UpsertFromEvent(ctx context.Context, subscription *model.Subscription) (bool, error) {
	updates := clause.AssignmentColumns([]string{
		"processor_customer_id",
		"plan_id",
		"status",
		"current_period_start",
		"current_period_end",
		"cancel_at",
		"canceled_at",
		"last_event_at",
		"raw_metadata",
		"updated_at",
	})
	updates = append(updates, clause.Assignment{
		Column: clause.Column{Name: "plan_name"},
		Value:  gorm.Expr("COALESCE(NULLIF(excluded.plan_name, ''), subscriptions.plan_name)"),
	})

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "processor_subscription_id"}},
			DoUpdates: updates,
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "subscriptions.last_event_at IS NULL OR excluded.last_event_at IS NULL OR subscriptions.last_event_at <= excluded.last_event_at"},
			}},
		}).
		Create(subscription)
	if result.Error != nil {
		r.logger.Error("Failed to upsert subscription",
			zap.String("subscription_id", subscription.ProcessorSubscriptionID),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed to upsert subscription: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (r *subscriptionRepository) UpdateStatus(ctx context.Context, processorSubscriptionID string, status model.SubscriptionStatus, eventAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("processor_subscription_id = ?", processorSubscriptionID).
		Where("status <> ?", model.SubscriptionStatusCanceled).
		Where("last_event_at IS NULL OR last_event_at <= ?", eventAt).
		Updates(map[string]interface{}{
			"status":        status,
			"last_event_at": eventAt,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		r.logger.Error("Failed to update subscription status",
			zap.String("subscription_id", processorSubscriptionID),
			zap.String("status", string(status)),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed to update subscription status: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

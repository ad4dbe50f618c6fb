package repository

import (
	"context"
	"time"

	"github.com/zerovacancy/payments/internal/domain/model"
)

// SubscriptionRepository persists mirrored subscriptions.
type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *model.Subscription) error
	GetByProcessorID(ctx context.Context, processorSubscriptionID string) (*model.Subscription, error)
	// GetForUser only returns the row when it belongs to userID.
	GetForUser(ctx context.Context, userID, processorSubscriptionID string) (*model.Subscription, error)
	GetLatestForUser(ctx context.Context, userID string) (*model.Subscription, error)
	MarkCanceling(ctx context.Context, processorSubscriptionID string, cancelAt *time.Time) error
	// UpsertFromEvent inserts or overwrites the row keyed by processor id
	// unless the stored row has seen a newer event. It reports whether the
	// write was applied.
	UpsertFromEvent(ctx context.Context, subscription *model.Subscription) (bool, error)
	UpdateStatus(ctx context.Context, processorSubscriptionID string, status model.SubscriptionStatus, eventAt time.Time) (bool, error)
}

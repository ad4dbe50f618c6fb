package repository

import (
	"context"
	"time"

	"github.com/zerovacancy/payments/internal/domain/model"
)

// WebhookEventRepository records processed webhook events.
type WebhookEventRepository interface {
	// SaveEvent records the event as pending unless it is already known.
	SaveEvent(ctx context.Context, eventID, eventType string, createdAt time.Time, data model.JSONB) error
	GetEvent(ctx context.Context, eventID string) (*model.StripeWebhookEvent, error)
	MarkProcessed(ctx context.Context, eventID string) error
	MarkFailed(ctx context.Context, eventID string, err error) error
}

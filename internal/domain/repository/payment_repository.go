package repository

import (
	"context"
	"time"

	"github.com/zerovacancy/payments/internal/domain/model"
)

// PaymentRepository persists payment records.
type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*model.Payment, error)
	GetByInvoiceID(ctx context.Context, invoiceID string) (*model.Payment, error)
	// MarkCompleted completes a non-completed row and reports whether one changed.
	MarkCompleted(ctx context.Context, paymentIntentID string, invoiceID *string, paidAt time.Time) (bool, error)
	// MarkFailed never touches a completed row.
	MarkFailed(ctx context.Context, paymentIntentID, message string) (bool, error)
}

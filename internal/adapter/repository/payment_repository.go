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
)

type paymentRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewPaymentRepository(db *gorm.DB, logger *zap.Logger) repository.PaymentRepository {
	return &paymentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		if isDuplicateKeyError(err) {
			return repository.ErrAlreadyExists
		}
		r.logger.Error("Failed to create payment",
			zap.String("user_id", payment.UserID),
			zap.Error(err))
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *paymentRepository) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*model.Payment, error) {
	return r.getBy(ctx, "processor_payment_intent_id = ?", paymentIntentID)
}

func (r *paymentRepository) GetByInvoiceID(ctx context.Context, invoiceID string) (*model.Payment, error) {
	return r.getBy(ctx, "processor_invoice_id = ?", invoiceID)
}

func (r *paymentRepository) getBy(ctx context.Context, query, arg string) (*model.Payment, error) {
	var payment model.Payment
	if err := r.db.WithContext(ctx).Where(query, arg).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &payment, nil
}

func (r *paymentRepository) MarkCompleted(ctx context.Context, paymentIntentID string, invoiceID *string, paidAt time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":          model.PaymentStatusCompleted,
		"paid_at":         paidAt,
		"failure_message": nil,
		"updated_at":      time.Now(),
	}
	if invoiceID != nil {
		updates["processor_invoice_id"] = *invoiceID
	}

	result := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("processor_payment_intent_id = ? AND status <> ?", paymentIntentID, model.PaymentStatusCompleted).
		Updates(updates)
	if result.Error != nil {
		r.logger.Error("Failed to mark payment completed",
			zap.String("payment_intent_id", paymentIntentID),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed to mark payment completed: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *paymentRepository) MarkFailed(ctx context.Context, paymentIntentID, message string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("processor_payment_intent_id = ? AND status <> ?", paymentIntentID, model.PaymentStatusCompleted).
		Updates(map[string]interface{}{
			"status":          model.PaymentStatusFailed,
			"failure_message": message,
			"updated_at":      time.Now(),
		})
	if result.Error != nil {
		r.logger.Error("Failed to mark payment failed",
			zap.String("payment_intent_id", paymentIntentID),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed to mark payment failed: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

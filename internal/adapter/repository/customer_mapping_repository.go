package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zerovacancy/payments/internal/domain/model"
	"github.com/zerovacancy/payments/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type customerMappingRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewCustomerMappingRepository(db *gorm.DB, logger *zap.Logger) repository.CustomerMappingRepository {
	return &customerMappingRepository{
		db:     db,
		logger: logger,
	}
}

func (r *customerMappingRepository) GetByUserID(ctx context.Context, userID string) (*model.CustomerMapping, error) {
	var mapping model.CustomerMapping
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&mapping).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get customer mapping: %w", err)
	}
	return &mapping, nil
}

func (r *customerMappingRepository) GetByProviderCustomerID(ctx context.Context, customerID string) (*model.CustomerMapping, error) {
	var mapping model.CustomerMapping
	err := r.db.WithContext(ctx).Where("provider_customer_id = ?", customerID).First(&mapping).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get customer mapping: %w", err)
	}
	return &mapping, nil
}

func (r *customerMappingRepository) Reserve(ctx context.Context, userID, email string, token uuid.UUID) (bool, error) {
	mapping := &model.CustomerMapping{
		UserID:           userID,
		CustomerEmail:    email,
		ReservationToken: token,
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(mapping)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return false, nil
		}
		r.logger.Error("Failed to reserve customer mapping",
			zap.String("user_id", userID),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed to reserve customer mapping: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (r *customerMappingRepository) AttachCustomer(ctx context.Context, userID, customerID string) error {
	result := r.db.WithContext(ctx).
		Model(&model.CustomerMapping{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"provider_customer_id": customerID,
			"updated_at":           time.Now(),
		})
	if result.Error != nil {
		r.logger.Error("Failed to attach customer",
			zap.String("user_id", userID),
			zap.String("customer_id", customerID),
			zap.Error(result.Error))
		return fmt.Errorf("failed to attach customer: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no customer reservation for user %s", userID)
	}
	return nil
}

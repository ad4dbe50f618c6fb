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

type connectedAccountRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewConnectedAccountRepository(db *gorm.DB, logger *zap.Logger) repository.ConnectedAccountRepository {
	return &connectedAccountRepository{
		db:     db,
		logger: logger,
	}
}

func (r *connectedAccountRepository) GetByUserID(ctx context.Context, userID string) (*model.ConnectedAccount, error) {
	return r.getBy(ctx, "user_id = ?", userID)
}

func (r *connectedAccountRepository) GetByProcessorAccountID(ctx context.Context, processorAccountID string) (*model.ConnectedAccount, error) {
	return r.getBy(ctx, "processor_account_id = ?", processorAccountID)
}

func (r *connectedAccountRepository) getBy(ctx context.Context, query string, arg string) (*model.ConnectedAccount, error) {
	var account model.ConnectedAccount
	err := r.db.WithContext(ctx).Where(query, arg).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get connected account: %w", err)
	}
	return &account, nil
}

func (r *connectedAccountRepository) Create(ctx context.Context, account *model.ConnectedAccount) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(account)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return repository.ErrAlreadyExists
		}
		r.logger.Error("Failed to create connected account",
			zap.String("user_id", account.UserID),
			zap.String("account_id", account.ProcessorAccountID),
			zap.Error(result.Error))
		return fmt.Errorf("failed to create connected account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrAlreadyExists
	}
	return nil
}

func (r *connectedAccountRepository) UpdateOnboardingStatus(ctx context.Context, processorAccountID string, onboarded bool, raw model.JSONB) error {
	updates := map[string]interface{}{
		"onboarded":    onboarded,
		"raw_metadata": raw,
		"updated_at":   time.Now(),
	}
	if onboarded {
		updates["onboarded_at"] = gorm.Expr("COALESCE(onboarded_at, ?)", time.Now().UTC())
	}

	err := r.db.WithContext(ctx).
		Model(&model.ConnectedAccount{}).
		Where("processor_account_id = ?", processorAccountID).
		Updates(updates).Error
	if err != nil {
		r.logger.Error("Failed to update connected account",
			zap.String("account_id", processorAccountID),
			zap.Error(err))
		return fmt.Errorf("failed to update connected account: %w", err)
	}
	return nil
}

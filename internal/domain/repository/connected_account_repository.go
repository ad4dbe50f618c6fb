package repository

import (
	"context"

	"github.com/zerovacancy/payments/internal/domain/model"
)

// ConnectedAccountRepository persists connected payout accounts.
// Lookups return nil, nil when no row matches.
type ConnectedAccountRepository interface {
	GetByUserID(ctx context.Context, userID string) (*model.ConnectedAccount, error)
	GetByProcessorAccountID(ctx context.Context, processorAccountID string) (*model.ConnectedAccount, error)
	// Create returns ErrAlreadyExists when the user already has an account.
	Create(ctx context.Context, account *model.ConnectedAccount) error
	UpdateOnboardingStatus(ctx context.Context, processorAccountID string, onboarded bool, raw model.JSONB) error
}

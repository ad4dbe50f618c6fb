package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zerovacancy/payments/internal/domain/model"
	domainRepo "github.com/zerovacancy/payments/internal/domain/repository"
	"go.uber.org/zap"
)

func TestPaymentRepository_Lifecycle(t *testing.T) {
	repo := NewPaymentRepository(newTestDB(t), zap.NewNop())
	ctx := context.Background()

	payment := &model.Payment{
		UserID:                   "u1",
		PhotographerID:           ptr("photographer-1"),
		ProcessorPaymentIntentID: ptr("pi_1"),
		Amount:                   10000,
		PlatformFee:              ptr(int64(2000)),
		Currency:                 "usd",
		Status:                   "requires_payment_method",
	}
	require.NoError(t, repo.Create(ctx, payment))

	err := repo.Create(ctx, &model.Payment{UserID: "u1", ProcessorPaymentIntentID: ptr("pi_1"), Amount: 1, Currency: "usd", Status: "pending"})
	assert.ErrorIs(t, err, domainRepo.ErrAlreadyExists)

	changed, err := repo.MarkCompleted(ctx, "pi_1", ptr("in_1"), time.Now())
	require.NoError(t, err)
	assert.True(t, changed)

	stored, err := repo.GetByInvoiceID(ctx, "in_1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, model.PaymentStatusCompleted, stored.Status)
	assert.NotNil(t, stored.PaidAt)

	changed, err = repo.MarkCompleted(ctx, "pi_1", nil, time.Now())
	require.NoError(t, err)
	assert.False(t, changed, "completed payments are immutable")

	changed, err = repo.MarkFailed(ctx, "pi_1", "card declined")
	require.NoError(t, err)
	assert.False(t, changed)

	stored, err = repo.GetByPaymentIntentID(ctx, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCompleted, stored.Status)
}

func TestPaymentRepository_MarkFailed(t *testing.T) {
	repo := NewPaymentRepository(newTestDB(t), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.Payment{UserID: "u1", ProcessorPaymentIntentID: ptr("pi_2"), Amount: 500, Currency: "usd", Status: model.PaymentStatusPending}))

	changed, err := repo.MarkFailed(ctx, "pi_2", "card declined")
	require.NoError(t, err)
	assert.True(t, changed)

	stored, err := repo.GetByPaymentIntentID(ctx, "pi_2")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusFailed, stored.Status)
	require.NotNil(t, stored.FailureMessage)
	assert.Equal(t, "card declined", *stored.FailureMessage)

	missing, err := repo.GetByPaymentIntentID(ctx, "pi_missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

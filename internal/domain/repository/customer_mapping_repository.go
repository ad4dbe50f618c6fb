package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/zerovacancy/payments/internal/domain/model"
)

// CustomerMappingRepository stores the user to processor customer link.
type CustomerMappingRepository interface {
	GetByUserID(ctx context.Context, userID string) (*model.CustomerMapping, error)
	GetByProviderCustomerID(ctx context.Context, customerID string) (*model.CustomerMapping, error)
	// Reserve inserts a reservation row for userID. It reports false when a
	// row already existed; the caller must then re-fetch.
	Reserve(ctx context.Context, userID, email string, token uuid.UUID) (bool, error)
	// AttachCustomer completes the reservation for userID.
	AttachCustomer(ctx context.Context, userID, customerID string) error
}

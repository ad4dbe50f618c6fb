package database

import (
	"github.com/zerovacancy/payments/internal/adapter/repository"
	domainRepo "github.com/zerovacancy/payments/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	ConnectedAccount domainRepo.ConnectedAccountRepository
	CustomerMapping  domainRepo.CustomerMappingRepository
	Subscription     domainRepo.SubscriptionRepository
	Payment          domainRepo.PaymentRepository
	WebhookEvent     domainRepo.WebhookEventRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		ConnectedAccount: repository.NewConnectedAccountRepository(db, logger),
		CustomerMapping:  repository.NewCustomerMappingRepository(db, logger),
		Subscription:     repository.NewSubscriptionRepository(db, logger),
		Payment:          repository.NewPaymentRepository(db, logger),
		WebhookEvent:     repository.NewWebhookRepository(db, logger),
	}
}

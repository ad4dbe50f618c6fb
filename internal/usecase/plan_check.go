package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/zerovacancy/payments/internal/catalog"
	"github.com/zerovacancy/payments/internal/domain/provider"
	"go.uber.org/zap"
)

// PlanCheckResult is the verdict for one catalog plan. Problem is empty when
// the price can be subscribed to.
type PlanCheckResult struct {
	Plan    catalog.Plan
	Price   *provider.Price
	Problem string
}

// OK reports whether the plan passed.
func (r PlanCheckResult) OK() bool {
	return r.Problem == ""
}

// PlanCheckService compares the plan catalog against the processor's prices.
type PlanCheckService struct {
	plans     *catalog.Catalog
	processor provider.PaymentProcessor
	logger    *zap.Logger
}

func NewPlanCheckService(plans *catalog.Catalog, processor provider.PaymentProcessor, logger *zap.Logger) *PlanCheckService {
	return &PlanCheckService{
		plans:     plans,
		processor: processor,
		logger:    logger.Named("plan_check"),
	}
}

// Check looks up every catalog price. A plan fails when its price is missing,
// archived, or not recurring. The error is reserved for failures that stop the
// whole run, such as a missing API key.
func (s *PlanCheckService) Check(ctx context.Context) ([]PlanCheckResult, error) {
	plans := s.plans.Plans()
	results := make([]PlanCheckResult, 0, len(plans))

	for _, plan := range plans {
		result := PlanCheckResult{Plan: plan}

		price, err := s.processor.GetPrice(ctx, plan.PriceID)
		switch {
		case err != nil:
			var providerErr *provider.ProviderError
			if !errors.As(err, &providerErr) {
				return nil, err
			}
			result.Problem = err.Error()
		case !price.Active:
			result.Problem = "price is archived"
		case !price.Recurring:
			result.Problem = "price is not recurring"
		case plan.Interval != "" && price.Interval != plan.Interval:
			result.Problem = fmt.Sprintf("price bills every %s, catalog says %s", price.Interval, plan.Interval)
		}
		result.Price = price

		if result.OK() {
			s.logger.Info("Plan price verified",
				zap.String("plan", plan.Name),
				zap.String("price_id", plan.PriceID),
				zap.Int64("amount", price.Amount),
				zap.String("currency", price.Currency))
		} else {
			s.logger.Warn("Plan price unusable",
				zap.String("plan", plan.Name),
				zap.String("price_id", plan.PriceID),
				zap.String("problem", result.Problem))
		}
		results = append(results, result)
	}

	return results, nil
}

// Command check-plans verifies that every plan in the catalog maps to an
// active recurring price at the processor. It exits non-zero when any plan
// cannot be subscribed to.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/zerovacancy/payments/internal/catalog"
	"github.com/zerovacancy/payments/internal/config"
	"github.com/zerovacancy/payments/internal/infrastructure/provider"
	"github.com/zerovacancy/payments/internal/usecase"
	"github.com/zerovacancy/payments/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	catalogPath := flag.String("catalog", "", "plan catalog YAML; defaults to service.plan_catalog_path or the built-in catalog")
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline for processor lookups")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	path := *catalogPath
	if path == "" {
		path = cfg.Service.PlanCatalogPath
	}
	plans, err := catalog.Load(path)
	if err != nil {
		zapLogger.Fatal("Failed to load plan catalog", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	processor := provider.NewFactory(&cfg.Service, zapLogger).Processor()
	results, err := usecase.NewPlanCheckService(plans, processor, zapLogger).Check(ctx)
	if err != nil {
		zapLogger.Fatal("Plan check aborted", zap.Error(err))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PLAN\tPRICE\tAMOUNT\tSTATUS")
	failed := 0
	for _, r := range results {
		amount, status := "-", "ok"
		if r.Price != nil {
			amount = fmt.Sprintf("%d %s/%s", r.Price.Amount, r.Price.Currency, r.Price.Interval)
		}
		if !r.OK() {
			status = r.Problem
			failed++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Plan.Name, r.Plan.PriceID, amount, status)
	}
	w.Flush()

	if failed > 0 {
		zapLogger.Error("Plan catalog has unusable prices", zap.Int("failed", failed))
		os.Exit(1)
	}
}

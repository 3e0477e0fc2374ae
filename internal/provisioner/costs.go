package provisioner

import (
	"context"
	"time"

	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/log"
	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/model"
)

// CostStorage is the subset of storage the accruer needs.
type CostStorage interface {
	ListEnvironments(filter *model.EnvironmentFilter) ([]model.Environment, error)
	GetTemplate(id string) (*model.Template, error)
	AddCostRecord(c *model.CostRecord) error
}

// hourlyRates holds simulated per-service hourly rates (USD) by platform.
// Values are indicative, not provider pricing.
var hourlyRates = map[string]map[string]float64{
	model.PlatformAKS:           {"compute": 0.48, "storage": 0.06, "networking": 0.03},
	model.PlatformAppService:    {"compute": 0.18, "networking": 0.01},
	model.PlatformContainerApps: {"compute": 0.12, "networking": 0.01},
	model.PlatformVM:            {"compute": 0.21, "storage": 0.04},
	model.PlatformLambda:        {"compute": 0.02},
	model.PlatformECS:           {"compute": 0.16, "networking": 0.02},
	model.PlatformEKS:           {"compute": 0.44, "storage": 0.05, "networking": 0.03},
	model.PlatformGKE:           {"compute": 0.42, "storage": 0.05, "networking": 0.03},
	model.PlatformCloudRun:      {"compute": 0.09},
}

// defaultRates covers templates whose platform has no rate table entry.
var defaultRates = map[string]float64{"compute": 0.10}

// CostAccruer writes simulated cost records for running environments.
type CostAccruer struct {
	storage CostStorage
	period  time.Duration
}

// NewCostAccruer creates an accruer. period is the accounting window per
// rollup run and should match the rollup cadence.
func NewCostAccruer(s CostStorage, period time.Duration) *CostAccruer {
	if period <= 0 {
		period = time.Hour
	}
	return &CostAccruer{storage: s, period: period}
}

// Accrue writes one cost record per service for every running environment,
// covering the period ending now. Registered as a cron task.
func (c *CostAccruer) Accrue(ctx context.Context) error {
	envs, err := c.storage.ListEnvironments(&model.EnvironmentFilter{Status: model.EnvRunning})
	if err != nil {
		return err
	}

	end := time.Now()
	start := end.Add(-c.period)
	hours := c.period.Hours()

	for _, env := range envs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rates := defaultRates
		if tmpl, err := c.storage.GetTemplate(env.TemplateID); err == nil {
			if r, ok := hourlyRates[tmpl.Platform]; ok {
				rates = r
			}
		}

		for service, rate := range rates {
			record := &model.CostRecord{
				ID:            newID(),
				EnvironmentID: env.ID,
				Service:       service,
				Amount:        rate * hours,
				Currency:      "USD",
				PeriodStart:   start,
				PeriodEnd:     end,
			}
			if err := c.storage.AddCostRecord(record); err != nil {
				log.Warn("Recording cost", "environment", env.ID, "service", service, "error", err)
			}
		}
	}

	log.Debug("Cost rollup complete", "environments", len(envs))
	return nil
}

package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"spotsong-billing/internal/domain/model"
	"spotsong-billing/internal/domain/ports/repository"
)

// PlanUseCase manages the append-only pricing catalog. Superseding a tier's
// price means creating a new version row; nothing is ever updated in place, so
// every historical purchase keeps the price it was settled against.
type PlanUseCase struct {
	plans repository.PlanRepository
	log   *zerolog.Logger
}

func NewPlanUseCase(plans repository.PlanRepository, logger *zerolog.Logger) *PlanUseCase {
	return &PlanUseCase{plans: plans, log: logger}
}

// CreateVersion appends a pricing version for a tier, effective from the given
// instant onward.
func (uc *PlanUseCase) CreateVersion(ctx context.Context, name string, price decimal.Decimal, daysPeriod int, effectiveFrom time.Time) (*model.Plan, error) {
	plan, err := model.NewPlan(uuid.NewString(), name, price, daysPeriod, effectiveFrom)
	if err != nil {
		return nil, err
	}
	if err := uc.plans.Save(ctx, repository.NoTX, plan); err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("plan_id", plan.ID).
		Str("name", plan.Name).
		Str("price", plan.Price.String()).
		Int("days_period", plan.DaysPeriod).
		Time("effective_from", plan.EffectiveFrom).
		Msg("plan version created")
	return plan, nil
}

// Resolve prices a tier as of the given instant. Read-only and deterministic
// for a fixed asOf.
func (uc *PlanUseCase) Resolve(ctx context.Context, name string, asOf time.Time) (*model.Plan, error) {
	return uc.plans.ResolveAt(ctx, repository.NoTX, name, asOf)
}

// List returns every pricing version, all tiers.
func (uc *PlanUseCase) List(ctx context.Context) ([]*model.Plan, error) {
	return uc.plans.ListAll(ctx, repository.NoTX)
}

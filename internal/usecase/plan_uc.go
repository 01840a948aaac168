package usecase

import (
	"context"

	"wifi-voucher/internal/domain/model"
	"wifi-voucher/internal/domain/ports/repository"
)

// Compile-time check
var _ PlanUseCase = (*planUC)(nil)

type PlanUseCase interface {
	Create(ctx context.Context, plan *model.Plan) error
	Get(ctx context.Context, id string) (*model.Plan, error)
	List(ctx context.Context) ([]*model.Plan, error)
}

// planUC manages the plan catalog.
type planUC struct {
	repo repository.PlanRepository
}

// NewPlanUseCase constructs a PlanUseCase.
func NewPlanUseCase(repo repository.PlanRepository) *planUC {
	return &planUC{repo: repo}
}

// Create saves or updates a plan. Purchases already made keep their own amount.
func (uc *planUC) Create(ctx context.Context, plan *model.Plan) error {
	checked, err := model.NewPlan(plan.ID, plan.Name, plan.Duration, plan.Price, plan.DataAmount, plan.Type, plan.Popular)
	if err != nil {
		return err
	}
	return uc.repo.Save(ctx, repository.NoTX, checked)
}

// Get retrieves a plan by ID.
func (uc *planUC) Get(ctx context.Context, id string) (*model.Plan, error) {
	return uc.repo.FindByID(ctx, repository.NoTX, id)
}

// List returns all plans.
func (uc *planUC) List(ctx context.Context) ([]*model.Plan, error) {
	return uc.repo.ListAll(ctx, repository.NoTX)
}

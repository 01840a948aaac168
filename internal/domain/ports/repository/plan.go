package repository

import (
	"context"

	"wifi-voucher/internal/domain/model"
)

// PlanRepository is the port for plan reference data.
type PlanRepository interface {
	Save(ctx context.Context, tx Tx, plan *model.Plan) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Plan, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Plan, error)
}

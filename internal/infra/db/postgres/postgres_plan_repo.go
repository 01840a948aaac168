package postgres

import (
	"context"
	"fmt"

	"wifi-voucher/internal/domain/model"
	"wifi-voucher/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4/pgxpool"
)

// Ensure interface compliance
var _ repository.PlanRepository = (*planRepo)(nil)

type planRepo struct {
	pool *pgxpool.Pool
}

func NewPlanRepo(pool *pgxpool.Pool) *planRepo {
	return &planRepo{pool: pool}
}

func (r *planRepo) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	const q = `
INSERT INTO plans (id, name, duration, price, data_amount, plan_type, popular)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE
  SET name        = EXCLUDED.name,
      duration    = EXCLUDED.duration,
      price       = EXCLUDED.price,
      data_amount = EXCLUDED.data_amount,
      plan_type   = EXCLUDED.plan_type,
      popular     = EXCLUDED.popular;`
	_, err := execSQL(ctx, r.pool, tx, q,
		plan.ID, plan.Name, plan.Duration, plan.Price, plan.DataAmount, string(plan.Type), plan.Popular,
	)
	if err != nil {
		return fmt.Errorf("save plan: %w", writeErr(err))
	}
	return nil
}

func (r *planRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	const q = `
SELECT id, name, duration, price, data_amount, plan_type, popular
  FROM plans
 WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var p model.Plan
	if err := row.Scan(&p.ID, &p.Name, &p.Duration, &p.Price, &p.DataAmount, &p.Type, &p.Popular); err != nil {
		return nil, scanErr(err)
	}
	return &p, nil
}

func (r *planRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	const q = `
SELECT id, name, duration, price, data_amount, plan_type, popular
  FROM plans
 ORDER BY price, id;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()
	var out []*model.Plan
	for rows.Next() {
		var p model.Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.Duration, &p.Price, &p.DataAmount, &p.Type, &p.Popular); err != nil {
			return nil, scanErr(err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

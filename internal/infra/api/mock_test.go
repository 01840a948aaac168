package api

import (
	"context"
	"time"

	"wifi-voucher/internal/domain"
	"wifi-voucher/internal/domain/model"
	"wifi-voucher/internal/pool"
)

type mockPurchaseUC struct {
	PurchaseFunc   func(ctx context.Context, planID, locationID, userID string, now time.Time) (*model.Purchase, error)
	ListByUserFunc func(ctx context.Context, userID string, now time.Time) ([]model.Purchase, error)
	ListAllFunc    func(ctx context.Context, filter model.PurchaseFilter, now time.Time) (*model.PurchaseReport, error)
	GetFunc        func(ctx context.Context, id string, now time.Time) (*model.Purchase, error)
}

func (m *mockPurchaseUC) Purchase(ctx context.Context, planID, locationID, userID string, now time.Time) (*model.Purchase, error) {
	return m.PurchaseFunc(ctx, planID, locationID, userID, now)
}

func (m *mockPurchaseUC) ListByUser(ctx context.Context, userID string, now time.Time) ([]model.Purchase, error) {
	if m.ListByUserFunc == nil {
		return []model.Purchase{}, nil
	}
	return m.ListByUserFunc(ctx, userID, now)
}

func (m *mockPurchaseUC) ListAll(ctx context.Context, filter model.PurchaseFilter, now time.Time) (*model.PurchaseReport, error) {
	if m.ListAllFunc == nil {
		return &model.PurchaseReport{Purchases: []model.Purchase{}}, nil
	}
	return m.ListAllFunc(ctx, filter, now)
}

func (m *mockPurchaseUC) Get(ctx context.Context, id string, now time.Time) (*model.Purchase, error) {
	if m.GetFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.GetFunc(ctx, id, now)
}

type mockCredentialUC struct {
	ImportFunc  func(ctx context.Context, locationID string, planType model.PlanType, text string) (int, error)
	ReleaseFunc func(ctx context.Context, id string) error
	RemoveFunc  func(ctx context.Context, id string) error
	ListFunc    func(ctx context.Context, locationID string, planType model.PlanType) ([]model.Credential, error)
	StatsFunc   func(ctx context.Context) ([]pool.PoolStat, error)
}

func (m *mockCredentialUC) Import(ctx context.Context, locationID string, planType model.PlanType, text string) (int, error) {
	return m.ImportFunc(ctx, locationID, planType, text)
}
func (m *mockCredentialUC) Release(ctx context.Context, id string) error { return m.ReleaseFunc(ctx, id) }
func (m *mockCredentialUC) Remove(ctx context.Context, id string) error  { return m.RemoveFunc(ctx, id) }
func (m *mockCredentialUC) List(ctx context.Context, locationID string, planType model.PlanType) ([]model.Credential, error) {
	return m.ListFunc(ctx, locationID, planType)
}
func (m *mockCredentialUC) Stats(ctx context.Context) ([]pool.PoolStat, error) {
	return m.StatsFunc(ctx)
}

type mockPlanUC struct {
	plans []*model.Plan
	saved *model.Plan
}

func (m *mockPlanUC) Create(ctx context.Context, plan *model.Plan) error {
	if _, err := model.NewPlan(plan.ID, plan.Name, plan.Duration, plan.Price, plan.DataAmount, plan.Type, plan.Popular); err != nil {
		return err
	}
	m.saved = plan
	return nil
}
func (m *mockPlanUC) Get(ctx context.Context, id string) (*model.Plan, error) { return nil, nil }
func (m *mockPlanUC) List(ctx context.Context) ([]*model.Plan, error)         { return m.plans, nil }

type mockLocationUC struct {
	locations     []*model.Location
	SetActiveFunc func(ctx context.Context, id string, active bool) (*model.Location, error)
}

func (m *mockLocationUC) Get(ctx context.Context, id string) (*model.Location, error) { return nil, nil }
func (m *mockLocationUC) ListActive(ctx context.Context) ([]*model.Location, error) {
	var out []*model.Location
	for _, l := range m.locations {
		if l.IsActive {
			out = append(out, l)
		}
	}
	return out, nil
}
func (m *mockLocationUC) ListAll(ctx context.Context) ([]*model.Location, error) { return m.locations, nil }
func (m *mockLocationUC) SetActive(ctx context.Context, id string, active bool) (*model.Location, error) {
	return m.SetActiveFunc(ctx, id, active)
}

type mockLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (m *mockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	m.keys = append(m.keys, key)
	return m.allow, m.err
}

//go:build !integration

package postgres

import (
	"context"
	"time"

	"wifi-voucher/internal/domain/model"
	"wifi-voucher/internal/domain/ports/repository"
	red "wifi-voucher/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerPlanRepo mocks the database repository that the Plan decorator wraps.
type mockInnerPlanRepo struct {
	SaveFunc     func(ctx context.Context, tx repository.Tx, plan *model.Plan) error
	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error)
	ListAllFunc  func(ctx context.Context, tx repository.Tx) ([]*model.Plan, error)
}

func (m *mockInnerPlanRepo) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	return m.SaveFunc(ctx, tx, plan)
}
func (m *mockInnerPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	return m.ListAllFunc(ctx, tx)
}

// mockInnerLocationRepo mocks the database repository that the Location decorator wraps.
type mockInnerLocationRepo struct {
	SaveFunc      func(ctx context.Context, tx repository.Tx, l *model.Location) error
	FindByIDFunc  func(ctx context.Context, tx repository.Tx, id string) (*model.Location, error)
	ListAllFunc   func(ctx context.Context, tx repository.Tx) ([]*model.Location, error)
	SetActiveFunc func(ctx context.Context, tx repository.Tx, id string, active bool) error
}

func (m *mockInnerLocationRepo) Save(ctx context.Context, tx repository.Tx, l *model.Location) error {
	return m.SaveFunc(ctx, tx, l)
}
func (m *mockInnerLocationRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Location, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerLocationRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Location, error) {
	return m.ListAllFunc(ctx, tx)
}
func (m *mockInnerLocationRepo) SetActive(ctx context.Context, tx repository.Tx, id string, active bool) error {
	return m.SetActiveFunc(ctx, tx, id, active)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	SetNXFunc  func(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	DelFunc    func(ctx context.Context, keys ...string) error
	PingFunc   func(ctx context.Context) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	CADFunc    func(ctx context.Context, key, value string) (bool, error)
	CloseFunc  func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc == nil {
		return "", red.Nil
	}
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return m.SetNXFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc == nil {
		return nil
	}
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) CompareAndDelete(ctx context.Context, key, value string) (bool, error) {
	if m.CADFunc == nil {
		return false, nil
	}
	return m.CADFunc(ctx, key, value)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }

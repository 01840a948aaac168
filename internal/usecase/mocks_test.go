// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"

	"wifi-voucher/internal/domain"
	"wifi-voucher/internal/domain/model"
	"wifi-voucher/internal/domain/ports/repository"
)

// memPlanRepo is a small in-memory implementation used by unit tests.
type memPlanRepo struct {
	mu    sync.RWMutex
	plans map[string]*model.Plan
}

func newMemPlanRepo(plans ...model.Plan) *memPlanRepo {
	m := &memPlanRepo{plans: make(map[string]*model.Plan)}
	for i := range plans {
		cp := plans[i]
		m.plans[cp.ID] = &cp
	}
	return m
}

func (m *memPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.plans[cp.ID] = &cp
	return nil
}

func (m *memPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Plan, 0, len(m.plans))
	for _, p := range m.plans {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// memLocationRepo keeps locations in a map; FindByIDFunc overrides lookups when set.
type memLocationRepo struct {
	mu           sync.RWMutex
	locs         map[string]*model.Location
	FindByIDFunc func(ctx context.Context, id string) (*model.Location, error)
}

func newMemLocationRepo(locs ...model.Location) *memLocationRepo {
	m := &memLocationRepo{locs: make(map[string]*model.Location)}
	for i := range locs {
		cp := locs[i]
		m.locs[cp.ID] = &cp
	}
	return m
}

func (m *memLocationRepo) Save(ctx context.Context, tx repository.Tx, l *model.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *l
	m.locs[cp.ID] = &cp
	return nil
}

func (m *memLocationRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Location, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.locs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memLocationRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Location, 0, len(m.locs))
	for _, l := range m.locs {
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memLocationRepo) SetActive(ctx context.Context, tx repository.Tx, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locs[id]
	if !ok {
		return domain.ErrNotFound
	}
	l.IsActive = active
	return nil
}

var errSaveFailed = errors.New("save failed")

// memGateway records the last saved snapshot. saveErr makes every save fail;
// failNext fails only the next n saves.
type memGateway struct {
	mu          sync.Mutex
	creds       []model.Credential
	purchases   []model.Purchase
	saveErr     error
	failNext    int
	saves       int
	loadCredErr error
}

func (g *memGateway) fail() error {
	if g.saveErr != nil {
		return g.saveErr
	}
	if g.failNext > 0 {
		g.failNext--
		return errSaveFailed
	}
	return nil
}

func (g *memGateway) LoadCredentials(ctx context.Context) ([]model.Credential, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.loadCredErr != nil {
		return nil, g.loadCredErr
	}
	return append([]model.Credential(nil), g.creds...), nil
}

func (g *memGateway) SaveCredentials(ctx context.Context, all []model.Credential) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := g.fail(); err != nil {
		return err
	}
	g.saves++
	g.creds = append([]model.Credential(nil), all...)
	return nil
}

func (g *memGateway) LoadPurchases(ctx context.Context) ([]model.Purchase, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]model.Purchase(nil), g.purchases...), nil
}

func (g *memGateway) SavePurchases(ctx context.Context, all []model.Purchase) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := g.fail(); err != nil {
		return err
	}
	g.purchases = append([]model.Purchase(nil), all...)
	return nil
}

func (g *memGateway) stored() ([]model.Credential, []model.Purchase) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]model.Credential(nil), g.creds...), append([]model.Purchase(nil), g.purchases...)
}

//go:build !integration

package usecase

import (
	"context"
	"testing"
	"time"

	"wifi-voucher/internal/domain"
	"wifi-voucher/internal/domain/model"
	"wifi-voucher/internal/infra/logging"
	"wifi-voucher/internal/pool"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCredentialFixture(t *testing.T) (*credentialUC, *pool.Store, *memGateway) {
	t.Helper()
	store := pool.NewStore(nil, nil)
	gw := &memGateway{}
	locs := newMemLocationRepo(model.Location{ID: "L1", IsActive: true}, model.Location{ID: "L2", IsActive: false})
	uc := NewCredentialUseCase(store, locs, NewSnapshotWriter(gw, store, pool.NewLedger(nil)), logging.Nop())
	uc.clock = func() time.Time { return now }
	return uc, store, gw
}

func TestCredentialUC_Import(t *testing.T) {
	uc, store, gw := newCredentialFixture(t)
	ctx := context.Background()

	n, err := uc.Import(ctx, "L1", model.PlanWeekly, "u1 p1\nu2 p2\n\nbroken\nu1 dup")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	creds, _ := gw.stored()
	assert.Len(t, creds, 2)
	assert.Equal(t, now, creds[0].CreatedAt)

	n, err = uc.Import(ctx, "L1", model.PlanWeekly, "u1 p1\nu2 p2")
	require.NoError(t, err)
	assert.Zero(t, n, "loading the same text twice is a no-op")
	assert.Equal(t, 2, store.Len())

	// inactive locations may still be stocked
	n, err = uc.Import(ctx, "L2", model.PlanDaily, "u1 p1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCredentialUC_ImportValidation(t *testing.T) {
	uc, store, _ := newCredentialFixture(t)
	ctx := context.Background()

	_, err := uc.Import(ctx, "L9", model.PlanDaily, "a b")
	assert.ErrorIs(t, err, domain.ErrUnknownLocation)

	_, err = uc.Import(ctx, "L1", model.PlanType("yearly"), "a b")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	assert.Zero(t, store.Len())
}

func TestCredentialUC_ImportRollsBackOnFlushFailure(t *testing.T) {
	uc, store, gw := newCredentialFixture(t)
	gw.failNext = 1

	n, err := uc.Import(context.Background(), "L1", model.PlanDaily, "a b\nc d")
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Zero(t, n)
	assert.Zero(t, store.Len())
}

func TestCredentialUC_ReleaseAndRemove(t *testing.T) {
	uc, store, gw := newCredentialFixture(t)
	ctx := context.Background()

	_, err := uc.Import(ctx, "L1", model.PlanDaily, "a pa\nb pb")
	require.NoError(t, err)
	list, err := uc.List(ctx, "L1", "")
	require.NoError(t, err)
	require.Len(t, list, 2)

	_, err = store.MarkUsed(list[0].ID, "user-1", "p-1", now)
	require.NoError(t, err)

	require.NoError(t, uc.Release(ctx, list[0].ID))
	got, _ := store.Get(list[0].ID)
	assert.Equal(t, model.CredentialAvailable, got.Status)
	assert.Nil(t, got.AssignedPurchaseID)

	require.NoError(t, uc.Remove(ctx, list[1].ID))
	creds, _ := gw.stored()
	assert.Len(t, creds, 1)

	assert.ErrorIs(t, uc.Release(ctx, "missing"), domain.ErrNotFound)
	assert.ErrorIs(t, uc.Remove(ctx, "missing"), domain.ErrNotFound)
}

func TestCredentialUC_ReleaseUndoneWhenFlushFails(t *testing.T) {
	uc, store, gw := newCredentialFixture(t)
	ctx := context.Background()
	_, err := uc.Import(ctx, "L1", model.PlanDaily, "a pa")
	require.NoError(t, err)
	list, _ := uc.List(ctx, "L1", model.PlanDaily)
	_, err = store.MarkUsed(list[0].ID, "user-1", "p-1", now)
	require.NoError(t, err)

	gw.failNext = 1
	assert.ErrorIs(t, uc.Release(ctx, list[0].ID), domain.ErrPersistence)
	got, _ := store.Get(list[0].ID)
	assert.Equal(t, model.CredentialUsed, got.Status)
	assert.Equal(t, "p-1", *got.AssignedPurchaseID)

	gw.failNext = 1
	assert.ErrorIs(t, uc.Remove(ctx, list[0].ID), domain.ErrPersistence)
	_, err = store.Get(list[0].ID)
	assert.NoError(t, err, "removed credential is put back")
}

func TestCredentialUC_ListAndStats(t *testing.T) {
	uc, _, _ := newCredentialFixture(t)
	ctx := context.Background()
	_, err := uc.Import(ctx, "L1", model.PlanDaily, "a pa")
	require.NoError(t, err)
	_, err = uc.Import(ctx, "L1", model.PlanMonthly, "m pm")
	require.NoError(t, err)

	daily, err := uc.List(ctx, "L1", model.PlanDaily)
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, "a", daily[0].Username)

	_, err = uc.List(ctx, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	stats, err := uc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []pool.PoolStat{
		{LocationID: "L1", PlanType: model.PlanDaily, Available: 1},
		{LocationID: "L1", PlanType: model.PlanMonthly, Available: 1},
	}, stats)
}

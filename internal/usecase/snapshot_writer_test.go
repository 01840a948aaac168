//go:build !integration

package usecase

import (
	"context"
	"errors"
	"testing"

	"wifi-voucher/internal/domain/model"
	"wifi-voucher/internal/pool"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadState_RoundTrip(t *testing.T) {
	gw := &memGateway{}
	store := pool.NewStore(nil, nil)
	ledger := pool.NewLedger(nil)
	ids := store.Insert([]model.CredentialInput{
		{Username: "a", Password: "pa", LocationID: "L1", PlanType: model.PlanDaily},
		{Username: "b", Password: "pb", LocationID: "L1", PlanType: model.PlanDaily},
	}, now)
	_, err := store.MarkUsed(ids[0], "user-1", "p-1", now)
	require.NoError(t, err)
	require.NoError(t, ledger.Add(model.Purchase{ID: "p-1", UserID: "user-1", CredentialID: ids[0], ExpiresAt: now}))
	require.NoError(t, NewSnapshotWriter(gw, store, ledger).Flush(context.Background()))

	s2, l2, err := LoadState(context.Background(), gw)
	require.NoError(t, err)
	assert.Equal(t, store.Snapshot(), s2.Snapshot())
	assert.Equal(t, ledger.Snapshot(), l2.Snapshot())

	c, ok := s2.FindAvailable("L1", model.PlanDaily)
	require.True(t, ok)
	assert.Equal(t, "b", c.Username, "reloaded pool keeps insertion order")
}

func TestLoadState_PropagatesErrors(t *testing.T) {
	boom := errors.New("db down")
	_, _, err := LoadState(context.Background(), &memGateway{loadCredErr: boom})
	assert.ErrorIs(t, err, boom)
}

func TestSnapshotWriter_FlushStopsAtFirstFailure(t *testing.T) {
	gw := &memGateway{failNext: 1}
	w := NewSnapshotWriter(gw, pool.NewStore(nil, nil), pool.NewLedger(nil))

	err := w.Flush(context.Background())
	assert.ErrorIs(t, err, errSaveFailed)
	assert.Zero(t, gw.saves, "credentials are not written after purchases fail")

	require.NoError(t, w.Flush(context.Background()))
	assert.Equal(t, 1, gw.saves)
}

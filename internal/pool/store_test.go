//go:build !integration

package pool

import (
	"fmt"
	"testing"
	"time"

	"wifi-voucher/internal/domain"
	"wifi-voucher/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("c%03d", n)
	}
}

func inputs(loc string, pt model.PlanType, users ...string) []model.CredentialInput {
	out := make([]model.CredentialInput, 0, len(users))
	for _, u := range users {
		out = append(out, model.CredentialInput{Username: u, Password: u + "-pw", LocationID: loc, PlanType: pt})
	}
	return out
}

func TestStore_InsertSkipsDuplicates(t *testing.T) {
	s := NewStore(nil, seqIDs())

	ids := s.Insert(inputs("L1", model.PlanDaily, "a", "b", "a"), t0)
	require.Len(t, ids, 2, "duplicate within the batch is skipped")

	again := s.Insert(inputs("L1", model.PlanDaily, "a", "b"), t0)
	assert.Empty(t, again, "loading the same batch twice adds nothing")
	assert.Equal(t, 2, s.Len())

	// same username at a different location is a different login
	other := s.Insert(inputs("L2", model.PlanDaily, "a"), t0)
	assert.Len(t, other, 1)
}

func TestStore_InsertedAreAvailable(t *testing.T) {
	s := NewStore(nil, seqIDs())
	ids := s.Insert(inputs("L1", model.PlanWeekly, "a"), t0)

	c, err := s.Get(ids[0])
	require.NoError(t, err)
	assert.Equal(t, model.CredentialAvailable, c.Status)
	assert.Equal(t, t0, c.CreatedAt)
	assert.Nil(t, c.AssignedUserID)
	assert.True(t, c.Consistent())
}

func TestStore_FindAvailableIsDeterministic(t *testing.T) {
	s := NewStore(nil, seqIDs())
	s.Insert(inputs("L1", model.PlanDaily, "a", "b", "c"), t0)
	s.Insert(inputs("L1", model.PlanWeekly, "w"), t0)

	c, ok := s.FindAvailable("L1", model.PlanDaily)
	require.True(t, ok)
	assert.Equal(t, "a", c.Username)

	c, ok = s.FindAvailable("L1", model.PlanDaily, "c001")
	require.True(t, ok)
	assert.Equal(t, "b", c.Username)

	_, ok = s.FindAvailable("L1", model.PlanMonthly)
	assert.False(t, ok)
	_, ok = s.FindAvailable("L9", model.PlanDaily)
	assert.False(t, ok)
}

func TestStore_MarkUsed(t *testing.T) {
	s := NewStore(nil, seqIDs())
	ids := s.Insert(inputs("L1", model.PlanDaily, "a"), t0)

	c, err := s.MarkUsed(ids[0], "user-1", "p-1", t0)
	require.NoError(t, err)
	assert.Equal(t, model.CredentialUsed, c.Status)
	assert.Equal(t, "user-1", *c.AssignedUserID)
	assert.Equal(t, "p-1", *c.AssignedPurchaseID)

	_, err = s.MarkUsed(ids[0], "user-2", "p-2", t0)
	assert.ErrorIs(t, err, domain.ErrAlreadyUsed)

	// the failed claim left the first assignment in place
	got, _ := s.Get(ids[0])
	assert.Equal(t, "user-1", *got.AssignedUserID)

	_, err = s.MarkUsed("missing", "u", "p", t0)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, ok := s.FindAvailable("L1", model.PlanDaily)
	assert.False(t, ok, "used credential is no longer offered")
}

func TestStore_ReleaseClearsAssignment(t *testing.T) {
	s := NewStore(nil, seqIDs())
	ids := s.Insert(inputs("L1", model.PlanDaily, "a"), t0)
	_, err := s.MarkUsed(ids[0], "user-1", "p-1", t0)
	require.NoError(t, err)

	prev, err := s.Release(ids[0])
	require.NoError(t, err)
	assert.Equal(t, "p-1", *prev.AssignedPurchaseID, "Release reports the record it replaced")
	c, _ := s.Get(ids[0])
	assert.Equal(t, model.CredentialAvailable, c.Status)
	assert.Nil(t, c.AssignedUserID)
	assert.Nil(t, c.AssignedPurchaseID)
	assert.Nil(t, c.AssignedAt)

	_, err = s.Release("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ReleaseClaimOnlyFreesItsOwnClaim(t *testing.T) {
	s := NewStore(nil, seqIDs())
	ids := s.Insert(inputs("L1", model.PlanDaily, "a"), t0)
	_, err := s.MarkUsed(ids[0], "user-a", "p-a", t0)
	require.NoError(t, err)

	// admin recycles it and another purchase takes it
	_, err = s.Release(ids[0])
	require.NoError(t, err)
	_, err = s.MarkUsed(ids[0], "user-b", "p-b", t0)
	require.NoError(t, err)

	assert.ErrorIs(t, s.ReleaseClaim(ids[0], "p-a"), domain.ErrStateChanged)
	c, _ := s.Get(ids[0])
	assert.Equal(t, model.CredentialUsed, c.Status)
	assert.Equal(t, "p-b", *c.AssignedPurchaseID)

	require.NoError(t, s.ReleaseClaim(ids[0], "p-b"))
	c, _ = s.Get(ids[0])
	assert.Equal(t, model.CredentialAvailable, c.Status)

	assert.ErrorIs(t, s.ReleaseClaim(ids[0], "p-b"), domain.ErrStateChanged, "an available credential has no claim to undo")
	assert.ErrorIs(t, s.ReleaseClaim("missing", "p-b"), domain.ErrNotFound)
}

func TestStore_RemoveIfAvailable(t *testing.T) {
	s := NewStore(nil, seqIDs())
	ids := s.Insert(inputs("L1", model.PlanDaily, "a", "b"), t0)
	_, err := s.MarkUsed(ids[0], "u", "p", t0)
	require.NoError(t, err)

	assert.ErrorIs(t, s.RemoveIfAvailable(ids[0]), domain.ErrAlreadyUsed)
	_, err = s.Get(ids[0])
	assert.NoError(t, err, "claimed credential stays")

	require.NoError(t, s.RemoveIfAvailable(ids[1]))
	assert.Equal(t, 1, s.Len())
	assert.ErrorIs(t, s.RemoveIfAvailable(ids[1]), domain.ErrNotFound)
}

func TestStore_Remove(t *testing.T) {
	s := NewStore(nil, seqIDs())
	ids := s.Insert(inputs("L1", model.PlanDaily, "a", "b"), t0)
	_, err := s.MarkUsed(ids[0], "user-1", "p-1", t0)
	require.NoError(t, err)

	gone, err := s.Remove(ids[0])
	require.NoError(t, err, "used credentials may be removed")
	assert.Equal(t, "a", gone.Username)
	_, err = s.Get(ids[0])
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.Remove(ids[0])
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// the login is free again
	assert.Len(t, s.Insert(inputs("L1", model.PlanDaily, "a"), t0), 1)

	_, err = s.Remove(ids[1])
	require.NoError(t, err)
	assert.Len(t, s.ListByLocation("L1", ""), 1)
}

func TestStore_ListByLocation(t *testing.T) {
	s := NewStore(nil, seqIDs())
	s.Insert(inputs("L1", model.PlanDaily, "a"), t0)
	s.Insert(inputs("L2", model.PlanDaily, "x"), t0)
	s.Insert(inputs("L1", model.PlanWeekly, "b"), t0)

	all := s.ListByLocation("L1", "")
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Username)
	assert.Equal(t, "b", all[1].Username)

	weekly := s.ListByLocation("L1", model.PlanWeekly)
	require.Len(t, weekly, 1)
	assert.Equal(t, "b", weekly[0].Username)

	assert.Empty(t, s.ListByLocation("L3", ""))

	// listing hands out copies
	all[0].Status = model.CredentialUsed
	c, _ := s.Get(all[0].ID)
	assert.Equal(t, model.CredentialAvailable, c.Status)
}

func TestStore_SnapshotRoundTrip(t *testing.T) {
	s := NewStore(nil, seqIDs())
	ids := s.Insert(inputs("L1", model.PlanDaily, "a", "b"), t0)
	_, err := s.MarkUsed(ids[1], "user-1", "p-1", t0)
	require.NoError(t, err)

	reloaded := NewStore(s.Snapshot(), seqIDs())
	assert.Equal(t, s.Snapshot(), reloaded.Snapshot())

	c, ok := reloaded.FindAvailable("L1", model.PlanDaily)
	require.True(t, ok)
	assert.Equal(t, ids[0], c.ID)
}

func TestStore_Stats(t *testing.T) {
	s := NewStore(nil, seqIDs())
	ids := s.Insert(inputs("L2", model.PlanDaily, "a", "b"), t0)
	s.Insert(inputs("L1", model.PlanWeekly, "c"), t0)
	_, err := s.MarkUsed(ids[0], "u", "p", t0)
	require.NoError(t, err)

	assert.Equal(t, []PoolStat{
		{LocationID: "L1", PlanType: model.PlanWeekly, Available: 1},
		{LocationID: "L2", PlanType: model.PlanDaily, Available: 1, Used: 1},
	}, s.Stats())
}

func TestStore_Revert(t *testing.T) {
	s := NewStore(nil, seqIDs())
	ids := s.Insert(inputs("L1", model.PlanDaily, "a"), t0)
	used, err := s.MarkUsed(ids[0], "user-1", "p-1", t0)
	require.NoError(t, err)

	prev, err := s.Release(ids[0])
	require.NoError(t, err)
	require.NoError(t, s.Revert(prev, false))
	got, _ := s.Get(ids[0])
	assert.Equal(t, used, got)

	prev, err = s.Remove(ids[0])
	require.NoError(t, err)
	require.NoError(t, s.Revert(prev, true))
	got, err = s.Get(ids[0])
	require.NoError(t, err)
	assert.Equal(t, "a", got.Username)

	s.Insert(inputs("L1", model.PlanDaily, "b"), t0)
	clash := got
	clash.ID = "other"
	clash.Username = "b"
	assert.ErrorIs(t, s.Revert(clash, true), domain.ErrAlreadyExists)
}

func TestStore_RevertSkipsCredentialClaimedSince(t *testing.T) {
	s := NewStore(nil, seqIDs())
	ids := s.Insert(inputs("L1", model.PlanDaily, "a"), t0)
	_, err := s.MarkUsed(ids[0], "user-1", "p-1", t0)
	require.NoError(t, err)

	prev, err := s.Release(ids[0])
	require.NoError(t, err)
	_, err = s.MarkUsed(ids[0], "user-2", "p-2", t0)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Revert(prev, false), domain.ErrStateChanged)
	got, _ := s.Get(ids[0])
	assert.Equal(t, "p-2", *got.AssignedPurchaseID, "the newer claim is kept")

	// a removed id that reappeared is not overwritten either
	prev, err = s.Remove(ids[0])
	require.NoError(t, err)
	other := prev
	other.Status = model.CredentialAvailable
	other.AssignedUserID, other.AssignedPurchaseID, other.AssignedAt = nil, nil, nil
	require.NoError(t, s.Revert(other, true))
	assert.ErrorIs(t, s.Revert(prev, true), domain.ErrStateChanged)
}

// File: internal/usecase/purchase_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wifi-voucher/internal/domain"
	"wifi-voucher/internal/domain/model"
	"wifi-voucher/internal/domain/ports/repository"
	"wifi-voucher/internal/infra/logging"
	"wifi-voucher/internal/infra/metrics"
	"wifi-voucher/internal/pool"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ PurchaseUseCase = (*purchaseUC)(nil)

const reflushTimeout = 10 * time.Second

type PurchaseUseCase interface {
	// Purchase sells one voucher: it claims a credential for the plan's tier at
	// the location and records the purchase durably, or leaves no trace.
	Purchase(ctx context.Context, planID, locationID, userID string, now time.Time) (*model.Purchase, error)
	ListByUser(ctx context.Context, userID string, now time.Time) ([]model.Purchase, error)
	// ListAll returns the purchases matching filter, oldest first, with their totals.
	ListAll(ctx context.Context, filter model.PurchaseFilter, now time.Time) (*model.PurchaseReport, error)
	Get(ctx context.Context, id string, now time.Time) (*model.Purchase, error)
}

type purchaseUC struct {
	plans     repository.PlanRepository
	locations repository.LocationRepository
	alloc     *pool.Allocator
	ledger    *pool.Ledger
	writer    *SnapshotWriter
	log       *zerolog.Logger
	newID     func() string
}

func NewPurchaseUseCase(
	plans repository.PlanRepository,
	locations repository.LocationRepository,
	alloc *pool.Allocator,
	ledger *pool.Ledger,
	writer *SnapshotWriter,
	logger *zerolog.Logger,
) *purchaseUC {
	return &purchaseUC{
		plans:     plans,
		locations: locations,
		alloc:     alloc,
		ledger:    ledger,
		writer:    writer,
		log:       logger,
		newID:     uuid.NewString,
	}
}

func (uc *purchaseUC) Purchase(ctx context.Context, planID, locationID, userID string, now time.Time) (*model.Purchase, error) {
	log := logging.With(ctx, uc.log)
	defer logging.TraceDuration(log, "PurchaseUC.Purchase")()

	if planID == "" || locationID == "" || userID == "" {
		metrics.IncPurchase("invalid")
		return nil, domain.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	plan, err := uc.plans.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.IncPurchase("unknown_plan")
			return nil, domain.ErrUnknownPlan
		}
		return nil, fmt.Errorf("find plan %s: %w", planID, err)
	}
	loc, err := uc.locations.FindByID(ctx, repository.NoTX, locationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.IncPurchase("unknown_location")
			return nil, domain.ErrUnknownLocation
		}
		return nil, fmt.Errorf("find location %s: %w", locationID, err)
	}
	if !loc.IsActive {
		metrics.IncPurchase("location_inactive")
		return nil, domain.ErrLocationInactive
	}
	expires, err := model.ComputeExpiry(plan.Type, now)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", plan.ID, err)
	}

	purchaseID := uc.newID()
	cred, err := uc.alloc.Allocate(loc.ID, plan.Type, userID, purchaseID, now)
	if err != nil {
		if errors.Is(err, domain.ErrOutOfStock) {
			metrics.IncPurchase("out_of_stock")
			log.Info().Str("location_id", loc.ID).Str("plan_type", string(plan.Type)).Msg("pool exhausted")
		}
		return nil, err
	}

	p := model.Purchase{
		ID:           purchaseID,
		UserID:       userID,
		PlanID:       plan.ID,
		LocationID:   loc.ID,
		CredentialID: cred.ID,
		Amount:       plan.Price,
		PurchasedAt:  now,
		ExpiresAt:    expires,
		Credentials:  model.AccessCredentials{Username: cred.Username, Password: cred.Password},
		Status:       model.PurchaseActive,
	}
	if err := uc.ledger.Add(p); err != nil {
		return nil, uc.rollback(ctx, p, false, err)
	}
	// the caller may have given up while we were claiming
	if err := ctx.Err(); err != nil {
		return nil, uc.rollback(ctx, p, true, err)
	}
	if err := uc.writer.Flush(ctx); err != nil {
		return nil, uc.rollback(ctx, p, true, err)
	}

	metrics.IncPurchase("ok")
	log.Info().
		Str("purchase_id", p.ID).
		Str("credential_id", cred.ID).
		Str("plan_id", plan.ID).
		Str("location_id", loc.ID).
		Time("expires_at", expires).
		Msg("voucher sold")
	return &p, nil
}

// rollback undoes a claim whose purchase could not be made durable: the ledger
// entry goes, the credential returns to the pool, and the reverted state is
// written back on a context that outlives the request.
func (uc *purchaseUC) rollback(ctx context.Context, p model.Purchase, inLedger bool, cause error) error {
	log := logging.With(logging.WithPurchaseID(ctx, p.ID), uc.log)
	metrics.IncPurchase("persistence_failure")
	metrics.IncPurchaseRollback()

	if inLedger {
		if err := uc.ledger.Remove(p.ID); err != nil {
			log.Error().Err(err).Msg("rollback: ledger entry missing")
		}
	}
	switch err := uc.alloc.Release(p.CredentialID, p.ID); {
	case errors.Is(err, domain.ErrStateChanged):
		log.Warn().Str("credential_id", p.CredentialID).Msg("rollback: credential no longer held by this purchase, left as is")
	case err != nil:
		log.Error().Err(err).Str("credential_id", p.CredentialID).Msg("rollback: release failed")
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reflushTimeout)
	defer cancel()
	if err := uc.writer.Flush(rctx); err != nil {
		log.Warn().Err(err).Msg("rollback: re-flush failed, state will be written by the next flush")
	}
	log.Warn().Err(cause).Str("credential_id", p.CredentialID).Msg("purchase rolled back")
	return fmt.Errorf("%w: %w", domain.ErrPersistence, cause)
}

func (uc *purchaseUC) ListByUser(ctx context.Context, userID string, now time.Time) ([]model.Purchase, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return views(uc.ledger.ListByUser(userID), now), nil
}

func (uc *purchaseUC) ListAll(ctx context.Context, filter model.PurchaseFilter, now time.Time) (*model.PurchaseReport, error) {
	out := make([]model.Purchase, 0)
	for _, p := range uc.ledger.Snapshot() {
		if filter.Match(p) {
			out = append(out, p.View(now))
		}
	}
	return &model.PurchaseReport{Purchases: out, Summary: model.Summarize(out)}, nil
}

func (uc *purchaseUC) Get(ctx context.Context, id string, now time.Time) (*model.Purchase, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	p, err := uc.ledger.Get(id)
	if err != nil {
		return nil, err
	}
	p = p.View(now)
	return &p, nil
}

func views(ps []model.Purchase, now time.Time) []model.Purchase {
	for i := range ps {
		ps[i] = ps[i].View(now)
	}
	return ps
}

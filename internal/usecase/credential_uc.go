// File: internal/usecase/credential_uc.go
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

	"github.com/rs/zerolog"
)

// Compile-time check
var _ CredentialUseCase = (*credentialUC)(nil)

// CredentialUseCase is the administrative surface of the pool.
type CredentialUseCase interface {
	// Import parses a bulk text block and adds the new logins; returns how many were added.
	Import(ctx context.Context, locationID string, planType model.PlanType, text string) (int, error)
	Release(ctx context.Context, id string) error
	Remove(ctx context.Context, id string) error
	List(ctx context.Context, locationID string, planType model.PlanType) ([]model.Credential, error)
	Stats(ctx context.Context) ([]pool.PoolStat, error)
}

type credentialUC struct {
	store     *pool.Store
	locations repository.LocationRepository
	writer    *SnapshotWriter
	log       *zerolog.Logger
	clock     func() time.Time
}

func NewCredentialUseCase(store *pool.Store, locations repository.LocationRepository, writer *SnapshotWriter, logger *zerolog.Logger) *credentialUC {
	return &credentialUC{store: store, locations: locations, writer: writer, log: logger, clock: time.Now}
}

func (uc *credentialUC) Import(ctx context.Context, locationID string, planType model.PlanType, text string) (int, error) {
	log := logging.With(ctx, uc.log)
	if !planType.Valid() {
		return 0, fmt.Errorf("plan type %q: %w", planType, domain.ErrInvalidArgument)
	}
	if _, err := uc.location(ctx, locationID); err != nil {
		return 0, err
	}

	batch := pool.ParseBulk(text, locationID, planType)
	ids := uc.store.Insert(batch, uc.clock().UTC())
	if len(ids) == 0 {
		log.Info().Str("location_id", locationID).Int("lines", len(batch)).Msg("import added nothing")
		return 0, nil
	}
	if err := uc.writer.Flush(ctx); err != nil {
		// a login sold in the meantime stays; its purchase owns it now
		kept := 0
		for _, id := range ids {
			if rerr := uc.store.RemoveIfAvailable(id); errors.Is(rerr, domain.ErrAlreadyUsed) {
				kept++
			}
		}
		log.Error().Err(err).Int("count", len(ids)).Int("kept_claimed", kept).Msg("import not persisted, batch dropped")
		return 0, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	metrics.AddCredentialsImported(len(ids))
	log.Info().
		Str("location_id", locationID).
		Str("plan_type", string(planType)).
		Int("parsed", len(batch)).
		Int("added", len(ids)).
		Msg("credentials imported")
	return len(ids), nil
}

func (uc *credentialUC) Release(ctx context.Context, id string) error {
	return uc.mutate(ctx, id, "release", false, uc.store.Release)
}

// Remove deletes the credential in any state. Purchases that reference it are
// left as they are.
func (uc *credentialUC) Remove(ctx context.Context, id string) error {
	return uc.mutate(ctx, id, "remove", true, uc.store.Remove)
}

func (uc *credentialUC) mutate(ctx context.Context, id, op string, removes bool, apply func(string) (model.Credential, error)) error {
	log := logging.With(ctx, uc.log).With().Str("credential_id", id).Str("op", op).Logger()

	prev, err := apply(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Error().Msg("unknown credential")
		}
		return err
	}
	if err := uc.writer.Flush(ctx); err != nil {
		switch rerr := uc.store.Revert(prev, removes); {
		case errors.Is(rerr, domain.ErrStateChanged):
			log.Warn().Msg("credential changed hands before the undo, keeping its current state")
		case rerr != nil:
			log.Error().Err(rerr).Msg("could not undo change")
		}
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	log.Info().Str("prev_status", string(prev.Status)).Msg("credential updated")
	return nil
}

func (uc *credentialUC) List(ctx context.Context, locationID string, planType model.PlanType) ([]model.Credential, error) {
	if locationID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if planType != "" && !planType.Valid() {
		return nil, fmt.Errorf("plan type %q: %w", planType, domain.ErrInvalidArgument)
	}
	return uc.store.ListByLocation(locationID, planType), nil
}

func (uc *credentialUC) Stats(ctx context.Context) ([]pool.PoolStat, error) {
	return uc.store.Stats(), nil
}

func (uc *credentialUC) location(ctx context.Context, id string) (*model.Location, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	loc, err := uc.locations.FindByID(ctx, repository.NoTX, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnknownLocation
	}
	if err != nil {
		return nil, fmt.Errorf("find location %s: %w", id, err)
	}
	return loc, nil
}

package usecase

import (
	"context"
	"errors"

	"wifi-voucher/internal/domain"
	"wifi-voucher/internal/domain/model"
	"wifi-voucher/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ LocationUseCase = (*locationUC)(nil)

type LocationUseCase interface {
	Get(ctx context.Context, id string) (*model.Location, error)
	ListActive(ctx context.Context) ([]*model.Location, error)
	ListAll(ctx context.Context) ([]*model.Location, error)
	// SetActive toggles whether the location accepts purchases.
	SetActive(ctx context.Context, id string, active bool) (*model.Location, error)
}

type locationUC struct {
	repo repository.LocationRepository
	log  *zerolog.Logger
}

func NewLocationUseCase(repo repository.LocationRepository, logger *zerolog.Logger) *locationUC {
	return &locationUC{repo: repo, log: logger}
}

func (uc *locationUC) Get(ctx context.Context, id string) (*model.Location, error) {
	loc, err := uc.repo.FindByID(ctx, repository.NoTX, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnknownLocation
	}
	return loc, err
}

func (uc *locationUC) ListActive(ctx context.Context) ([]*model.Location, error) {
	all, err := uc.repo.ListAll(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Location, 0, len(all))
	for _, l := range all {
		if l.IsActive {
			out = append(out, l)
		}
	}
	return out, nil
}

func (uc *locationUC) ListAll(ctx context.Context) ([]*model.Location, error) {
	return uc.repo.ListAll(ctx, repository.NoTX)
}

func (uc *locationUC) SetActive(ctx context.Context, id string, active bool) (*model.Location, error) {
	// committed on its own so cache invalidation never runs ahead of the write
	if err := uc.repo.SetActive(ctx, repository.NoTX, id, active); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnknownLocation
		}
		return nil, err
	}
	out, err := uc.repo.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("location_id", id).Bool("is_active", active).Msg("location toggled")
	return out, nil
}

package repository

import (
	"context"

	"wifi-voucher/internal/domain/model"
)

type LocationRepository interface {
	Save(ctx context.Context, tx Tx, loc *model.Location) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Location, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Location, error)
	// SetActive returns domain.ErrNotFound for an unknown id.
	SetActive(ctx context.Context, tx Tx, id string, active bool) error
}

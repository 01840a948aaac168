package repository

import (
	"context"

	"wifi-voucher/internal/domain/model"
)

// SnapshotGateway persists the credential pool and the purchase ledger as
// whole collections. A Save replaces everything previously stored; a Load
// returns records in the order they were saved.
type SnapshotGateway interface {
	LoadCredentials(ctx context.Context) ([]model.Credential, error)
	SaveCredentials(ctx context.Context, all []model.Credential) error
	LoadPurchases(ctx context.Context) ([]model.Purchase, error)
	SavePurchases(ctx context.Context, all []model.Purchase) error
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an infra-defined transaction handle (pgx.Tx for Postgres).
// Repositories accept NoTX for the non-transactional path.
type Tx interface{}

var NoTX Tx

// TransactionManager runs fn inside one database transaction.
//
// USAGE
// tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx Tx) error {
// // call repositories with the same ctx and tx
// return locations.SetActive(ctx, tx, id, false)
// })
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}

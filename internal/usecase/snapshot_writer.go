// File: internal/usecase/snapshot_writer.go
package usecase

import (
	"context"
	"fmt"
	"sync"

	"wifi-voucher/internal/domain/model"
	"wifi-voucher/internal/domain/ports/repository"
	"wifi-voucher/internal/pool"

	"golang.org/x/sync/errgroup"
)

// SnapshotWriter persists the store and ledger through the gateway.
// Flushes are serialized and each one snapshots under the writer lock, so a
// flush that starts later never writes older state than one that started
// earlier. No pool lock is held while the gateway runs.
type SnapshotWriter struct {
	mu     sync.Mutex
	gw     repository.SnapshotGateway
	store  *pool.Store
	ledger *pool.Ledger
}

func NewSnapshotWriter(gw repository.SnapshotGateway, store *pool.Store, ledger *pool.Ledger) *SnapshotWriter {
	return &SnapshotWriter{gw: gw, store: store, ledger: ledger}
}

// Flush writes purchases first, then credentials.
func (w *SnapshotWriter) Flush(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	purchases := w.ledger.Snapshot()
	creds := w.store.Snapshot()
	if err := w.gw.SavePurchases(ctx, purchases); err != nil {
		return fmt.Errorf("save purchases: %w", err)
	}
	if err := w.gw.SaveCredentials(ctx, creds); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

// LoadState reads both collections in parallel and builds the in-memory
// store and ledger from them.
func LoadState(ctx context.Context, gw repository.SnapshotGateway) (*pool.Store, *pool.Ledger, error) {
	var (
		creds     []model.Credential
		purchases []model.Purchase
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		creds, err = gw.LoadCredentials(gctx)
		if err != nil {
			return fmt.Errorf("load credentials: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		purchases, err = gw.LoadPurchases(gctx)
		if err != nil {
			return fmt.Errorf("load purchases: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return pool.NewStore(creds, nil), pool.NewLedger(purchases), nil
}

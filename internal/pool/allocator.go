// File: internal/pool/allocator.go
package pool

import (
	"errors"
	"time"

	"wifi-voucher/internal/domain"
	"wifi-voucher/internal/domain/model"
	"wifi-voucher/internal/infra/metrics"
)

// DefaultMaxAttempts bounds how many contended claims one allocation tolerates.
const DefaultMaxAttempts = 5

// Allocator hands out one available credential per purchase. It knows nothing
// about locations being active; callers validate that first.
type Allocator struct {
	store       *Store
	maxAttempts int
}

func NewAllocator(store *Store, maxAttempts int) *Allocator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Allocator{store: store, maxAttempts: maxAttempts}
}

// Allocate finds and claims a credential for (locationID, planType). A
// credential lost to a concurrent claimer is excluded and the search repeats,
// up to maxAttempts times. Callers only ever see a claimed credential or
// ErrOutOfStock.
func (a *Allocator) Allocate(locationID string, planType model.PlanType, userID, purchaseID string, now time.Time) (model.Credential, error) {
	var lost []string
	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		c, ok := a.store.FindAvailable(locationID, planType, lost...)
		if !ok {
			break
		}
		claimed, err := a.store.MarkUsed(c.ID, userID, purchaseID, now)
		switch {
		case err == nil:
			metrics.IncAllocation("claimed")
			return claimed, nil
		case errors.Is(err, domain.ErrAlreadyUsed), errors.Is(err, domain.ErrNotFound):
			// taken or removed between find and claim
			metrics.IncAllocation("contended")
			lost = append(lost, c.ID)
		default:
			return model.Credential{}, err
		}
	}
	metrics.IncAllocation("out_of_stock")
	return model.Credential{}, domain.ErrOutOfStock
}

// Release undoes the claim purchaseID holds on the credential. It never
// frees a credential that has since passed to another purchase.
func (a *Allocator) Release(id, purchaseID string) error {
	return a.store.ReleaseClaim(id, purchaseID)
}

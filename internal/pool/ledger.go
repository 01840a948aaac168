package pool

import (
	"sync"

	"wifi-voucher/internal/domain"
	"wifi-voucher/internal/domain/model"
)

// Ledger keeps the purchase collection in append order.
type Ledger struct {
	mu    sync.RWMutex
	items []model.Purchase
	index map[string]int
}

func NewLedger(existing []model.Purchase) *Ledger {
	l := &Ledger{index: make(map[string]int, len(existing))}
	for _, p := range existing {
		if _, dup := l.index[p.ID]; dup {
			continue
		}
		l.index[p.ID] = len(l.items)
		l.items = append(l.items, p)
	}
	return l
}

// Add appends a purchase. Ids must be unique.
func (l *Ledger) Add(p model.Purchase) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.index[p.ID]; dup {
		return domain.ErrAlreadyExists
	}
	l.index[p.ID] = len(l.items)
	l.items = append(l.items, p)
	return nil
}

// Remove drops a purchase; used to undo an Add whose flush failed.
func (l *Ledger) Remove(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.index[id]
	if !ok {
		return domain.ErrNotFound
	}
	l.items = append(l.items[:i:i], l.items[i+1:]...)
	delete(l.index, id)
	for j := i; j < len(l.items); j++ {
		l.index[l.items[j].ID] = j
	}
	return nil
}

func (l *Ledger) Get(id string) (model.Purchase, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.index[id]
	if !ok {
		return model.Purchase{}, domain.ErrNotFound
	}
	return l.items[i], nil
}

// ListByUser returns the user's purchases, oldest first.
func (l *Ledger) ListByUser(userID string) []model.Purchase {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.Purchase, 0)
	for _, p := range l.items {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out
}

// Snapshot copies the whole collection.
func (l *Ledger) Snapshot() []model.Purchase {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]model.Purchase(nil), l.items...)
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

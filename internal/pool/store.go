// File: internal/pool/store.go
package pool

import (
	"slices"
	"sort"
	"sync"
	"time"

	"wifi-voucher/internal/domain"
	"wifi-voucher/internal/domain/model"

	"github.com/oklog/ulid/v2"
)

type poolKey struct {
	location string
	plan     model.PlanType
}

type loginKey struct {
	username string
	location string
}

// PoolStat counts credentials of one (location, plan type) pool.
type PoolStat struct {
	LocationID string         `json:"location_id"`
	PlanType   model.PlanType `json:"plan_type"`
	Available  int            `json:"available"`
	Used       int            `json:"used"`
}

// Store owns every credential record. All reads and writes go through mu, and
// MarkUsed decides and writes inside a single critical section, so two callers
// can never both move the same credential to used.
//
// Values handed out are copies; callers cannot mutate store state.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]*model.Credential
	order   []string             // insertion order across all pools
	byPool  map[poolKey][]string // insertion order per pool
	byLogin map[loginKey]string
	newID   func() string
}

// NewStore rebuilds a store from a loaded snapshot, keeping the given order.
// Entries whose login repeats an earlier one are dropped. A nil idgen uses ULIDs.
func NewStore(existing []model.Credential, idgen func() string) *Store {
	if idgen == nil {
		idgen = func() string { return ulid.Make().String() }
	}
	s := &Store{
		byID:    make(map[string]*model.Credential, len(existing)),
		order:   make([]string, 0, len(existing)),
		byPool:  make(map[poolKey][]string),
		byLogin: make(map[loginKey]string, len(existing)),
		newID:   idgen,
	}
	for _, c := range existing {
		lk := loginKey{c.Username, c.LocationID}
		if _, dup := s.byLogin[lk]; dup || c.ID == "" {
			continue
		}
		if _, dup := s.byID[c.ID]; dup {
			continue
		}
		cp := c.Clone()
		s.put(&cp)
	}
	return s
}

func (s *Store) put(c *model.Credential) {
	s.byID[c.ID] = c
	s.order = append(s.order, c.ID)
	k := poolKey{c.LocationID, c.PlanType}
	s.byPool[k] = append(s.byPool[k], c.ID)
	s.byLogin[loginKey{c.Username, c.LocationID}] = c.ID
}

// Insert adds each entry as an available credential. Entries whose
// (username, location) already exists, in the store or earlier in the same
// batch, are skipped. It returns the ids of the inserted credentials.
func (s *Store) Insert(batch []model.CredentialInput, now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(batch))
	for _, in := range batch {
		if _, dup := s.byLogin[loginKey{in.Username, in.LocationID}]; dup {
			continue
		}
		c := &model.Credential{
			ID:         s.newID(),
			Username:   in.Username,
			Password:   in.Password,
			LocationID: in.LocationID,
			PlanType:   in.PlanType,
			Status:     model.CredentialAvailable,
			CreatedAt:  now,
		}
		s.put(c)
		ids = append(ids, c.ID)
	}
	return ids
}

// FindAvailable returns the earliest inserted available credential for the
// pool, skipping the excluded ids.
func (s *Store) FindAvailable(locationID string, planType model.PlanType, exclude ...string) (model.Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.byPool[poolKey{locationID, planType}] {
		if slices.Contains(exclude, id) {
			continue
		}
		if c := s.byID[id]; c.IsAvailable() {
			return c.Clone(), true
		}
	}
	return model.Credential{}, false
}

// MarkUsed claims the credential for a purchase. It fails with ErrNotFound for
// an unknown id and ErrAlreadyUsed when someone else holds it; a failed call
// leaves the record untouched.
func (s *Store) MarkUsed(id, userID, purchaseID string, now time.Time) (model.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[id]
	if !ok {
		return model.Credential{}, domain.ErrNotFound
	}
	if !c.IsAvailable() {
		return model.Credential{}, domain.ErrAlreadyUsed
	}
	c.Assign(userID, purchaseID, now)
	return c.Clone(), nil
}

// Release puts a credential back into its pool and clears the assignment.
// It returns the record as it was before the call.
func (s *Store) Release(id string) (model.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[id]
	if !ok {
		return model.Credential{}, domain.ErrNotFound
	}
	prev := c.Clone()
	c.Clear()
	return prev, nil
}

// ReleaseClaim undoes one allocation. The credential returns to its pool only
// while purchaseID still holds it; a credential that has since been released
// and claimed again is left alone and ErrStateChanged is returned.
func (s *Store) ReleaseClaim(id, purchaseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	if c.AssignedPurchaseID == nil || *c.AssignedPurchaseID != purchaseID {
		return domain.ErrStateChanged
	}
	c.Clear()
	return nil
}

// Remove deletes a credential regardless of status and returns it. Purchases
// that reference it keep their embedded copy of the login.
func (s *Store) Remove(id string) (model.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[id]
	if !ok {
		return model.Credential{}, domain.ErrNotFound
	}
	s.drop(c)
	return c.Clone(), nil
}

// RemoveIfAvailable deletes a credential only while nobody holds it.
func (s *Store) RemoveIfAvailable(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	if !c.IsAvailable() {
		return domain.ErrAlreadyUsed
	}
	s.drop(c)
	return nil
}

func (s *Store) drop(c *model.Credential) {
	delete(s.byID, c.ID)
	delete(s.byLogin, loginKey{c.Username, c.LocationID})
	s.order = without(s.order, c.ID)
	k := poolKey{c.LocationID, c.PlanType}
	if rest := without(s.byPool[k], c.ID); len(rest) > 0 {
		s.byPool[k] = rest
	} else {
		delete(s.byPool, k)
	}
}

// Revert undoes an admin Release or Remove whose flush failed, putting prev
// back. It only acts while the record is still in the state that change left
// behind: released (available, unassigned) or, when removed is set, absent.
// Anything else means another operation has taken over the credential, and
// ErrStateChanged is returned without touching it.
func (s *Store) Revert(prev model.Credential, removed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.byID[prev.ID]
	if removed {
		if ok {
			return domain.ErrStateChanged
		}
		if _, taken := s.byLogin[loginKey{prev.Username, prev.LocationID}]; taken {
			return domain.ErrAlreadyExists
		}
		cp := prev.Clone()
		s.put(&cp)
		return nil
	}
	if !ok {
		return domain.ErrNotFound
	}
	if !cur.IsAvailable() || cur.AssignedPurchaseID != nil {
		return domain.ErrStateChanged
	}
	cp := prev.Clone()
	cur.Status = cp.Status
	cur.AssignedUserID = cp.AssignedUserID
	cur.AssignedPurchaseID = cp.AssignedPurchaseID
	cur.AssignedAt = cp.AssignedAt
	return nil
}

// Get returns a copy of one credential.
func (s *Store) Get(id string) (model.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byID[id]
	if !ok {
		return model.Credential{}, domain.ErrNotFound
	}
	return c.Clone(), nil
}

// ListByLocation returns the location's credentials in insertion order.
// An empty planType lists every tier.
func (s *Store) ListByLocation(locationID string, planType model.PlanType) []model.Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Credential, 0)
	for _, id := range s.order {
		c := s.byID[id]
		if c.LocationID != locationID {
			continue
		}
		if planType != "" && c.PlanType != planType {
			continue
		}
		out = append(out, c.Clone())
	}
	return out
}

// Snapshot copies every credential in insertion order.
func (s *Store) Snapshot() []model.Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Credential, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Clone())
	}
	return out
}

// Len reports the total number of credentials.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Stats counts credentials per pool, sorted by location then plan type.
func (s *Store) Stats() []PoolStat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]PoolStat, 0, len(s.byPool))
	for k, ids := range s.byPool {
		st := PoolStat{LocationID: k.location, PlanType: k.plan}
		for _, id := range ids {
			if s.byID[id].IsAvailable() {
				st.Available++
			} else {
				st.Used++
			}
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LocationID != out[j].LocationID {
			return out[i].LocationID < out[j].LocationID
		}
		return out[i].PlanType < out[j].PlanType
	})
	return out
}

func without(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

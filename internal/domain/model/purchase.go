package model

import "time"

type PurchaseStatus string

const (
	PurchaseActive  PurchaseStatus = "active"
	PurchaseExpired PurchaseStatus = "expired" // projection only, never stored
	PurchaseUsed    PurchaseStatus = "used"    // data allotment exhausted
)

// AccessCredentials is the purchase's own copy of the login it was sold.
type AccessCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Purchase records one successful allocation. Amount and ExpiresAt are frozen at creation.
type Purchase struct {
	ID           string            `json:"id"`
	UserID       string            `json:"user_id"`
	PlanID       string            `json:"plan_id"`
	LocationID   string            `json:"location_id"`
	CredentialID string            `json:"credential_id"`
	Amount       int64             `json:"amount"`
	PurchasedAt  time.Time         `json:"purchased_at"`
	ExpiresAt    time.Time         `json:"expires_at"`
	Credentials  AccessCredentials `json:"credentials"`
	Status       PurchaseStatus    `json:"status"`
}

// StatusAt derives the status visible at now. Only active and used are ever persisted.
func (p Purchase) StatusAt(now time.Time) PurchaseStatus {
	if p.Status == PurchaseUsed {
		return PurchaseUsed
	}
	if !now.Before(p.ExpiresAt) {
		return PurchaseExpired
	}
	return PurchaseActive
}

// View returns a copy with the derived status filled in.
func (p Purchase) View(now time.Time) Purchase {
	p.Status = p.StatusAt(now)
	return p
}

// PurchaseFilter narrows an admin listing. Zero fields match everything.
type PurchaseFilter struct {
	LocationID string
	// Day is a UTC calendar day; purchases made on it match.
	Day time.Time
}

func (f PurchaseFilter) Match(p Purchase) bool {
	if f.LocationID != "" && p.LocationID != f.LocationID {
		return false
	}
	if !f.Day.IsZero() {
		y, m, d := f.Day.UTC().Date()
		start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		at := p.PurchasedAt.UTC()
		if at.Before(start) || !at.Before(start.AddDate(0, 0, 1)) {
			return false
		}
	}
	return true
}

// PurchaseSummary totals a listing in minor units. AverageOrder rounds down.
type PurchaseSummary struct {
	Count        int   `json:"count"`
	Revenue      int64 `json:"revenue"`
	AverageOrder int64 `json:"average_order"`
}

type PurchaseReport struct {
	Purchases []Purchase      `json:"purchases"`
	Summary   PurchaseSummary `json:"summary"`
}

// Summarize totals ps.
func Summarize(ps []Purchase) PurchaseSummary {
	s := PurchaseSummary{Count: len(ps)}
	for _, p := range ps {
		s.Revenue += p.Amount
	}
	if s.Count > 0 {
		s.AverageOrder = s.Revenue / int64(s.Count)
	}
	return s
}

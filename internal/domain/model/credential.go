package model

import (
	"time"
)

type CredentialStatus string

const (
	CredentialAvailable CredentialStatus = "available"
	CredentialUsed      CredentialStatus = "used"
)

// Credential is a single-use login valid at one location for one plan tier.
// A used credential always carries both assignment ids; an available one carries none.
type Credential struct {
	ID                 string           `json:"id"`
	Username           string           `json:"username"`
	Password           string           `json:"password"`
	LocationID         string           `json:"location_id"`
	PlanType           PlanType         `json:"plan_type"`
	Status             CredentialStatus `json:"status"`
	AssignedUserID     *string          `json:"assigned_user_id,omitempty"`     // Pointer to allow for NULL
	AssignedPurchaseID *string          `json:"assigned_purchase_id,omitempty"` // Pointer to allow for NULL
	AssignedAt         *time.Time       `json:"assigned_at,omitempty"`          // Pointer to allow for NULL
	CreatedAt          time.Time        `json:"created_at"`
}

// CredentialInput is one entry of a bulk provisioning batch.
type CredentialInput struct {
	Username   string
	Password   string
	LocationID string
	PlanType   PlanType
}

func (c *Credential) IsAvailable() bool { return c.Status == CredentialAvailable }

// Assign moves the credential to used and records who holds it.
func (c *Credential) Assign(userID, purchaseID string, at time.Time) {
	c.Status = CredentialUsed
	c.AssignedUserID = &userID
	c.AssignedPurchaseID = &purchaseID
	c.AssignedAt = &at
}

// Clear returns the credential to the pool.
func (c *Credential) Clear() {
	c.Status = CredentialAvailable
	c.AssignedUserID = nil
	c.AssignedPurchaseID = nil
	c.AssignedAt = nil
}

// Consistent reports whether status and assignment fields agree.
func (c *Credential) Consistent() bool {
	switch c.Status {
	case CredentialUsed:
		return c.AssignedUserID != nil && c.AssignedPurchaseID != nil
	case CredentialAvailable:
		return c.AssignedUserID == nil && c.AssignedPurchaseID == nil && c.AssignedAt == nil
	}
	return false
}

// Clone returns a deep copy so callers never alias store-owned pointers.
func (c Credential) Clone() Credential {
	out := c
	if c.AssignedUserID != nil {
		v := *c.AssignedUserID
		out.AssignedUserID = &v
	}
	if c.AssignedPurchaseID != nil {
		v := *c.AssignedPurchaseID
		out.AssignedPurchaseID = &v
	}
	if c.AssignedAt != nil {
		v := *c.AssignedAt
		out.AssignedAt = &v
	}
	return out
}

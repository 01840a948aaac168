package model

import (
	"wifi-voucher/internal/domain"
)

// PlanType is the tier of a voucher. It selects the credential pool and the expiry offset.
type PlanType string

const (
	PlanThreeHour PlanType = "3-hour"
	PlanDaily     PlanType = "daily"
	PlanWeekly    PlanType = "weekly"
	PlanMonthly   PlanType = "monthly"
)

// PlanTypes lists every known tier in display order.
var PlanTypes = []PlanType{PlanThreeHour, PlanDaily, PlanWeekly, PlanMonthly}

func (t PlanType) Valid() bool {
	switch t {
	case PlanThreeHour, PlanDaily, PlanWeekly, PlanMonthly:
		return true
	}
	return false
}

// ParsePlanType validates a raw plan type string.
func ParsePlanType(s string) (PlanType, error) {
	t := PlanType(s)
	if !t.Valid() {
		return "", domain.ErrInvalidArgument
	}
	return t, nil
}

// Plan is immutable reference data describing a purchasable voucher.
// Price is kept in minor currency units to avoid float rounding.
type Plan struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Duration   string   `json:"duration"`
	Price      int64    `json:"price"`
	DataAmount string   `json:"data_amount"`
	Type       PlanType `json:"type"`
	Popular    bool     `json:"popular,omitempty"`
}

func (p *Plan) IsZero() bool { return p == nil || p.ID == "" }

// NewPlan validates and constructs a plan.
func NewPlan(id, name, duration string, price int64, dataAmount string, typ PlanType, popular bool) (*Plan, error) {
	if id == "" || name == "" || price <= 0 || !typ.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	return &Plan{
		ID:         id,
		Name:       name,
		Duration:   duration,
		Price:      price,
		DataAmount: dataAmount,
		Type:       typ,
		Popular:    popular,
	}, nil
}

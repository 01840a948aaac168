package model

import (
	"time"

	"wifi-voucher/internal/domain"
)

// ComputeExpiry maps a plan type and purchase instant to the instant the voucher stops
// being valid. It reads no clock; the result depends only on its arguments.
//
// Calendar arithmetic runs in UTC whatever the zone of at, so a daily voucher is
// always exactly 24h and a result is returned in UTC. Monthly vouchers keep the
// day of month, clamped to the last day of the target month, so Jan 31 expires on
// Feb 28 (Feb 29 in leap years) rather than rolling into March.
func ComputeExpiry(t PlanType, at time.Time) (time.Time, error) {
	at = at.UTC()
	switch t {
	case PlanThreeHour:
		return at.Add(3 * time.Hour), nil
	case PlanDaily:
		return at.AddDate(0, 0, 1), nil
	case PlanWeekly:
		return at.AddDate(0, 0, 7), nil
	case PlanMonthly:
		return addMonthClamped(at), nil
	}
	return time.Time{}, domain.ErrInvalidArgument
}

func addMonthClamped(at time.Time) time.Time {
	y, m, d := at.Date()
	// day 0 of the month after next is the last day of next month
	last := time.Date(y, m+2, 0, 0, 0, 0, 0, at.Location()).Day()
	if d > last {
		d = last
	}
	return time.Date(y, m+1, d, at.Hour(), at.Minute(), at.Second(), at.Nanosecond(), at.Location())
}

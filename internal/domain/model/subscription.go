package model

import (
	"time"

	"spotsong-billing/internal/domain"
)

// Subscription is one purchased entitlement window. Rows are immutable after
// insert; renewing stacks a new row onto the active one's end instead of
// touching it.
type Subscription struct {
	ID                string
	StartAt           time.Time
	EndAt             time.Time
	PurchaseDate      time.Time
	PlanID            string
	ConsumerPrincipal string
}

// ActiveAt reports whether the window covers the given instant.
func (s *Subscription) ActiveAt(now time.Time) bool {
	return !s.StartAt.After(now) && !s.EndAt.Before(now)
}

// StackedWindow computes the window for a new purchase. activeEnd is the end
// of the consumer's currently active subscription, or the zero time when none
// is active; renewing before expiry keeps the unused days, renewing after
// expiry starts fresh from now.
func StackedWindow(activeEnd time.Time, now time.Time, plan *Plan) (start, end time.Time) {
	start = now
	if activeEnd.After(now) {
		start = activeEnd
	}
	return start, start.Add(plan.Duration())
}

// NewSubscription validates and constructs a subscription row for a purchase
// made at now with the given window.
func NewSubscription(id, principal string, plan *Plan, start, end, now time.Time) (*Subscription, error) {
	if id == "" || principal == "" || plan.IsZero() || !end.After(start) {
		return nil, domain.ErrInvalidArgument
	}
	return &Subscription{
		ID:                id,
		StartAt:           start,
		EndAt:             end,
		PurchaseDate:      now,
		PlanID:            plan.ID,
		ConsumerPrincipal: principal,
	}, nil
}

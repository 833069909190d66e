package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"spotsong-billing/internal/domain"
)

// Draw is one planned deduction from one card.
type Draw struct {
	Card   *Card
	Amount decimal.Decimal
}

// Posting is the persisted record of a Draw, bound to the subscription the
// value funded. One row per drawn card per purchase.
type Posting struct {
	ID             string
	Cost           decimal.Decimal
	CardID         string
	SubscriptionID string
}

// BuildDrawPlan computes how a price is covered from a set of candidate cards.
// Cards are consumed soonest-to-expire first so the consumer wastes as little
// expiring balance as possible; ties on expiry break by card id so the plan is
// deterministic. The walk stops as soon as the price is covered.
//
// The result is a scratch plan only: no card is mutated here. If the eligible
// balance cannot cover the price the whole plan is rejected with
// ErrInsufficientFunds and the caller must apply nothing.
func BuildDrawPlan(cards []*Card, price decimal.Decimal, now time.Time) ([]Draw, error) {
	if price.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	eligible := make([]*Card, 0, len(cards))
	for _, c := range cards {
		if c.Eligible(now) {
			eligible = append(eligible, c)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		if !eligible[i].Expire.Equal(eligible[j].Expire) {
			return eligible[i].Expire.Before(eligible[j].Expire)
		}
		return eligible[i].ID < eligible[j].ID
	})

	remaining := price
	var plan []Draw
	for _, c := range eligible {
		if remaining.IsZero() {
			break
		}
		draw := decimal.Min(c.Balance, remaining)
		plan = append(plan, Draw{Card: c, Amount: draw})
		remaining = remaining.Sub(draw)
	}
	if remaining.IsPositive() {
		return nil, domain.ErrInsufficientFunds
	}
	return plan, nil
}

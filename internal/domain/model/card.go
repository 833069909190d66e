package model

import (
	"time"

	"github.com/shopspring/decimal"

	"spotsong-billing/internal/domain"
)

// CardValidityDays is the redemption window granted at issue time.
const CardValidityDays = 30

// Denominations lists the only face values a card may be issued with.
var Denominations = []int64{10, 25, 50}

// Card is a prepaid gift card. Balance starts at the face value and only ever
// decreases; the row is never deleted so drained cards remain as audit trail.
type Card struct {
	ID               string
	Code             string
	FaceValue        decimal.Decimal
	Expire           time.Time
	Balance          decimal.Decimal
	IssuingPrincipal string
}

// Eligible reports whether the card may fund a settlement at the given instant.
func (c *Card) Eligible(now time.Time) bool {
	return !c.Expire.Before(now) && c.Balance.IsPositive()
}

// ValidDenomination reports whether v is an issuable face value.
func ValidDenomination(v int64) bool {
	for _, d := range Denominations {
		if v == d {
			return true
		}
	}
	return false
}

// NewCard constructs a card with a full balance and a 30-day expiry.
func NewCard(id, code string, faceValue int64, issuedAt time.Time, issuingPrincipal string) (*Card, error) {
	if id == "" || code == "" || issuingPrincipal == "" {
		return nil, domain.ErrInvalidArgument
	}
	if !ValidDenomination(faceValue) {
		return nil, domain.ErrInvalidAmount
	}
	fv := decimal.NewFromInt(faceValue)
	return &Card{
		ID:               id,
		Code:             code,
		FaceValue:        fv,
		Expire:           issuedAt.Add(CardValidityDays * 24 * time.Hour),
		Balance:          fv,
		IssuingPrincipal: issuingPrincipal,
	}, nil
}

package model

import (
	"time"

	"github.com/shopspring/decimal"

	"spotsong-billing/internal/domain"
)

// Plan is one pricing version of a named subscription tier. Re-pricing a tier
// inserts a new row; existing rows are never updated, so the history of what
// any purchase was charged stays reconstructible.
type Plan struct {
	ID            string
	Name          string
	Price         decimal.Decimal
	DaysPeriod    int
	EffectiveFrom time.Time
}

func (p *Plan) IsZero() bool { return p == nil || p.ID == "" }

// Duration is the entitlement window length this plan grants.
func (p *Plan) Duration() time.Duration {
	return time.Duration(p.DaysPeriod) * 24 * time.Hour
}

// NewPlan validates and constructs a plan version.
func NewPlan(id, name string, price decimal.Decimal, daysPeriod int, effectiveFrom time.Time) (*Plan, error) {
	if id == "" || name == "" || daysPeriod <= 0 || price.IsNegative() || effectiveFrom.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	return &Plan{
		ID:            id,
		Name:          name,
		Price:         price,
		DaysPeriod:    daysPeriod,
		EffectiveFrom: effectiveFrom,
	}, nil
}

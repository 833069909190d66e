package repository

import (
	"context"
	"time"

	"spotsong-billing/internal/domain/model"
)

// PlanRepository stores pricing versions. Rows are append-only: Save inserts a
// new version and never rewrites a superseded one.
type PlanRepository interface {
	Save(ctx context.Context, tx Tx, plan *model.Plan) error
	// ResolveAt returns the version of the named tier that was effective at
	// asOf: the row with the latest effective_from <= asOf. ErrNotFound when
	// the tier is unknown or not yet effective.
	ResolveAt(ctx context.Context, tx Tx, name string, asOf time.Time) (*model.Plan, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Plan, error)
}

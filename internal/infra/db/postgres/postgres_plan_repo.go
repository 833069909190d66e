package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"spotsong-billing/internal/domain"
	"spotsong-billing/internal/domain/model"
	"spotsong-billing/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.PlanRepository = (*planRepo)(nil)

type planRepo struct {
	pool *pgxpool.Pool
}

func NewPlanRepo(pool *pgxpool.Pool) *planRepo {
	return &planRepo{pool: pool}
}

// Save appends a pricing version. There is deliberately no ON CONFLICT update:
// superseded versions stay untouched.
func (r *planRepo) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	const q = `
INSERT INTO plans (id, name, price, days_period, effective_from)
VALUES ($1, $2, $3::numeric, $4, $5);`

	_, err := execSQL(ctx, r.pool, tx, q,
		plan.ID, plan.Name, plan.Price.String(), plan.DaysPeriod, plan.EffectiveFrom,
	)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
			return err
		case isUniqueViolation(err):
			return domain.ErrConflict
		default:
			return domain.ErrStorageFailure
		}
	}
	return nil
}

func (r *planRepo) ResolveAt(ctx context.Context, tx repository.Tx, name string, asOf time.Time) (*model.Plan, error) {
	const q = `
SELECT id, name, price::text, days_period, effective_from
  FROM plans
 WHERE name = $1 AND effective_from <= $2
 ORDER BY effective_from DESC
 LIMIT 1;`

	row, err := pickRow(ctx, r.pool, tx, q, name, asOf)
	if err != nil {
		return nil, err
	}
	return scanPlan(row)
}

func (r *planRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	const q = `
SELECT id, name, price::text, days_period, effective_from
  FROM plans
 ORDER BY name, effective_from;`

	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
			return nil, err
		default:
			return nil, domain.ErrStorageFailure
		}
	}
	defer rows.Close()

	var out []*model.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanPlan(row pgx.Row) (*model.Plan, error) {
	var (
		p        model.Plan
		priceStr string
	)
	if err := row.Scan(&p.ID, &p.Name, &priceStr, &p.DaysPeriod, &p.EffectiveFrom); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	p.Price = price
	return &p, nil
}

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"spotsong-billing/internal/domain"
	"spotsong-billing/internal/domain/model"
	"spotsong-billing/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

// Insert persists one purchased window. Subscriptions are immutable, so there
// is no update path.
func (r *subscriptionRepo) Insert(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (id, start_at, end_at, purchase_date, plan_id, consumer_principal)
VALUES ($1, $2, $3, $4, $5, $6);`

	_, err := execSQL(ctx, r.pool, tx, q,
		s.ID, s.StartAt, s.EndAt, s.PurchaseDate, s.PlanID, s.ConsumerPrincipal,
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

func (r *subscriptionRepo) FindLatestActive(ctx context.Context, tx repository.Tx, principal string, now time.Time) (*model.Subscription, error) {
	const q = `
SELECT id, start_at, end_at, purchase_date, plan_id, consumer_principal
  FROM subscriptions
 WHERE consumer_principal = $1 AND end_at >= $2
 ORDER BY end_at DESC
 LIMIT 1;`

	row, err := pickRow(ctx, r.pool, tx, q, principal, now)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

func (r *subscriptionRepo) ListByConsumer(ctx context.Context, tx repository.Tx, principal string) ([]*model.Subscription, error) {
	const q = `
SELECT id, start_at, end_at, purchase_date, plan_id, consumer_principal
  FROM subscriptions
 WHERE consumer_principal = $1
 ORDER BY start_at ASC;`

	rows, err := queryRows(ctx, r.pool, tx, q, principal)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
			return nil, err
		default:
			return nil, domain.ErrStorageFailure
		}
	}
	defer rows.Close()

	var out []*model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	var s model.Subscription
	if err := row.Scan(&s.ID, &s.StartAt, &s.EndAt, &s.PurchaseDate, &s.PlanID, &s.ConsumerPrincipal); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &s, nil
}

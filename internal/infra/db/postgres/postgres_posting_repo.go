package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"spotsong-billing/internal/domain"
	"spotsong-billing/internal/domain/model"
	"spotsong-billing/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.PostingRepository = (*postingRepo)(nil)

type postingRepo struct {
	pool *pgxpool.Pool
}

func NewPostingRepo(pool *pgxpool.Pool) *postingRepo {
	return &postingRepo{pool: pool}
}

func (r *postingRepo) InsertBatch(ctx context.Context, tx repository.Tx, postings []*model.Posting) error {
	const q = `
INSERT INTO card_postings (id, cost, card_id, subscription_id)
VALUES ($1, $2::numeric, $3, $4);`

	for _, p := range postings {
		_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Cost.String(), p.CardID, p.SubscriptionID)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
				return err
			default:
				return domain.ErrStorageFailure
			}
		}
	}
	return nil
}

func (r *postingRepo) ListBySubscription(ctx context.Context, tx repository.Tx, subscriptionID string) ([]*model.Posting, error) {
	const q = `
SELECT id, cost::text, card_id, subscription_id
  FROM card_postings
 WHERE subscription_id = $1
 ORDER BY id;`

	rows, err := queryRows(ctx, r.pool, tx, q, subscriptionID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
			return nil, err
		default:
			return nil, domain.ErrStorageFailure
		}
	}
	defer rows.Close()

	var out []*model.Posting
	for rows.Next() {
		p, err := scanPosting(rows)
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

func (r *postingRepo) SumByCard(ctx context.Context, tx repository.Tx, cardID string) (decimal.Decimal, error) {
	const q = `SELECT COALESCE(SUM(cost), 0)::text FROM card_postings WHERE card_id = $1;`

	row, err := pickRow(ctx, r.pool, tx, q, cardID)
	if err != nil {
		return decimal.Zero, err
	}
	var sumStr string
	if err := row.Scan(&sumStr); err != nil {
		return decimal.Zero, domain.ErrReadDatabaseRow
	}
	sum, err := decimal.NewFromString(sumStr)
	if err != nil {
		return decimal.Zero, domain.ErrReadDatabaseRow
	}
	return sum, nil
}

func scanPosting(row pgx.Row) (*model.Posting, error) {
	var (
		p       model.Posting
		costStr string
	)
	if err := row.Scan(&p.ID, &costStr, &p.CardID, &p.SubscriptionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	cost, err := decimal.NewFromString(costStr)
	if err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	p.Cost = cost
	return &p, nil
}

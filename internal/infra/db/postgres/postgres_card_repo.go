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
var _ repository.CardRepository = (*cardRepo)(nil)

type cardRepo struct {
	pool *pgxpool.Pool
}

func NewCardRepo(pool *pgxpool.Pool) *cardRepo {
	return &cardRepo{pool: pool}
}

// Insert creates one card. The UNIQUE constraint on code is the collision
// authority; DO NOTHING keeps the enclosing transaction healthy on a
// collision, and the zero rowcount surfaces as ErrConflict so issuance can
// retry the unit with a fresh code.
func (r *cardRepo) Insert(ctx context.Context, tx repository.Tx, card *model.Card) error {
	const q = `
INSERT INTO cards (id, code, face_value, expire, balance, issuing_principal)
VALUES ($1, $2, $3::numeric, $4, $5::numeric, $6)
ON CONFLICT (code) DO NOTHING;`

	ct, err := execSQL(ctx, r.pool, tx, q,
		card.ID, card.Code, card.FaceValue.String(), card.Expire, card.Balance.String(), card.IssuingPrincipal,
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
	if ct.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// FindEligibleByCodes loads the candidate cards that can fund a settlement at
// now, in the order settlement consumes them. Inside a transaction the rows
// are locked FOR UPDATE; the table-level settlement guard already excludes
// concurrent purchases, the row lock additionally fences issuance-side reads.
func (r *cardRepo) FindEligibleByCodes(ctx context.Context, tx repository.Tx, codes []string, now time.Time) ([]*model.Card, error) {
	q := `
SELECT id, code, face_value::text, expire, balance::text, issuing_principal
  FROM cards
 WHERE code = ANY($1) AND expire >= $2 AND balance > 0
 ORDER BY expire ASC, id ASC`
	if _, ok := tx.(pgx.Tx); ok {
		q += "\n   FOR UPDATE"
	}
	q += ";"

	rows, err := queryRows(ctx, r.pool, tx, q, codes, now)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
			return nil, err
		default:
			return nil, domain.ErrStorageFailure
		}
	}
	defer rows.Close()

	var out []*model.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

// Deduct lowers one card's balance. The WHERE clause re-checks coverage; with
// the settlement guard held a miss means the draw plan and the stored balance
// disagree, which is a storage-level fault, not a business outcome.
func (r *cardRepo) Deduct(ctx context.Context, tx repository.Tx, cardID string, amount decimal.Decimal) error {
	const q = `
UPDATE cards
   SET balance = balance - $2::numeric
 WHERE id = $1 AND balance >= $2::numeric;`

	ct, err := execSQL(ctx, r.pool, tx, q, cardID, amount.String())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
			return err
		default:
			return domain.ErrStorageFailure
		}
	}
	if ct.RowsAffected() != 1 {
		return domain.ErrStorageFailure
	}
	return nil
}

func (r *cardRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Card, error) {
	const q = `
SELECT id, code, face_value::text, expire, balance::text, issuing_principal
  FROM cards
 WHERE code = $1;`

	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}
	return scanCard(row)
}

func scanCard(row pgx.Row) (*model.Card, error) {
	var (
		c          model.Card
		faceStr    string
		balanceStr string
	)
	if err := row.Scan(&c.ID, &c.Code, &faceStr, &c.Expire, &balanceStr, &c.IssuingPrincipal); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	face, err := decimal.NewFromString(faceStr)
	if err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	c.FaceValue = face
	c.Balance = balance
	return &c, nil
}

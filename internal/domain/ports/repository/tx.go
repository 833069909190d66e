package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager provides a thin abstraction to execute a function within a
// database transaction, passing the underlying transaction handle via `tx`.
//
// Repositories accept the same handle and fall back to the pool when given nil,
// so use-case code can run the same calls inside or outside a transaction.
// The concrete type of `tx` is infra-defined (pgx.Tx for Postgres).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}

// SettlementGuard serializes purchase settlements. Acquire must be called on a
// transaction handle right after the transaction opens; the exclusive access it
// grants lasts until that transaction commits or rolls back, so it is released
// on every exit path.
type SettlementGuard interface {
	Acquire(ctx context.Context, tx Tx) error
}

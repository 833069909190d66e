package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"

	"spotsong-billing/internal/domain"
	"spotsong-billing/internal/domain/ports/repository"
)

var _ repository.SettlementGuard = (*settlementGuard)(nil)

// settlementGuard takes an exclusive table lock over cards and subscriptions
// for the duration of the enclosing transaction. The active-subscription read
// and the eligible-card read must not see a snapshot another purchase is about
// to invalidate, so the lock is table-level rather than per row: redemption is
// a low-frequency path and correctness wins over throughput here.
type settlementGuard struct{}

func NewSettlementGuard() repository.SettlementGuard {
	return &settlementGuard{}
}

// Acquire blocks until every in-flight settlement transaction has finished.
// Postgres releases the lock automatically at commit or rollback.
func (g *settlementGuard) Acquire(ctx context.Context, tx repository.Tx) error {
	handle, ok := tx.(pgx.Tx)
	if !ok {
		// A table lock outside a transaction would be released immediately.
		return domain.ErrInvalidExecContext
	}
	if _, err := handle.Exec(ctx, "LOCK TABLE cards, subscriptions IN ACCESS EXCLUSIVE MODE"); err != nil {
		return fmt.Errorf("acquire settlement lock: %w", err)
	}
	return nil
}

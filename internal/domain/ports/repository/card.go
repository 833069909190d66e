package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"spotsong-billing/internal/domain/model"
)

// CardRepository stores prepaid cards. Cards are inserted by issuance and have
// their balance decremented by settlement; they are never deleted.
type CardRepository interface {
	// Insert creates one card. A duplicate code surfaces as ErrConflict.
	Insert(ctx context.Context, tx Tx, card *model.Card) error
	// FindEligibleByCodes loads the candidate cards that may fund a settlement
	// at now (unexpired, positive balance), ordered by expire then id, locked
	// for update when run inside a transaction.
	FindEligibleByCodes(ctx context.Context, tx Tx, codes []string, now time.Time) ([]*model.Card, error)
	// Deduct lowers a card's balance by amount. The update is conditional on
	// the balance still covering the amount; a miss reports ErrStorageFailure
	// since the settlement guard should have made that impossible.
	Deduct(ctx context.Context, tx Tx, cardID string, amount decimal.Decimal) error
	FindByCode(ctx context.Context, tx Tx, code string) (*model.Card, error)
}

package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"spotsong-billing/internal/domain/model"
)

// PostingRepository stores the immutable funding records of settlements.
type PostingRepository interface {
	InsertBatch(ctx context.Context, tx Tx, postings []*model.Posting) error
	ListBySubscription(ctx context.Context, tx Tx, subscriptionID string) ([]*model.Posting, error)
	// SumByCard totals everything ever drawn from one card, for audit against
	// face_value - balance.
	SumByCard(ctx context.Context, tx Tx, cardID string) (decimal.Decimal, error)
}

package repository

import (
	"context"
	"time"

	"spotsong-billing/internal/domain/model"
)

// SubscriptionRepository stores purchased entitlement windows. Rows are
// immutable once inserted.
type SubscriptionRepository interface {
	Insert(ctx context.Context, tx Tx, sub *model.Subscription) error
	// FindLatestActive returns the consumer's subscription with the greatest
	// end among rows with end >= now, which anchors stacking for the next
	// purchase. ErrNotFound when no window is active.
	FindLatestActive(ctx context.Context, tx Tx, principal string, now time.Time) (*model.Subscription, error)
	ListByConsumer(ctx context.Context, tx Tx, principal string) ([]*model.Subscription, error)
}

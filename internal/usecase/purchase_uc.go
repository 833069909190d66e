package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"spotsong-billing/internal/domain"
	"spotsong-billing/internal/domain/model"
	"spotsong-billing/internal/domain/ports/repository"
	"spotsong-billing/internal/infra/metrics"
)

// PurchaseUseCase settles a subscription purchase against a consumer's prepaid
// cards. Plan resolution, the active-window read, the card draws and all writes
// happen inside one transaction under the settlement guard, so concurrent
// purchases are totally ordered and any failure rolls the whole unit back.
type PurchaseUseCase struct {
	plans    repository.PlanRepository
	cards    repository.CardRepository
	subs     repository.SubscriptionRepository
	postings repository.PostingRepository
	guard    repository.SettlementGuard
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewPurchaseUseCase(
	plans repository.PlanRepository,
	cards repository.CardRepository,
	subs repository.SubscriptionRepository,
	postings repository.PostingRepository,
	guard repository.SettlementGuard,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *PurchaseUseCase {
	return &PurchaseUseCase{
		plans:    plans,
		cards:    cards,
		subs:     subs,
		postings: postings,
		guard:    guard,
		tm:       tm,
		log:      logger,
	}
}

// Purchase buys the named plan for the principal, funding it from the
// candidate cards. Returns the new subscription id, ErrNotFound when the plan
// has no effective pricing at now, or ErrInsufficientFunds when the eligible
// card balance cannot cover the price.
func (uc *PurchaseUseCase) Purchase(ctx context.Context, principal, planName string, candidateCodes []string, now time.Time) (string, error) {
	// Input validation happens before any storage is touched.
	if principal == "" || planName == "" || len(candidateCodes) == 0 {
		return "", domain.ErrInvalidArgument
	}

	var subID string
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := uc.guard.Acquire(ctx, tx); err != nil {
			return err
		}
		return uc.settle(ctx, tx, principal, planName, candidateCodes, now, &subID)
	})
	if err != nil {
		metrics.IncSettlement(outcomeLabel(err))
		uc.log.Warn().Err(err).
			Str("principal", principal).
			Str("plan", planName).
			Msg("purchase failed")
		return "", err
	}

	metrics.IncSettlement("success")
	uc.log.Info().
		Str("principal", principal).
		Str("plan", planName).
		Str("subscription_id", subID).
		Msg("purchase settled")
	return subID, nil
}

// settle runs steps 2-5 of the purchase inside the locked transaction.
func (uc *PurchaseUseCase) settle(ctx context.Context, tx repository.Tx, principal, planName string, candidateCodes []string, now time.Time, subID *string) error {
	// Price is fixed at the instant settlement begins, inside this
	// transaction, so a re-pricing committed mid-flight cannot apply.
	plan, err := uc.plans.ResolveAt(ctx, tx, planName, now)
	if err != nil {
		return err
	}

	// Stacking anchor: the active window with the greatest end, if any.
	var activeEnd time.Time
	active, err := uc.subs.FindLatestActive(ctx, tx, principal, now)
	switch {
	case err == nil:
		activeEnd = active.EndAt
	case errors.Is(err, domain.ErrNotFound):
		// no active subscription, the window starts now
	default:
		return err
	}
	start, end := model.StackedWindow(activeEnd, now, plan)

	cards, err := uc.cards.FindEligibleByCodes(ctx, tx, candidateCodes, now)
	if err != nil {
		return err
	}
	draws, err := model.BuildDrawPlan(cards, plan.Price, now)
	if err != nil {
		return err
	}

	sub, err := model.NewSubscription(uuid.NewString(), principal, plan, start, end, now)
	if err != nil {
		return err
	}
	if err := uc.subs.Insert(ctx, tx, sub); err != nil {
		return err
	}

	postings := make([]*model.Posting, 0, len(draws))
	for _, d := range draws {
		if err := uc.cards.Deduct(ctx, tx, d.Card.ID, d.Amount); err != nil {
			return err
		}
		postings = append(postings, &model.Posting{
			ID:             uuid.NewString(),
			Cost:           d.Amount,
			CardID:         d.Card.ID,
			SubscriptionID: sub.ID,
		})
	}
	if err := uc.postings.InsertBatch(ctx, tx, postings); err != nil {
		return err
	}

	metrics.ObserveCardsDrawn(len(draws))
	*subID = sub.ID
	return nil
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrNotFound):
		return "plan_not_found"
	default:
		return "error"
	}
}

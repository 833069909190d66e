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

// codeRetryLimit bounds regeneration attempts for one colliding card code
// before the whole batch is given up as a Conflict.
const codeRetryLimit = 5

// CardUseCase mints batches of prepaid cards.
type CardUseCase struct {
	cards repository.CardRepository
	tm    repository.TransactionManager
	log   *zerolog.Logger
}

func NewCardUseCase(cards repository.CardRepository, tm repository.TransactionManager, logger *zerolog.Logger) *CardUseCase {
	return &CardUseCase{cards: cards, tm: tm, log: logger}
}

// Issue mints count cards of the given face value, attributed to the issuing
// principal. The batch is one transaction: all count cards exist afterwards or
// none do. A code that collides with an existing card is regenerated in place;
// only when regeneration keeps colliding does the batch fail with ErrConflict,
// which is safe to retry.
func (uc *CardUseCase) Issue(ctx context.Context, count int, faceValue int64, issuingPrincipal string) ([]string, error) {
	if count <= 0 || !model.ValidDenomination(faceValue) {
		return nil, domain.ErrInvalidAmount
	}
	if issuingPrincipal == "" {
		return nil, domain.ErrInvalidArgument
	}

	issuedAt := time.Now().UTC()
	ids := make([]string, 0, count)
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		for i := 0; i < count; i++ {
			id, err := uc.issueOne(ctx, tx, faceValue, issuedAt, issuingPrincipal)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		uc.log.Warn().Err(err).Int("count", count).Int64("face_value", faceValue).Msg("card issuance failed")
		return nil, err
	}

	metrics.AddCardsIssued(faceValue, count)
	uc.log.Info().
		Int("count", count).
		Int64("face_value", faceValue).
		Str("issuing_principal", issuingPrincipal).
		Msg("cards issued")
	return ids, nil
}

func (uc *CardUseCase) issueOne(ctx context.Context, tx repository.Tx, faceValue int64, issuedAt time.Time, issuingPrincipal string) (string, error) {
	for attempt := 0; attempt < codeRetryLimit; attempt++ {
		code, err := generateCardCode()
		if err != nil {
			return "", err
		}
		card, err := model.NewCard(uuid.NewString(), code, faceValue, issuedAt, issuingPrincipal)
		if err != nil {
			return "", err
		}
		err = uc.cards.Insert(ctx, tx, card)
		if err == nil {
			return card.ID, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return "", err
		}
		uc.log.Debug().Int("attempt", attempt+1).Msg("card code collision, regenerating")
	}
	return "", domain.ErrConflict
}

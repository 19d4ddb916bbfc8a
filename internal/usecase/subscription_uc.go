// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/model"
	adapterport "github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/ports/adapter"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/ports/repository"
)

// Compile-time check
var _ adapterport.SubscriptionActivator = (*SubscriptionUseCase)(nil)

// SubscriptionUseCase implements the activation collaborator: given a
// confirmed payment it creates a subscription or extends the user's active
// one. ActivateOrExtend is safe to retry for the same payment because the
// extension is anchored to the payment id.
type SubscriptionUseCase struct {
	subs  repository.SubscriptionRepository
	plans repository.SubscriptionPlanRepository
	tm    repository.TransactionManager
	log   *zerolog.Logger
}

func NewSubscriptionUseCase(
	subs repository.SubscriptionRepository,
	plans repository.SubscriptionPlanRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *SubscriptionUseCase {
	return &SubscriptionUseCase{subs: subs, plans: plans, tm: tm, log: logger}
}

func (uc *SubscriptionUseCase) ActivateOrExtend(ctx context.Context, p *model.Payment) (string, error) {
	plan, err := uc.plans.FindByID(ctx, nil, p.PlanID)
	if err != nil {
		return "", err
	}
	months := p.DurationMonths
	if months <= 0 {
		months = plan.DurationMonths
	}

	var subID string
	var replayed bool
	err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		// A payment extends a subscription at most once. The activation
		// record is written in the same transaction as the extension, so a
		// retry after a partial failure finds it and no-ops.
		if applied, err := uc.subs.FindActivationByPayment(ctx, tx, p.ID); err == nil {
			subID = applied
			replayed = true
			return nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		now := time.Now()
		active, err := uc.subs.FindActiveByUser(ctx, tx, p.UserID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if active != nil && active.ActiveAt(now) {
			active.ExpiresAt = active.ExpiresAt.AddDate(0, months, 0)
			active.UpdatedAt = now
			if err := uc.subs.Save(ctx, tx, active); err != nil {
				return err
			}
			subID = active.ID
			return uc.subs.SaveActivation(ctx, tx, p.ID, subID)
		}

		s := &model.UserSubscription{
			ID:        uuid.NewString(),
			UserID:    p.UserID,
			PlanID:    plan.ID,
			StartAt:   now,
			ExpiresAt: now.AddDate(0, months, 0),
			Status:    model.SubscriptionStatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := uc.subs.Save(ctx, tx, s); err != nil {
			return err
		}
		subID = s.ID
		return uc.subs.SaveActivation(ctx, tx, p.ID, subID)
	})
	if err != nil {
		return "", err
	}

	if replayed {
		uc.log.Info().Str("payment_id", p.ID).Str("subscription_id", subID).Msg("payment already applied, returning recorded subscription")
		return subID, nil
	}
	uc.log.Info().Str("payment_id", p.ID).Str("subscription_id", subID).Int("months", months).Msg("subscription activated or extended")
	return subID, nil
}

// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/model"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/ports/adapter"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/ports/repository"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// PaymentUseCase covers the outbound initiation flow: create a pending ledger
// row and hand the user a provider checkout URL. Callback processing lives in
// ReconcileUseCase.
type PaymentUseCase interface {
	Initiate(ctx context.Context, userID, planID string, provider model.PaymentProvider) (*model.Payment, string, error)
	List(ctx context.Context, offset, limit int) ([]*model.Payment, error)
}

type paymentUC struct {
	payments repository.PaymentRepository
	plans    repository.SubscriptionPlanRepository
	linkers  map[model.PaymentProvider]adapter.CheckoutLinker
	log      *zerolog.Logger
}

func NewPaymentUseCase(
	payments repository.PaymentRepository,
	plans repository.SubscriptionPlanRepository,
	linkers []adapter.CheckoutLinker,
	logger *zerolog.Logger,
) *paymentUC {
	byProvider := make(map[model.PaymentProvider]adapter.CheckoutLinker, len(linkers))
	for _, l := range linkers {
		byProvider[l.Provider()] = l
	}
	return &paymentUC{payments: payments, plans: plans, linkers: byProvider, log: logger}
}

func (u *paymentUC) Initiate(ctx context.Context, userID, planID string, provider model.PaymentProvider) (*model.Payment, string, error) {
	linker, ok := u.linkers[provider]
	if !ok {
		return nil, "", domain.ErrInvalidArgument
	}
	plan, err := u.plans.FindByID(ctx, nil, planID)
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	p := &model.Payment{
		ID:             uuid.NewString(),
		UserID:         userID,
		PlanID:         planID,
		Provider:       provider,
		OrderID:        newOrderID(now),
		Amount:         plan.PriceFor(0),
		Currency:       "UZS",
		DurationMonths: plan.DurationMonths,
		Status:         model.PaymentStatusPending,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := u.payments.Insert(ctx, nil, p); err != nil {
		return nil, "", err
	}

	url, err := linker.CheckoutURL(ctx, p)
	if err != nil {
		return nil, "", err
	}
	u.log.Info().Str("payment_id", p.ID).Str("provider", string(provider)).Int64("amount", p.Amount).Msg("payment initiated")
	return p, url, nil
}

// newOrderID mints the merchant order reference providers address us by.
// ULIDs sort by creation time, which keeps provider statements and support
// lookups in chronological order.
func newOrderID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()
}

func (u *paymentUC) List(ctx context.Context, offset, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return u.payments.List(ctx, nil, offset, limit)
}

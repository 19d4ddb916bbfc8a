// File: internal/usecase/reconcile_uc.go
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
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/ports/adapter"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/ports/repository"
)

// Compile-time check
var _ ReconcileUseCase = (*reconcileUC)(nil)

// ReconcileUseCase is the state-machine core: it applies normalized provider
// intents to the payment ledger idempotently under concurrent delivery.
type ReconcileUseCase interface {
	// Check reports the current row for an order without mutating it.
	Check(ctx context.Context, provider model.PaymentProvider, orderID string) (*model.Payment, error)
	// Reserve creates or attaches a provider transaction for an order. It is an
	// idempotent create: repeats for the same (provider, orderID) return the
	// existing row.
	Reserve(ctx context.Context, in model.Intent) (*model.Payment, error)
	// Confirm finalizes a reserved transaction, transitioning pending->paid and
	// flagging subscription activation exactly once.
	Confirm(ctx context.Context, in model.Intent) (*model.Payment, error)
	// Cancel aborts an unperformed transaction or records a refund of a
	// performed one. Repeats return the stored cancel time.
	Cancel(ctx context.Context, in model.Intent) (*model.Payment, error)
	// Fail marks an unperformed transaction as failed on a provider-reported
	// terminal error.
	Fail(ctx context.Context, in model.Intent) (*model.Payment, error)
	// FindTransaction loads a row by the provider's own transaction id, for
	// status-query replay.
	FindTransaction(ctx context.Context, provider model.PaymentProvider, externalTxID string) (*model.Payment, error)
	// Statement lists rows whose provider transaction was created in [from, to].
	Statement(ctx context.Context, provider model.PaymentProvider, from, to time.Time) ([]*model.Payment, error)
	// ReplayActivation re-runs the activation collaborator for a paid payment
	// whose activation call did not complete. Used by the backlog worker and
	// the operator API.
	ReplayActivation(ctx context.Context, paymentID string) error
}

// casAttempts bounds the re-read loop on version conflicts. Conflicts are
// caused by the caller's own concurrent retries, so a handful of re-reads
// always converges on a terminal answer.
const casAttempts = 5

type reconcileUC struct {
	payments  repository.PaymentRepository
	plans     repository.SubscriptionPlanRepository
	activator adapter.SubscriptionActivator
	tm        repository.TransactionManager
	log       *zerolog.Logger
}

func NewReconcileUseCase(
	payments repository.PaymentRepository,
	plans repository.SubscriptionPlanRepository,
	activator adapter.SubscriptionActivator,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *reconcileUC {
	return &reconcileUC{payments: payments, plans: plans, activator: activator, tm: tm, log: logger}
}

func (u *reconcileUC) Check(ctx context.Context, provider model.PaymentProvider, orderID string) (*model.Payment, error) {
	return u.payments.FindByProviderOrder(ctx, nil, provider, orderID)
}

func (u *reconcileUC) Reserve(ctx context.Context, in model.Intent) (*model.Payment, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		p, err := u.payments.FindByProviderOrder(ctx, nil, in.Provider, in.OrderID)
		if errors.Is(err, domain.ErrNotFound) {
			created, insErr := u.insertPending(ctx, in)
			if errors.Is(insErr, domain.ErrAlreadyExists) {
				// Lost a concurrent insert race for the same key; the unique
				// constraint arbitrated. Fall back to the lookup path.
				continue
			}
			return created, insErr
		}
		if err != nil {
			return nil, err
		}

		if p.Amount != in.Amount {
			return nil, domain.ErrAmountMismatch
		}

		if p.ExternalTxID != "" {
			if in.ExternalTxID != "" && in.ExternalTxID != p.ExternalTxID && !p.CancelledState() {
				return nil, domain.ErrTransactionExists
			}
			// Idempotent repeat: return stored identifiers and sub-state.
			return p, nil
		}

		if p.Status != model.PaymentStatusPending {
			return nil, domain.ErrInvalidState
		}

		upd := *p
		upd.ExternalTxID = in.ExternalTxID
		upd.TxnState = model.TxnStateCreated
		ct := eventTime(in.At)
		upd.CreateTime = &ct
		upd.PrepareID = ct.UnixMilli()

		ok, err := u.payments.UpdateVersioned(ctx, nil, &upd, p.Version)
		if err != nil {
			return nil, err
		}
		if ok {
			return &upd, nil
		}
		// Another worker attached the transaction first; re-read and return
		// its result.
	}
	return nil, domain.ErrVersionConflict
}

// insertPending creates a fresh pending row for an order the ledger has not
// seen. When the callback identifies a plan, the supplied amount must match
// the plan's price before anything is written.
func (u *reconcileUC) insertPending(ctx context.Context, in model.Intent) (*model.Payment, error) {
	months := 0
	if in.PlanID != "" {
		plan, err := u.plans.FindByID(ctx, nil, in.PlanID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrUnknownPlan
			}
			return nil, err
		}
		if in.Amount != plan.PriceFor(0) {
			return nil, domain.ErrAmountMismatch
		}
		months = plan.DurationMonths
	}

	now := time.Now()
	ct := eventTime(in.At)
	p := &model.Payment{
		ID:             uuid.NewString(),
		PlanID:         in.PlanID,
		Provider:       in.Provider,
		OrderID:        in.OrderID,
		ExternalTxID:   in.ExternalTxID,
		PrepareID:      ct.UnixMilli(),
		Amount:         in.Amount,
		Currency:       "UZS",
		DurationMonths: months,
		Status:         model.PaymentStatusPending,
		TxnState:       model.TxnStateCreated,
		CreateTime:     &ct,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(ctx context.Context, tx repository.Tx) error {
		return u.payments.Insert(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (u *reconcileUC) Confirm(ctx context.Context, in model.Intent) (*model.Payment, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		p, err := u.load(ctx, in)
		if err != nil {
			return nil, err
		}
		if p.Performed() {
			// Already confirmed: return the stored perform time, never re-run
			// the side effect.
			return p, nil
		}
		if p.CancelledState() || p.Status == model.PaymentStatusFailed {
			return nil, domain.ErrInvalidState
		}
		if p.TxnState != model.TxnStateCreated {
			return nil, domain.ErrInvalidState
		}

		upd := *p
		pt := eventTime(in.At)
		upd.Status = model.PaymentStatusPaid
		upd.TxnState = model.TxnStatePerformed
		upd.PerformTime = &pt
		upd.SubActivated = true

		ok, err := u.payments.UpdateVersioned(ctx, nil, &upd, p.Version)
		if err != nil {
			return nil, err
		}
		if !ok {
			// A concurrent duplicate advanced the row; re-read and report the
			// winner's outcome.
			continue
		}

		// Only the writer that committed the paid transition invokes the
		// collaborator. A failure here is not an error for the provider: the
		// activation flag is already set, the backlog worker retries the call.
		u.runActivation(ctx, &upd)
		return &upd, nil
	}
	return nil, domain.ErrVersionConflict
}

func (u *reconcileUC) Cancel(ctx context.Context, in model.Intent) (*model.Payment, error) {
	return u.terminate(ctx, in, model.PaymentStatusCancelled)
}

func (u *reconcileUC) Fail(ctx context.Context, in model.Intent) (*model.Payment, error) {
	return u.terminate(ctx, in, model.PaymentStatusFailed)
}

func (u *reconcileUC) terminate(ctx context.Context, in model.Intent, status model.PaymentStatus) (*model.Payment, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		p, err := u.load(ctx, in)
		if err != nil {
			return nil, err
		}
		if p.CancelledState() || p.Status == model.PaymentStatusFailed {
			// Idempotent repeat: return the stored cancel time and reason.
			return p, nil
		}
		if status == model.PaymentStatusFailed && p.Performed() {
			return nil, domain.ErrInvalidState
		}

		upd := *p
		ctime := eventTime(in.At)
		upd.Status = status
		upd.CancelTime = &ctime
		upd.CancelReason = in.Reason
		if p.Performed() {
			// Refund path. The activation flag stays set; revocation is a
			// separate compensating action owned by the collaborator.
			upd.TxnState = model.TxnStateCancelledAfterPerform
		} else {
			upd.TxnState = model.TxnStateCancelledBeforePerform
		}

		ok, err := u.payments.UpdateVersioned(ctx, nil, &upd, p.Version)
		if err != nil {
			return nil, err
		}
		if ok {
			return &upd, nil
		}
	}
	return nil, domain.ErrVersionConflict
}

func (u *reconcileUC) FindTransaction(ctx context.Context, provider model.PaymentProvider, externalTxID string) (*model.Payment, error) {
	return u.payments.FindByExternalTx(ctx, nil, provider, externalTxID)
}

func (u *reconcileUC) Statement(ctx context.Context, provider model.PaymentProvider, from, to time.Time) ([]*model.Payment, error) {
	return u.payments.ListCreatedBetween(ctx, nil, provider, from, to)
}

func (u *reconcileUC) ReplayActivation(ctx context.Context, paymentID string) error {
	p, err := u.payments.FindByID(ctx, nil, paymentID)
	if err != nil {
		return err
	}
	if !p.SubActivated {
		return domain.ErrInvalidState
	}
	if p.SubscriptionID != nil {
		return nil
	}
	return u.runActivation(ctx, p)
}

func (u *reconcileUC) runActivation(ctx context.Context, p *model.Payment) error {
	if p.PlanID == "" {
		u.log.Warn().Str("payment_id", p.ID).Msg("paid payment has no plan; skipping activation")
		return nil
	}
	subID, err := u.activator.ActivateOrExtend(ctx, p)
	if err != nil {
		u.log.Error().Err(err).Str("payment_id", p.ID).Msg("subscription activation failed; left for backlog worker")
		return err
	}
	if err := u.payments.LinkSubscription(ctx, nil, p.ID, subID); err != nil {
		u.log.Error().Err(err).Str("payment_id", p.ID).Str("subscription_id", subID).Msg("link subscription failed")
		return err
	}
	p.SubscriptionID = &subID
	return nil
}

// load resolves a row by the provider transaction id when the intent carries
// one, otherwise by the order key.
func (u *reconcileUC) load(ctx context.Context, in model.Intent) (*model.Payment, error) {
	if in.ExternalTxID != "" {
		return u.payments.FindByExternalTx(ctx, nil, in.Provider, in.ExternalTxID)
	}
	return u.payments.FindByProviderOrder(ctx, nil, in.Provider, in.OrderID)
}

func eventTime(at *time.Time) time.Time {
	if at != nil {
		return *at
	}
	return time.Now()
}

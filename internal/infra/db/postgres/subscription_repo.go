package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/model"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

const subColumns = `id, user_id, plan_id, start_at, expires_at, status, created_at, updated_at`

type subscriptionRepo struct{ pool *pgxpool.Pool }

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.UserSubscription) error {
	const q = `
INSERT INTO user_subscriptions (` + subColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  plan_id=EXCLUDED.plan_id, start_at=EXCLUDED.start_at, expires_at=EXCLUDED.expires_at,
  status=EXCLUDED.status, updated_at=EXCLUDED.updated_at;`

	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.UserID, s.PlanID, s.StartAt, s.ExpiresAt, string(s.Status), s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *subscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.UserSubscription, error) {
	const q = `SELECT ` + subColumns + ` FROM user_subscriptions WHERE id=$1;`
	return r.findOne(ctx, tx, q, id)
}

func (r *subscriptionRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string) (*model.UserSubscription, error) {
	q := `SELECT ` + subColumns + ` FROM user_subscriptions WHERE user_id=$1 AND status='active' ORDER BY expires_at DESC LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	return r.findOne(ctx, tx, q, userID)
}

func (r *subscriptionRepo) FindActivationByPayment(ctx context.Context, tx repository.Tx, paymentID string) (string, error) {
	const q = `SELECT subscription_id FROM subscription_activations WHERE payment_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, paymentID)
	if err != nil {
		return "", err
	}

	var subID string
	if err := row.Scan(&subID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", domain.ErrReadDatabaseRow
	}
	return subID, nil
}

func (r *subscriptionRepo) SaveActivation(ctx context.Context, tx repository.Tx, paymentID, subscriptionID string) error {
	const q = `
INSERT INTO subscription_activations (payment_id, subscription_id)
VALUES ($1,$2)
ON CONFLICT (payment_id) DO NOTHING;`

	_, err := execSQL(ctx, r.pool, tx, q, paymentID, subscriptionID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *subscriptionRepo) findOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.UserSubscription, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}

	s := &model.UserSubscription{}
	var status string
	if err := row.Scan(&s.ID, &s.UserID, &s.PlanID, &s.StartAt, &s.ExpiresAt, &status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	s.Status = model.SubscriptionStatus(status)
	return s, nil
}

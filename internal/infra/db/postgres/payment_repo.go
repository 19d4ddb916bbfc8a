package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/model"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/ports/repository"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/infra/metrics"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

const uniqueViolation = "23505"

const paymentColumns = `id, user_id, plan_id, provider, order_id, external_tx_id, prepare_id, amount, currency, duration_months, status, txn_state, create_time, perform_time, cancel_time, cancel_reason, version, sub_activated, subscription_id, created_at, updated_at`

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

func (r *paymentRepo) Insert(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (` + paymentColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21);`

	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.UserID, p.PlanID, string(p.Provider), p.OrderID, p.ExternalTxID, p.PrepareID,
		p.Amount, p.Currency, p.DurationMonths, string(p.Status), int(p.TxnState),
		p.CreateTime, p.PerformTime, p.CancelTime, p.CancelReason,
		p.Version, p.SubActivated, p.SubscriptionID, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			// (provider, order_id) arbiter: the losing concurrent insert falls
			// back to the lookup path.
			return domain.ErrAlreadyExists
		}
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1;`
	return r.findOne(ctx, tx, q, id)
}

func (r *paymentRepo) FindByProviderOrder(ctx context.Context, tx repository.Tx, provider model.PaymentProvider, orderID string) (*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE provider=$1 AND order_id=$2 LIMIT 1;`
	return r.findOne(ctx, tx, q, string(provider), orderID)
}

func (r *paymentRepo) FindByExternalTx(ctx context.Context, tx repository.Tx, provider model.PaymentProvider, externalTxID string) (*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE provider=$1 AND external_tx_id=$2 LIMIT 1;`
	return r.findOne(ctx, tx, q, string(provider), externalTxID)
}

// UpdateVersioned is the conditional write the reconciliation engine builds
// its compare-and-swap on: the row is touched only when the stored version
// still equals expectedVersion. On success p.Version carries the new value.
func (r *paymentRepo) UpdateVersioned(ctx context.Context, tx repository.Tx, p *model.Payment, expectedVersion int64) (bool, error) {
	const q = `
UPDATE payments SET
  external_tx_id=$3, prepare_id=$4, status=$5, txn_state=$6,
  create_time=$7, perform_time=$8, cancel_time=$9, cancel_reason=$10,
  sub_activated=$11, version=version+1, updated_at=NOW()
WHERE id=$1 AND version=$2;`

	cmd, err := execSQL(ctx, r.pool, tx, q,
		p.ID, expectedVersion,
		p.ExternalTxID, p.PrepareID, string(p.Status), int(p.TxnState),
		p.CreateTime, p.PerformTime, p.CancelTime, p.CancelReason,
		p.SubActivated,
	)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		metrics.IncCASConflict(string(p.Provider))
		return false, nil
	}
	p.Version = expectedVersion + 1
	return true, nil
}

func (r *paymentRepo) LinkSubscription(ctx context.Context, tx repository.Tx, paymentID, subscriptionID string) error {
	const q = `UPDATE payments SET subscription_id=$2, updated_at=NOW() WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, paymentID, subscriptionID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) ListCreatedBetween(ctx context.Context, tx repository.Tx, provider model.PaymentProvider, from, to time.Time) ([]*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE provider=$1 AND create_time >= $2 AND create_time <= $3 ORDER BY create_time ASC;`
	return r.findMany(ctx, tx, q, string(provider), from, to)
}

func (r *paymentRepo) ListActivationBacklog(ctx context.Context, tx repository.Tx, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE sub_activated = TRUE AND subscription_id IS NULL ORDER BY updated_at ASC LIMIT $1;`
	return r.findMany(ctx, tx, q, limit)
}

func (r *paymentRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments ORDER BY created_at DESC OFFSET $1 LIMIT $2;`
	return r.findMany(ctx, tx, q, offset, limit)
}

func (r *paymentRepo) findOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.Payment, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *paymentRepo) findMany(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Payment, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, nil
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	var provider, status string
	var txnState int
	if err := row.Scan(
		&p.ID, &p.UserID, &p.PlanID, &provider, &p.OrderID, &p.ExternalTxID, &p.PrepareID,
		&p.Amount, &p.Currency, &p.DurationMonths, &status, &txnState,
		&p.CreateTime, &p.PerformTime, &p.CancelTime, &p.CancelReason,
		&p.Version, &p.SubActivated, &p.SubscriptionID, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Provider = model.PaymentProvider(provider)
	p.Status = model.PaymentStatus(status)
	p.TxnState = model.TxnState(txnState)
	return p, nil
}

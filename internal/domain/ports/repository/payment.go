package repository

import (
	"context"
	"time"

	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/model"
)

// PaymentRepository is the ledger store port.
//
// Insert must surface domain.ErrAlreadyExists when the (provider, order_id)
// unique constraint rejects the row; that constraint is the arbiter for
// concurrent Reserve races. UpdateVersioned is a compare-and-swap: it writes
// the row's mutable fields only if the stored version still equals
// expectedVersion, bumping the version on success. A false return with nil
// error means another writer intervened and the caller must re-read.
type PaymentRepository interface {
	Insert(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	FindByProviderOrder(ctx context.Context, tx Tx, provider model.PaymentProvider, orderID string) (*model.Payment, error)
	FindByExternalTx(ctx context.Context, tx Tx, provider model.PaymentProvider, externalTxID string) (*model.Payment, error)
	UpdateVersioned(ctx context.Context, tx Tx, p *model.Payment, expectedVersion int64) (bool, error)
	LinkSubscription(ctx context.Context, tx Tx, paymentID, subscriptionID string) error
	ListCreatedBetween(ctx context.Context, tx Tx, provider model.PaymentProvider, from, to time.Time) ([]*model.Payment, error)
	ListActivationBacklog(ctx context.Context, tx Tx, limit int) ([]*model.Payment, error)
	List(ctx context.Context, tx Tx, offset, limit int) ([]*model.Payment, error)
}

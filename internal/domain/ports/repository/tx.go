package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle. The concrete type is infra-defined
// (pgx.Tx for Postgres); repositories accept nil for the non-transactional
// path and detect a live tx implementation-side.
type Tx interface{}

// NoTX marks the non-transactional execution path.
var NoTX Tx

// TransactionManager executes a function within a database transaction,
// passing the underlying handle via `tx`. Keeping the handle opaque keeps
// transaction types out of the use-case interfaces while still allowing
// repositories to run serializable reads inside a tx.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}

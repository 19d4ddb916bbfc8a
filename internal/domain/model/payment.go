package model

import "time"

type PaymentProvider string

const (
	ProviderPayme PaymentProvider = "payme"
	ProviderClick PaymentProvider = "click"
	ProviderUzum  PaymentProvider = "uzum"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // row created; awaiting provider confirmation
	PaymentStatusPaid      PaymentStatus = "paid"      // provider confirmed; subscription activation flagged
	PaymentStatusCancelled PaymentStatus = "cancelled" // aborted before perform, or refunded after
	PaymentStatusFailed    PaymentStatus = "failed"    // provider reported a terminal failure
)

// TxnState is the provider-facing transaction sub-state. The codes follow the
// vocabulary the two-phase providers use in their status-query protocols, so a
// transaction can be replayed to the provider days later exactly as recorded.
type TxnState int

const (
	TxnStateNone                   TxnState = 0
	TxnStateCreated                TxnState = 1
	TxnStatePerformed              TxnState = 2
	TxnStateCancelledBeforePerform TxnState = -1
	TxnStateCancelledAfterPerform  TxnState = -2
)

// Payment is the ledger row: the canonical record of one payment attempt.
//
// (Provider, OrderID) is unique and is the idempotency key under which
// provider create/prepare callbacks are deduplicated. ExternalTxID is the
// provider's own transaction id, assigned on Reserve. Version is the
// optimistic concurrency token: every mutating transition increments it, and
// writers must present the version they read.
type Payment struct {
	ID              string // UUID
	UserID          string
	PlanID          string
	Provider        PaymentProvider
	OrderID         string // merchant order reference the provider addresses us by
	ExternalTxID    string // provider transaction id (Payme "id", Click click_trans_id, Uzum transactionId)
	PrepareID       int64  // locally generated prepare id echoed to the two-phase form provider
	Amount          int64  // minor currency units (tiyin)
	Currency        string
	DurationMonths  int
	Status          PaymentStatus
	TxnState        TxnState
	CreateTime      *time.Time // provider create timestamp (Reserve)
	PerformTime     *time.Time // provider perform timestamp (Confirm)
	CancelTime      *time.Time // provider cancel timestamp (Cancel)
	CancelReason    *int
	Version         int64
	SubActivated    bool    // set true exactly once, together with the paid transition
	SubscriptionID  *string // linked once the activation collaborator succeeds
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Performed reports whether the money has moved for this row.
func (p *Payment) Performed() bool {
	return p.TxnState == TxnStatePerformed || p.Status == PaymentStatusPaid
}

// Payable reports whether a provider may still reserve or confirm this row.
func (p *Payment) Payable() bool {
	return p.Status == PaymentStatusPending
}

// CancelledState reports whether the row is in either cancelled sub-state.
func (p *Payment) CancelledState() bool {
	return p.TxnState == TxnStateCancelledBeforePerform || p.TxnState == TxnStateCancelledAfterPerform
}

// Millis converts a nullable timestamp to epoch milliseconds, the format the
// provider protocols carry timestamps in. Nil maps to 0.
func Millis(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixMilli()
}

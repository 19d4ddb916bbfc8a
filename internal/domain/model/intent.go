package model

import "time"

// IntentKind is the normalized, provider-agnostic operation every provider
// callback is translated into before it reaches the reconciliation engine.
type IntentKind string

const (
	IntentCheck   IntentKind = "check"
	IntentReserve IntentKind = "reserve"
	IntentConfirm IntentKind = "confirm"
	IntentCancel  IntentKind = "cancel"
	// IntentFail marks a provider-reported terminal failure, as opposed to a
	// cancellation the provider requested.
	IntentFail IntentKind = "fail"
)

// Intent carries the normalized callback payload. Not every field is set for
// every kind: Check needs only the order reference, Confirm and Cancel may
// address the row by ExternalTxID instead of OrderID.
type Intent struct {
	Kind         IntentKind
	Provider     PaymentProvider
	OrderID      string
	ExternalTxID string
	Amount       int64
	PlanID       string     // optional; carried when the callback params identify the plan
	Reason       *int       // cancel reason code, provider vocabulary
	At           *time.Time // provider-supplied event timestamp, when the protocol carries one
}

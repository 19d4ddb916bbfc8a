package adapter

import (
	"context"

	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/model"
)

// SubscriptionActivator is the external collaborator invoked after a payment
// is confirmed. The engine calls it at most once per payment, guarded by the
// ledger's activation flag; implementations must tolerate a retry for the
// same payment (the background reconciler replays failed activations).
type SubscriptionActivator interface {
	ActivateOrExtend(ctx context.Context, p *model.Payment) (subscriptionID string, err error)
}
